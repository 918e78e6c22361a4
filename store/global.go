// Package store keeps the state objects a host hands to its consumers: one
// global root per runtime, and local state owned by a single consumer.
package store

import (
	"errors"

	"github.com/delaneyj/deepstate/observable"
)

var ErrNotInitialized = errors.New("store: global store not initialized, call Create first")

// Global holds the root state object of an application.
type Global struct {
	rt   *observable.Runtime
	root *observable.Object
}

func NewGlobal(rt *observable.Runtime) *Global {
	return &Global{rt: rt}
}

// Create builds the root from init the first time it is called. Later
// calls return the existing root without calling init.
func (g *Global) Create(init func() map[string]any) *observable.Object {
	if g.root != nil {
		return g.root
	}
	g.root = g.rt.Object(init())
	g.rt.Logger().Debug("global store created", "id", g.root.ID())
	return g.root
}

func (g *Global) Initialized() bool {
	return g.root != nil
}

func (g *Global) Root() (*observable.Object, error) {
	if g.root == nil {
		return nil, ErrNotInitialized
	}
	return g.root, nil
}

// MustRoot panics when Create has not been called. Asking for the root
// before creating it is a programming error.
func (g *Global) MustRoot() *observable.Object {
	root, err := g.Root()
	if err != nil {
		panic(err)
	}
	return root
}

// Use returns the root and subscribes c to all of it. Call it while c is
// evaluating.
func (g *Global) Use(c *observable.Consumer) (*observable.Object, error) {
	root, err := g.Root()
	if err != nil {
		return nil, err
	}
	c.Observe(root)
	return root, nil
}
