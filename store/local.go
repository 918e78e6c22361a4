package store

import (
	"github.com/delaneyj/deepstate/observable"
)

// Local is state owned by one consumer. It is created on first use and
// kept across evaluations.
type Local struct {
	rt    *observable.Runtime
	init  func() map[string]any
	state *observable.Object
}

func NewLocal(rt *observable.Runtime, init func() map[string]any) *Local {
	return &Local{rt: rt, init: init}
}

func (l *Local) State() *observable.Object {
	if l.state == nil {
		var raw map[string]any
		if l.init != nil {
			raw = l.init()
		}
		l.state = l.rt.Object(raw)
	}
	return l.state
}

// Use returns the state and subscribes c to all of it.
func (l *Local) Use(c *observable.Consumer) *observable.Object {
	state := l.State()
	c.Observe(state)
	return state
}
