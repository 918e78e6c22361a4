package observable

import (
	"cmp"
	"fmt"
	"slices"
)

// Tracker is a consumer using the precise strategy. It subscribes only to
// what it reads while rendering, and ignores writes that leave a slot
// holding the value it saw.
type Tracker struct {
	*Consumer
	lenses map[uint64]*Lens
}

func (rt *Runtime) NewTracker(rerun func() error, opts ...ConsumerOption) *Tracker {
	return &Tracker{
		Consumer: rt.newConsumer(rerun, true, opts),
		lenses:   map[uint64]*Lens{},
	}
}

// Render is Evaluate under the name hosts usually give it.
func (t *Tracker) Render(fn func() error) error {
	return t.Evaluate(fn)
}

func (t *Tracker) Rendering() bool {
	return t.evaluating
}

func (t *Tracker) RenderCount() int {
	return t.renders
}

func (t *Tracker) MarkDead() {
	t.Consumer.MarkDead()
	clear(t.lenses)
}

type Dependency struct {
	Key  PropertyKey
	Path string
}

// Dependencies lists what the last render read, with the lens path each
// read came through when there was one.
func (t *Tracker) Dependencies() []Dependency {
	out := make([]Dependency, 0, t.deps.Cardinality())
	t.deps.Each(func(key PropertyKey) bool {
		dep := Dependency{Key: key, Path: key.String()}
		if s, ok := t.snapshots[key]; ok && s.path != "" {
			dep.Path = s.path
		}
		out = append(out, dep)
		return false
	})
	slices.SortFunc(out, func(a, b Dependency) int {
		return cmp.Compare(a.Path, b.Path)
	})
	return out
}

// Lens returns a view of root whose reads are attributed to t while it
// renders, even when another consumer is innermost. Lenses are cached per
// container for the life of the tracker.
func (t *Tracker) Lens(root any) *Lens {
	return t.lensAt(root, "root")
}

func (t *Tracker) lensAt(v any, path string) *Lens {
	c, ok := t.rt.Wrap(v).(Container)
	if !ok {
		return nil
	}
	if l, ok := t.lenses[c.ID()]; ok {
		return l
	}
	l := &Lens{tracker: t, target: c, path: path}
	t.lenses[c.ID()] = l
	return l
}

// Lens is a path-aware view over one container. A nil *Lens is valid and
// reads as empty, so chains through missing slots yield nil.
type Lens struct {
	tracker *Tracker
	target  Container
	path    string
}

func (l *Lens) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

func (l *Lens) Target() Container {
	if l == nil {
		return nil
	}
	return l.target
}

// Get reads key from the target. Outside a render the read is untracked.
func (l *Lens) Get(key any) any {
	if l == nil {
		return nil
	}
	t := l.tracker
	rt := t.rt
	if !t.evaluating || t.dead {
		var out any
		rt.Untracked(func() { out = l.target.Load(key) })
		return out
	}

	rt.pushFrame(frame{consumer: t.Consumer})
	prevPath := t.readPath
	t.readPath = fmt.Sprintf("%s.%v", l.path, key)
	defer func() {
		t.readPath = prevPath
		rt.popFrame()
	}()
	return l.target.Load(key)
}

// At returns a lens over the container stored at key, or nil when the slot
// does not hold a container.
func (l *Lens) At(key any) *Lens {
	if l == nil {
		return nil
	}
	return l.tracker.lensAt(l.Get(key), fmt.Sprintf("%s.%v", l.path, key))
}
