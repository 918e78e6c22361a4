package observable_test

import (
	"testing"

	"github.com/delaneyj/deepstate/observable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rendered struct {
	*observable.Tracker
	runs int
}

func track(t *testing.T, rt *observable.Runtime, render func(tr *observable.Tracker)) *rendered {
	t.Helper()
	r := &rendered{}
	fn := func() error {
		render(r.Tracker)
		return nil
	}
	r.Tracker = rt.NewTracker(func() error {
		r.runs++
		return r.Render(fn)
	})
	require.NoError(t, r.Render(fn))
	r.MarkLive()
	return r
}

func todoState(rt *observable.Runtime) *observable.Object {
	return rt.Object(map[string]any{
		"todos": []any{
			map[string]any{"title": "a", "done": false},
			map[string]any{"title": "b", "done": false},
		},
	})
}

// should subscribe only to what a render reads through its lens
func TestTrackerPrecise(t *testing.T) {
	rt := newRuntime(t)
	state := todoState(rt)
	var title any
	r := track(t, rt, func(tr *observable.Tracker) {
		title = tr.Lens(state).At("todos").At(0).Get("title")
	})
	assert.Equal(t, "a", title)

	var paths []string
	for _, dep := range r.Dependencies() {
		paths = append(paths, dep.Path)
	}
	assert.Equal(t, []string{"root.todos", "root.todos.0", "root.todos.0.title"}, paths)

	todos := state.Get("todos").(*observable.Array)
	todos.At(1).(*observable.Object).Set("title", "B")
	todos.At(0).(*observable.Object).Set("done", true)
	rt.Flush()
	assert.Equal(t, 0, r.runs)

	todos.At(0).(*observable.Object).Set("title", "A")
	rt.Flush()
	assert.Equal(t, 1, r.runs)
	assert.Equal(t, "A", title)
}

// should ignore writes that leave the value a tracker saw
func TestTrackerSkipsUnchangedValues(t *testing.T) {
	rt := newRuntime(t)
	m := rt.NewMap()
	r := track(t, rt, func(tr *observable.Tracker) { m.Get("missing") })
	w := watch(t, rt, func() { m.Get("missing") })

	m.Set("missing", nil)
	rt.Flush()
	assert.Equal(t, 0, r.runs)
	assert.Equal(t, 1, w.runs)

	m.Set("missing", 1)
	rt.Flush()
	assert.Equal(t, 1, r.runs)
}

// should replace tracker dependencies on every render
func TestTrackerReplacesDependencies(t *testing.T) {
	rt := newRuntime(t)
	o := rt.Object(map[string]any{"which": "a", "a": 1, "b": 2})
	r := track(t, rt, func(tr *observable.Tracker) {
		l := tr.Lens(o)
		l.Get(l.Get("which"))
	})
	assert.Len(t, r.Dependencies(), 2)

	o.Set("which", "b")
	rt.Flush()
	assert.Equal(t, 1, r.runs)

	o.Set("a", 10)
	rt.Flush()
	assert.Equal(t, 1, r.runs)

	o.Set("b", 20)
	rt.Flush()
	assert.Equal(t, 2, r.runs)
	assert.Equal(t, 3, r.Generation())
	assert.Equal(t, 3, r.RenderCount())
}

// should not track lens reads outside a render
func TestLensOutsideRender(t *testing.T) {
	rt := newRuntime(t)
	o := rt.Object(map[string]any{"a": 1})
	tr := rt.NewTracker(nil)
	l := tr.Lens(o)
	assert.Same(t, l, tr.Lens(o))
	assert.Equal(t, "root", l.Path())
	assert.Same(t, o, l.Target())

	assert.Equal(t, 1, l.Get("a"))
	assert.Empty(t, tr.Dependencies())
	assert.Nil(t, l.At("a"))
}

// should attribute plain reads during a render to the tracker
func TestTrackerWithoutLens(t *testing.T) {
	rt := newRuntime(t)
	o := rt.Object(map[string]any{"a": 1, "b": 2})
	r := track(t, rt, func(tr *observable.Tracker) { o.Get("a") })

	require.Len(t, r.Dependencies(), 1)
	assert.Equal(t, observable.PropertyKey{ID: o.ID(), Prop: "a"}, r.Dependencies()[0].Key)

	o.Set("b", 3)
	rt.Flush()
	assert.Equal(t, 0, r.runs)

	r.MarkDead()
	o.Set("a", 3)
	rt.Flush()
	assert.Equal(t, 0, r.runs)
	assert.False(t, r.Rendering())
}

// should read nil through a lens chain that crosses a scalar slot
func TestLensChainThroughScalar(t *testing.T) {
	rt := newRuntime(t)
	o := rt.Object(map[string]any{"title": "a", "meta": map[string]any{"tag": "x"}})
	var tag, missing any
	r := track(t, rt, func(tr *observable.Tracker) {
		root := tr.Lens(o)
		tag = root.At("meta").Get("tag")
		missing = root.At("title").At("deeper").Get("name")
	})
	assert.Equal(t, "x", tag)
	assert.Nil(t, missing)

	var nothing *observable.Lens
	assert.Equal(t, "", nothing.Path())
	assert.Nil(t, nothing.Target())

	paths := []string{}
	for _, dep := range r.Dependencies() {
		paths = append(paths, dep.Path)
	}
	assert.Equal(t, []string{"root.meta", "root.meta.tag", "root.title"}, paths)
}
