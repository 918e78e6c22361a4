package observable_test

import (
	"fmt"
	"slices"
	"testing"

	"github.com/delaneyj/deepstate/observable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// should only re-run readers of the key that changed
func TestMapKeyGranularity(t *testing.T) {
	rt := newRuntime(t)
	m := rt.NewMap()
	m.Set("k1", 1)
	m.Set("k2", 2)
	w := watch(t, rt, func() { m.Get("k1") })

	m.Set("k2", 3)
	m.Set("k3", 4)
	rt.Flush()
	assert.Equal(t, 0, w.runs)

	m.Set("k1", 10)
	rt.Flush()
	assert.Equal(t, 1, w.runs)

	m.Set("k1", 10)
	rt.Flush()
	assert.Equal(t, 1, w.runs)

	assert.True(t, m.Delete("k1"))
	rt.Flush()
	assert.Equal(t, 2, w.runs)
	assert.False(t, m.Has("k1"))
}

// should re-run iterators when the key set changes
func TestMapIteration(t *testing.T) {
	rt := newRuntime(t)
	m := rt.Map(map[any]any{"b": 2, "a": 1})
	var keys []any
	w := watch(t, rt, func() { keys = slices.Collect(m.Keys()) })
	size := watch(t, rt, func() { m.Len() })
	assert.Equal(t, []any{"a", "b"}, keys)

	m.Set("a", 100)
	rt.Flush()
	assert.Equal(t, 0, w.runs)
	assert.Equal(t, 0, size.runs)

	m.Set("c", 3)
	rt.Flush()
	assert.Equal(t, 1, w.runs)
	assert.Equal(t, 1, size.runs)
	assert.Equal(t, []any{"a", "b", "c"}, keys)

	m.Clear()
	rt.Flush()
	assert.Equal(t, 2, w.runs)
	assert.Empty(t, keys)
	assert.Equal(t, 0, m.Len())
}

// should re-run value iteration when a yielded value changes
func TestMapValuesTrackEntries(t *testing.T) {
	rt := newRuntime(t)
	m := rt.Map(map[any]any{"a": 1, "b": 2})
	total := 0
	w := watch(t, rt, func() {
		total = 0
		m.ForEach(func(_, v any) { total += v.(int) })
	})
	assert.Equal(t, 3, total)

	m.Set("b", 5)
	rt.Flush()
	assert.Equal(t, 1, w.runs)
	assert.Equal(t, 6, total)
}

// should wrap map values lazily and accept container keys
func TestMapWrapping(t *testing.T) {
	rt := newRuntime(t)
	raw := map[any]any{"user": map[string]any{"name": "ada"}}
	m := rt.Map(raw)
	assert.Same(t, m, rt.Wrap(raw))

	user := m.Get("user")
	require.IsType(t, &observable.Object{}, user)
	assert.Same(t, user, m.Get("user"))

	key := map[string]any{"id": 1}
	m.Set(key, "by object")
	assert.Equal(t, "by object", m.Get(key))
	assert.Equal(t, "by object", m.Get(rt.Wrap(key)))
}

// should subscribe set membership to the whole set
func TestSetMembership(t *testing.T) {
	rt := newRuntime(t)
	s := rt.NewSet("a")
	w := watch(t, rt, func() { s.Has("a") })

	s.Add("a")
	rt.Flush()
	assert.Equal(t, 0, w.runs)

	s.Add("b")
	rt.Flush()
	assert.Equal(t, 1, w.runs)

	assert.True(t, s.Delete("b"))
	assert.False(t, s.Delete("b"))
	rt.Flush()
	assert.Equal(t, 2, w.runs)

	s.Clear()
	rt.Flush()
	assert.Equal(t, 3, w.runs)
	assert.Equal(t, 0, s.Len())
}

// should keep set members in insertion order
func TestSetValues(t *testing.T) {
	rt := newRuntime(t)
	raw := map[any]struct{}{"b": {}, "a": {}}
	s := rt.Set(raw)
	assert.Same(t, s, rt.Wrap(raw))
	s.Add("c").Add("a")
	assert.Equal(t, []any{"a", "b", "c"}, slices.Collect(s.Values()))

	member := map[string]any{"x": 1}
	s.Add(member)
	assert.True(t, s.Has(member))
	assert.Equal(t, 4, s.Len())

	var seen []any
	s.ForEach(func(v any) { seen = append(seen, v) })
	assert.Len(t, seen, 4)
	assert.IsType(t, &observable.Object{}, seen[3])
}

// should key unhashable set members by reference
func TestSetUnhashableMembers(t *testing.T) {
	rt := newRuntime(t)
	s := rt.NewSet()
	blob := []byte("blob")
	ids := []int{1}
	w := watch(t, rt, func() { s.Len() })

	s.Add(blob).Add(ids).Add(blob)
	rt.Flush()
	assert.Equal(t, 1, w.runs)
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has(blob))
	assert.False(t, s.Has([]byte("blob")))

	var members []any
	s.ForEach(func(v any) { members = append(members, v) })
	assert.Equal(t, []any{blob, ids}, members)

	assert.True(t, s.Delete(blob))
	assert.False(t, s.Delete(blob))
	rt.Flush()
	assert.Equal(t, 2, w.runs)
	assert.Equal(t, []any{ids}, slices.Collect(s.Values()))

	both := rt.NewSet(ids, ids)
	assert.Equal(t, 1, both.Len())
}

// should key unhashable map keys by reference
func TestMapUnhashableKeys(t *testing.T) {
	rt := newRuntime(t)
	m := rt.NewMap()
	key := []int{1, 2}
	name := []byte("k")
	m.Set(key, "ints")
	m.Set(name, 1)

	reader := watch(t, rt, func() { m.Get(key) })
	assert.Equal(t, "ints", m.Get(key))
	assert.Equal(t, 1, m.Get(name))
	assert.Nil(t, m.Get([]int{1, 2}))
	assert.Equal(t, []any{key, name}, slices.Collect(m.Keys()))

	m.Set(name, 2)
	rt.Flush()
	assert.Equal(t, 0, reader.runs)

	m.Set(key, "changed")
	rt.Flush()
	assert.Equal(t, 1, reader.runs)

	got := map[string]any{}
	m.ForEach(func(k, v any) { got[fmt.Sprint(k)] = v })
	assert.Equal(t, map[string]any{"[1 2]": "changed", "[107]": 2}, got)

	assert.True(t, m.Delete(key))
	assert.False(t, m.Has(key))
	rt.Flush()
	assert.Equal(t, 2, reader.runs)
	assert.Equal(t, 1, m.Len())

	m.Clear()
	assert.Equal(t, 0, m.Len())
}
