package observable

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

type computedEntry struct {
	key       PropertyKey
	value     any
	valid     bool
	computing bool
	runs      int
	deps      mapset.Set[PropertyKey]
}

// computedCache holds one entry per (object, getter). dependents is the
// reverse of every entry's deps and drives invalidation.
type computedCache struct {
	entries    map[PropertyKey]*computedEntry
	dependents map[PropertyKey]mapset.Set[PropertyKey]
}

func newComputedCache() *computedCache {
	return &computedCache{
		entries:    map[PropertyKey]*computedEntry{},
		dependents: map[PropertyKey]mapset.Set[PropertyKey]{},
	}
}

func (cc *computedCache) entry(key PropertyKey) *computedEntry {
	e, ok := cc.entries[key]
	if !ok {
		e = &computedEntry{key: key, deps: mapset.NewThreadUnsafeSet[PropertyKey]()}
		cc.entries[key] = e
	}
	return e
}

func (cc *computedCache) link(e *computedEntry, key PropertyKey) {
	if key == e.key || !e.deps.Add(key) {
		return
	}
	back, ok := cc.dependents[key]
	if !ok {
		back = mapset.NewThreadUnsafeSet[PropertyKey]()
		cc.dependents[key] = back
	}
	back.Add(e.key)
}

// depend records that e read key. Reading another getter also pulls in
// everything that getter depends on.
func (cc *computedCache) depend(e *computedEntry, key PropertyKey) {
	cc.link(e, key)
	if inner, ok := cc.entries[key]; ok {
		inner.deps.Each(func(dep PropertyKey) bool {
			cc.link(e, dep)
			return false
		})
	}
}

func (cc *computedCache) clearDeps(e *computedEntry) {
	e.deps.Each(func(dep PropertyKey) bool {
		if back, ok := cc.dependents[dep]; ok {
			back.Remove(e.key)
			if back.Cardinality() == 0 {
				delete(cc.dependents, dep)
			}
		}
		return false
	})
	e.deps.Clear()
}

// invalidate marks every getter that depends on key, directly or through
// other getters, as stale and returns their keys in discovery order.
func (cc *computedCache) invalidate(key PropertyKey) []PropertyKey {
	if e, ok := cc.entries[key]; ok {
		e.valid = false
	}
	if _, ok := cc.dependents[key]; !ok {
		return nil
	}

	var out []PropertyKey
	seen := mapset.NewThreadUnsafeSet(key)
	queue := []PropertyKey{key}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		back, ok := cc.dependents[next]
		if !ok {
			continue
		}
		for _, getter := range back.ToSlice() {
			if !seen.Add(getter) {
				continue
			}
			if e, ok := cc.entries[getter]; ok {
				e.valid = false
			}
			out = append(out, getter)
			queue = append(queue, getter)
		}
	}
	return out
}

func (cc *computedCache) size() int {
	return len(cc.entries)
}

// evaluateComputed returns the cached value for key, recomputing it with
// fn when stale. Reads made by fn are attributed to the entry only.
func (rt *Runtime) evaluateComputed(key PropertyKey, fn func() any) any {
	e := rt.computed.entry(key)
	if e.valid {
		return e.value
	}
	if e.computing {
		panic(fmt.Errorf("%w: %s", ErrCircularComputed, key))
	}

	rt.computed.clearDeps(e)
	e.computing = true
	rt.pushFrame(frame{computed: e})
	defer func() {
		rt.popFrame()
		e.computing = false
	}()

	v := rt.Wrap(fn())
	e.value = v
	e.valid = true
	e.runs++
	return v
}
