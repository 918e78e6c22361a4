package observable

import (
	"cmp"
	"fmt"
	"slices"
)

// Wrap returns the observable form of v. Plain containers are wrapped once
// and the same wrapper is returned for as long as it lives; wrappers,
// scalars and opaque values come back unchanged.
func (rt *Runtime) Wrap(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return rt.Object(v)
	case []any:
		return rt.Array(v)
	case map[any]any:
		return rt.Map(v)
	case map[any]struct{}:
		return rt.Set(v)
	}
	return v
}

// settle wraps a lazily stored plain container. store is called with the
// wrapper so the parent keeps it instead of the plain value.
func (rt *Runtime) settle(v any, store func(any)) any {
	switch v.(type) {
	case map[string]any, []any, map[any]any, map[any]struct{}:
		w := rt.Wrap(v)
		store(w)
		return w
	}
	return v
}

func (rt *Runtime) Object(raw map[string]any) *Object {
	o, key, memo := lookup(rt.ids, rt.ids.objects, raw)
	if o != nil {
		return o
	}
	if raw == nil {
		raw = map[string]any{}
	}
	o = &Object{rt: rt, id: rt.ids.nextID(), raw: raw, keys: sortedKeys(raw)}
	if memo {
		remember(rt.ids, rt.ids.objects, key, o)
	}
	rt.logger.Debug("wrapped object", "id", o.id, "keys", len(o.keys))
	return o
}

func (rt *Runtime) NewObject() *Object {
	return rt.Object(nil)
}

func (rt *Runtime) Array(raw []any) *Array {
	a, key, memo := lookup(rt.ids, rt.ids.arrays, raw)
	if a != nil {
		return a
	}
	a = &Array{rt: rt, id: rt.ids.nextID(), items: raw}
	if memo {
		remember(rt.ids, rt.ids.arrays, key, a)
	}
	for i, item := range raw {
		raw[i] = rt.Wrap(item)
	}
	rt.logger.Debug("wrapped array", "id", a.id, "len", len(raw))
	return a
}

func (rt *Runtime) NewArray(items ...any) *Array {
	return rt.Array(items)
}

func (rt *Runtime) Map(raw map[any]any) *Map {
	m, key, memo := lookup(rt.ids, rt.ids.maps, raw)
	if m != nil {
		return m
	}
	if raw == nil {
		raw = map[any]any{}
	}
	m = &Map{rt: rt, id: rt.ids.nextID(), source: raw, order: sortedKeys(raw)}
	if memo {
		remember(rt.ids, rt.ids.maps, key, m)
	}
	rt.logger.Debug("wrapped map", "id", m.id, "size", len(raw))
	return m
}

func (rt *Runtime) NewMap() *Map {
	return rt.Map(nil)
}

func (rt *Runtime) Set(raw map[any]struct{}) *Set {
	s, key, memo := lookup(rt.ids, rt.ids.sets, raw)
	if s != nil {
		return s
	}
	if raw == nil {
		raw = map[any]struct{}{}
	}
	s = &Set{rt: rt, id: rt.ids.nextID(), source: raw, order: sortedKeys(raw)}
	if memo {
		remember(rt.ids, rt.ids.sets, key, s)
	}
	rt.logger.Debug("wrapped set", "id", s.id, "size", len(raw))
	return s
}

func (rt *Runtime) NewSet(members ...any) *Set {
	s := rt.Set(nil)
	for _, m := range members {
		s.insert(rt.Wrap(m))
	}
	return s
}

// sortedKeys gives plain Go maps a stable starting order. Keys added
// later are appended.
func sortedKeys[K comparable, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b K) int {
		return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
	})
	return keys
}
