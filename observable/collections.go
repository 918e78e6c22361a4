package observable

import (
	"iter"
	"slices"
)

// Map is an observable map[any]any that remembers insertion order. Plain
// container keys are wrapped first, and keys that cannot be hashed, such as
// []byte, are indexed by reference.
type Map struct {
	rt     *Runtime
	id     uint64
	source map[any]any
	order  []any
}

func (m *Map) ID() uint64        { return m.id }
func (m *Map) Kind() Kind        { return KindMap }
func (m *Map) Runtime() *Runtime { return m.rt }

func (m *Map) Load(key any) any {
	return m.Get(key)
}

func (m *Map) slot(key any) (any, any) {
	key = m.rt.Wrap(key)
	return key, identityKey(key)
}

// Get subscribes to this key only.
func (m *Map) Get(key any) any {
	_, ident := m.slot(key)
	v, ok := m.source[ident]
	if ok {
		v = m.rt.settle(v, func(w any) { m.source[ident] = w })
	}
	m.rt.track(m, ident, v)
	return v
}

func (m *Map) Has(key any) bool {
	_, ident := m.slot(key)
	_, ok := m.source[ident]
	m.rt.track(m, ident, unset{})
	return ok
}

func (m *Map) peek(prop any) (any, bool) {
	if p, ok := prop.(symbol); ok {
		if p == symSize {
			return len(m.source), true
		}
		return unset{}, false
	}
	v, ok := m.source[prop]
	return v, ok
}

func (m *Map) Len() int {
	n := len(m.source)
	m.rt.track(m, symSize, n)
	return n
}

func (m *Map) Set(key, value any) {
	key, ident := m.slot(key)
	old, exists := m.source[ident]
	if exists && identical(old, value) {
		return
	}
	w := m.rt.Wrap(value)
	if exists && identical(old, w) {
		return
	}
	m.source[ident] = w
	if !exists {
		m.order = append(m.order, key)
	}
	m.rt.notify(PropertyKey{ID: m.id, Prop: ident})
	if !exists {
		m.structural()
	}
}

func (m *Map) Delete(key any) bool {
	_, ident := m.slot(key)
	if _, ok := m.source[ident]; !ok {
		return false
	}
	delete(m.source, ident)
	m.order = removeIdentical(m.order, ident)
	m.rt.notify(PropertyKey{ID: m.id, Prop: ident})
	m.structural()
	return true
}

func (m *Map) Clear() {
	if len(m.source) == 0 {
		return
	}
	keys := m.order
	clear(m.source)
	m.order = nil
	for _, key := range keys {
		m.rt.notify(PropertyKey{ID: m.id, Prop: identityKey(key)})
	}
	m.structural()
}

func (m *Map) structural() {
	m.rt.notify(PropertyKey{ID: m.id, Prop: symSize})
	m.rt.notify(PropertyKey{ID: m.id, Prop: symIterate})
}

// Keys subscribes to the key set only.
func (m *Map) Keys() iter.Seq[any] {
	m.rt.track(m, symIterate, unset{})
	keys := slices.Clone(m.order)
	return func(yield func(any) bool) {
		for _, key := range keys {
			if !yield(key) {
				return
			}
		}
	}
}

// All subscribes to the key set and to every key it yields.
func (m *Map) All() iter.Seq2[any, any] {
	m.rt.track(m, symIterate, unset{})
	keys := slices.Clone(m.order)
	return func(yield func(any, any) bool) {
		for _, key := range keys {
			if _, ok := m.source[identityKey(key)]; !ok {
				continue
			}
			if !yield(key, m.Get(key)) {
				return
			}
		}
	}
}

func (m *Map) Values() iter.Seq[any] {
	return func(yield func(any) bool) {
		for _, v := range m.All() {
			if !yield(v) {
				return
			}
		}
	}
}

func (m *Map) ForEach(fn func(key, value any)) {
	for k, v := range m.All() {
		fn(k, v)
	}
}

// Set is an observable map[any]struct{} that remembers insertion order.
// Members are keyed by identity like Map keys. Membership is not tracked
// per value: Has subscribes to the whole set.
type Set struct {
	rt     *Runtime
	id     uint64
	source map[any]struct{}
	order  []any
}

func (s *Set) ID() uint64        { return s.id }
func (s *Set) Kind() Kind        { return KindSet }
func (s *Set) Runtime() *Runtime { return s.rt }

func (s *Set) Load(key any) any {
	return s.Has(key)
}

func (s *Set) Has(v any) bool {
	_, ok := s.source[identityKey(s.rt.Wrap(v))]
	s.rt.track(s, symIterate, unset{})
	return ok
}

func (s *Set) peek(prop any) (any, bool) {
	if prop == symSize {
		return len(s.source), true
	}
	return unset{}, false
}

func (s *Set) Len() int {
	n := len(s.source)
	s.rt.track(s, symSize, n)
	return n
}

func (s *Set) Add(v any) *Set {
	w := s.rt.Wrap(v)
	if !s.insert(w) {
		return s
	}
	s.structural()
	return s
}

func (s *Set) insert(w any) bool {
	ident := identityKey(w)
	if _, ok := s.source[ident]; ok {
		return false
	}
	s.source[ident] = struct{}{}
	s.order = append(s.order, w)
	return true
}

func (s *Set) Delete(v any) bool {
	ident := identityKey(s.rt.Wrap(v))
	if _, ok := s.source[ident]; !ok {
		return false
	}
	delete(s.source, ident)
	s.order = removeIdentical(s.order, ident)
	s.structural()
	return true
}

func (s *Set) Clear() {
	if len(s.source) == 0 {
		return
	}
	clear(s.source)
	s.order = nil
	s.structural()
}

func (s *Set) structural() {
	s.rt.notify(PropertyKey{ID: s.id, Prop: symSize})
	s.rt.notify(PropertyKey{ID: s.id, Prop: symIterate})
}

func (s *Set) Values() iter.Seq[any] {
	s.rt.track(s, symIterate, unset{})
	members := slices.Clone(s.order)
	return func(yield func(any) bool) {
		for _, member := range members {
			if !yield(member) {
				return
			}
		}
	}
}

func (s *Set) ForEach(fn func(member any)) {
	for member := range s.Values() {
		fn(member)
	}
}

func removeIdentical(order []any, ident any) []any {
	return slices.DeleteFunc(order, func(v any) bool {
		return identityKey(v) == ident
	})
}
