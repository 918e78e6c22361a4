package observable

import (
	"slices"
)

// Getter is a computed property. Its result is cached until something it
// read changes.
type Getter func(o *Object) any

// Accessor is a computed property that also accepts writes.
type Accessor struct {
	Get Getter
	Set func(o *Object, v any)
}

func accessorOf(v any) (Accessor, bool) {
	switch v := v.(type) {
	case Getter:
		return Accessor{Get: v}, true
	case func(*Object) any:
		return Accessor{Get: v}, true
	case Accessor:
		return v, true
	case *Accessor:
		if v != nil {
			return *v, true
		}
	}
	return Accessor{}, false
}

// Object is an observable map[string]any. Values of type Getter or
// Accessor in the source map become computed properties.
type Object struct {
	rt   *Runtime
	id   uint64
	raw  map[string]any
	keys []string
}

func (o *Object) ID() uint64        { return o.id }
func (o *Object) Kind() Kind        { return KindObject }
func (o *Object) Runtime() *Runtime { return o.rt }
func (o *Object) key(name string) PropertyKey {
	return PropertyKey{ID: o.id, Prop: name}
}

func (o *Object) Load(key any) any {
	name, ok := key.(string)
	if !ok {
		return nil
	}
	return o.Get(name)
}

func (o *Object) Get(name string) any {
	v, ok := o.raw[name]
	if acc, isAccessor := accessorOf(v); isAccessor {
		var out any
		if acc.Get != nil {
			out = o.rt.evaluateComputed(o.key(name), func() any { return acc.Get(o) })
		}
		o.rt.track(o, name, unset{})
		return out
	}
	if ok {
		v = o.rt.settle(v, func(w any) { o.raw[name] = w })
	}
	o.rt.track(o, name, v)
	return v
}

// Peek reads without recording a dependency.
func (o *Object) Peek(name string) any {
	var out any
	o.rt.Untracked(func() { out = o.Get(name) })
	return out
}

func (o *Object) peek(prop any) (any, bool) {
	name, ok := prop.(string)
	if !ok {
		return nil, false
	}
	v, ok := o.raw[name]
	if _, isAccessor := accessorOf(v); isAccessor {
		return unset{}, true
	}
	return v, ok
}

func (o *Object) Has(name string) bool {
	_, ok := o.raw[name]
	o.rt.track(o, name, unset{})
	return ok
}

func (o *Object) Keys() []string {
	o.rt.track(o, symKeys, unset{})
	return slices.Clone(o.keys)
}

func (o *Object) Len() int {
	o.rt.track(o, symKeys, unset{})
	return len(o.keys)
}

// Set writes name. Identical values are ignored. Writing to an accessor
// calls its setter; writing to a getter without one is ignored.
func (o *Object) Set(name string, v any) {
	old, exists := o.raw[name]
	if acc, ok := accessorOf(old); ok {
		if acc.Set == nil {
			o.rt.logger.Warn("ignoring write to read-only computed property", "object", o.id, "property", name)
			return
		}
		acc.Set(o, v)
		o.rt.notify(o.key(name))
		return
	}

	if exists && identical(old, v) {
		return
	}
	w := o.rt.Wrap(v)
	if exists && identical(old, w) {
		return
	}
	o.raw[name] = w
	if !exists {
		o.keys = append(o.keys, name)
	}
	o.rt.notify(o.key(name))
	if !exists {
		o.rt.notify(PropertyKey{ID: o.id, Prop: symKeys})
	}
}

// Define installs or replaces a property with a computed one.
func (o *Object) Define(name string, accessor Accessor) {
	_, exists := o.raw[name]
	o.raw[name] = accessor
	if !exists {
		o.keys = append(o.keys, name)
	}
	o.rt.notify(o.key(name))
	if !exists {
		o.rt.notify(PropertyKey{ID: o.id, Prop: symKeys})
	}
}

func (o *Object) Delete(name string) bool {
	if _, ok := o.raw[name]; !ok {
		return false
	}
	delete(o.raw, name)
	if i := slices.Index(o.keys, name); i >= 0 {
		o.keys = slices.Delete(o.keys, i, i+1)
	}
	o.rt.notify(o.key(name))
	o.rt.notify(PropertyKey{ID: o.id, Prop: symKeys})
	return true
}
