package observable

import (
	"reflect"
	"runtime"
	"sync"
	"sync/atomic"
	"weak"
)

// addrKey identifies a plain container by address. It is a uintptr so the
// memo table never keeps the container alive on its own.
type addrKey struct {
	ptr uintptr
	len int
}

func addrOf(v any) (addrKey, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return addrKey{}, false
		}
		return addrKey{ptr: uintptr(rv.UnsafePointer())}, true
	case reflect.Slice:
		if rv.Len() == 0 {
			return addrKey{}, false
		}
		return addrKey{ptr: uintptr(rv.UnsafePointer()), len: rv.Len()}, true
	}
	return addrKey{}, false
}

// registry hands out container ids and remembers which wrapper belongs to
// which plain container. Wrappers are held weakly and entries are dropped
// by a cleanup once the wrapper is collected, which happens on a runtime
// goroutine, hence the lock.
type registry struct {
	next atomic.Uint64

	mu      sync.Mutex
	objects map[addrKey]weak.Pointer[Object]
	arrays  map[addrKey]weak.Pointer[Array]
	maps    map[addrKey]weak.Pointer[Map]
	sets    map[addrKey]weak.Pointer[Set]
}

func newRegistry() *registry {
	return &registry{
		objects: map[addrKey]weak.Pointer[Object]{},
		arrays:  map[addrKey]weak.Pointer[Array]{},
		maps:    map[addrKey]weak.Pointer[Map]{},
		sets:    map[addrKey]weak.Pointer[Set]{},
	}
}

func (r *registry) nextID() uint64 {
	return r.next.Add(1)
}

func (r *registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.objects) + len(r.arrays) + len(r.maps) + len(r.sets)
}

func lookup[T any](r *registry, table map[addrKey]weak.Pointer[T], plain any) (*T, addrKey, bool) {
	key, ok := addrOf(plain)
	if !ok {
		return nil, key, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	wp, found := table[key]
	if !found {
		return nil, key, true
	}
	return wp.Value(), key, true
}

func remember[T any](r *registry, table map[addrKey]weak.Pointer[T], key addrKey, wrapper *T) {
	wp := weak.Make(wrapper)
	r.mu.Lock()
	table[key] = wp
	r.mu.Unlock()

	runtime.AddCleanup(wrapper, func(key addrKey) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if table[key] == wp {
			delete(table, key)
		}
	}, key)
}
