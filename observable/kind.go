package observable

import (
	"reflect"
	"unsafe"
)

type Kind uint8

const (
	KindScalar Kind = iota
	KindObject
	KindArray
	KindMap
	KindSet
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindSet:
		return "set"
	default:
		return "opaque"
	}
}

// KindOf classifies v. Only the four plain container shapes and their
// wrapped forms are containers; time.Time, *regexp.Regexp, []byte, typed
// slices, structs, channels and everything else not listed is opaque and
// passes through Wrap untouched.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64, complex64, complex128:
		return KindScalar
	case map[string]any, *Object:
		return KindObject
	case []any, *Array:
		return KindArray
	case map[any]any, *Map:
		return KindMap
	case map[any]struct{}, *Set:
		return KindSet
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return KindScalar
	}
	return KindOpaque
}

// Container is implemented by every wrapped kind.
type Container interface {
	ID() uint64
	Kind() Kind
	Runtime() *Runtime
	// Load performs a tracked read of one slot: a field name for objects,
	// an index for arrays, a key for maps and a member for sets (reported
	// as a bool).
	Load(key any) any

	peek(prop any) (any, bool)
}

type reference struct {
	typ reflect.Type
	ptr unsafe.Pointer
	len int
}

// identityKey turns v into something usable as a Go map key. Comparable
// values are returned as is; maps, slices and funcs compare by reference.
func identityKey(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Comparable() {
		return v
	}
	ref := reference{typ: rv.Type()}
	switch rv.Kind() {
	case reflect.Slice:
		ref.ptr = rv.UnsafePointer()
		ref.len = rv.Len()
	case reflect.Map, reflect.Func, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		ref.ptr = rv.UnsafePointer()
	default:
		// non-comparable structs and arrays get a fresh address, so two
		// such values never look identical
		ref.ptr = unsafe.Pointer(&v)
	}
	return ref
}

func identical(a, b any) bool {
	return identityKey(a) == identityKey(b)
}
