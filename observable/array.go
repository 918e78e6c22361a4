package observable

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
)

// Array is an observable []any. Elements are wrapped when they enter the
// array, and every mutator notifies exactly the indexes whose element
// changed, plus length when it moved.
type Array struct {
	rt    *Runtime
	id    uint64
	items []any
}

func (a *Array) ID() uint64        { return a.id }
func (a *Array) Kind() Kind        { return KindArray }
func (a *Array) Runtime() *Runtime { return a.rt }

func (a *Array) Load(key any) any {
	i, ok := key.(int)
	if !ok {
		return nil
	}
	return a.At(i)
}

// At returns the element at i, or nil when i is out of range. Reading a
// missing index still subscribes to it.
func (a *Array) At(i int) any {
	var v any
	if i >= 0 && i < len(a.items) {
		v = a.items[i]
	}
	a.rt.track(a, i, v)
	return v
}

func (a *Array) Peek(i int) any {
	if i < 0 || i >= len(a.items) {
		return nil
	}
	return a.items[i]
}

func (a *Array) peek(prop any) (any, bool) {
	switch p := prop.(type) {
	case int:
		if p < 0 || p >= len(a.items) {
			return nil, false
		}
		return a.items[p], true
	case symbol:
		if p == symLength {
			return len(a.items), true
		}
	}
	return unset{}, false
}

func (a *Array) Len() int {
	n := len(a.items)
	a.rt.track(a, symLength, n)
	return n
}

// All yields every element, subscribing to length and to each index.
func (a *Array) All() iter.Seq2[int, any] {
	return func(yield func(int, any) bool) {
		n := a.Len()
		for i := 0; i < n; i++ {
			if !yield(i, a.At(i)) {
				return
			}
		}
	}
}

// Snapshot copies the elements without tracking.
func (a *Array) Snapshot() []any {
	return slices.Clone(a.items)
}

func (a *Array) IndexOf(v any) int {
	for i, item := range a.All() {
		if identical(item, v) {
			return i
		}
	}
	return -1
}

// Set writes index i, growing the array with nils when i is past the end.
func (a *Array) Set(i int, v any) {
	if i < 0 {
		panic(fmt.Errorf("%w: %d", ErrIndexOutOfRange, i))
	}
	if i < len(a.items) && identical(a.items[i], v) {
		return
	}
	w := a.rt.Wrap(v)
	if i < len(a.items) && identical(a.items[i], w) {
		return
	}
	a.mutate(func(items []any) []any {
		for len(items) <= i {
			items = append(items, nil)
		}
		items[i] = w
		return items
	})
}

// SetLen truncates or extends the array. Truncating behaves like removing
// the tail, so every dropped index is notified.
func (a *Array) SetLen(n int) {
	if n < 0 {
		panic(fmt.Errorf("%w: length %d", ErrIndexOutOfRange, n))
	}
	switch {
	case n < len(a.items):
		a.Splice(n, len(a.items)-n)
	case n > len(a.items):
		a.mutate(func(items []any) []any {
			return append(items, make([]any, n-len(items))...)
		})
	}
}

func (a *Array) Push(values ...any) int {
	wrapped := a.wrapAll(values)
	a.mutate(func(items []any) []any {
		return append(items, wrapped...)
	})
	return len(a.items)
}

func (a *Array) Pop() any {
	if len(a.items) == 0 {
		return nil
	}
	var out any
	a.mutate(func(items []any) []any {
		last := len(items) - 1
		out = items[last]
		items[last] = nil
		return items[:last]
	})
	return out
}

func (a *Array) Shift() any {
	if len(a.items) == 0 {
		return nil
	}
	var out any
	a.mutate(func(items []any) []any {
		out = items[0]
		return slices.Delete(items, 0, 1)
	})
	return out
}

func (a *Array) Unshift(values ...any) int {
	wrapped := a.wrapAll(values)
	a.mutate(func(items []any) []any {
		return slices.Insert(items, 0, wrapped...)
	})
	return len(a.items)
}

// Splice removes deleteCount elements starting at start and inserts values
// in their place. A negative start counts from the end.
func (a *Array) Splice(start, deleteCount int, values ...any) []any {
	n := len(a.items)
	start = relative(start, n)
	deleteCount = min(max(deleteCount, 0), n-start)
	wrapped := a.wrapAll(values)

	var removed []any
	a.mutate(func(items []any) []any {
		removed = slices.Clone(items[start : start+deleteCount])
		return slices.Replace(items, start, start+deleteCount, wrapped...)
	})
	return removed
}

// Sort is stable. A nil compare orders elements by their printed form.
func (a *Array) Sort(compare func(x, y any) int) {
	if compare == nil {
		compare = func(x, y any) int {
			return cmp.Compare(fmt.Sprint(x), fmt.Sprint(y))
		}
	}
	a.mutate(func(items []any) []any {
		slices.SortStableFunc(items, compare)
		return items
	})
}

func (a *Array) Reverse() {
	a.mutate(func(items []any) []any {
		slices.Reverse(items)
		return items
	})
}

// Fill writes v to [start, end). Negative bounds count from the end.
func (a *Array) Fill(v any, start, end int) {
	w := a.rt.Wrap(v)
	a.mutate(func(items []any) []any {
		s, e := relative(start, len(items)), relative(end, len(items))
		for i := s; i < e; i++ {
			items[i] = w
		}
		return items
	})
}

// CopyWithin copies [start, end) over the elements at target.
func (a *Array) CopyWithin(target, start, end int) {
	a.mutate(func(items []any) []any {
		n := len(items)
		t, s, e := relative(target, n), relative(start, n), relative(end, n)
		count := min(e-s, n-t)
		if count > 0 {
			copy(items[t:t+count], items[s:s+count])
		}
		return items
	})
}

func relative(i, n int) int {
	if i < 0 {
		return max(n+i, 0)
	}
	return min(i, n)
}

func (a *Array) wrapAll(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = a.rt.Wrap(v)
	}
	return out
}

// mutate applies op and notifies every index whose element identity
// differs afterwards.
func (a *Array) mutate(op func(items []any) []any) {
	before := slices.Clone(a.items)
	a.items = op(a.items)

	n := max(len(before), len(a.items))
	for i := 0; i < n; i++ {
		if i >= len(before) || i >= len(a.items) || !identical(before[i], a.items[i]) {
			a.rt.notify(PropertyKey{ID: a.id, Prop: i})
		}
	}
	if len(before) != len(a.items) {
		a.rt.notify(PropertyKey{ID: a.id, Prop: symLength})
	}
}
