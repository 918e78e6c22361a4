package observable_test

import (
	"cmp"
	"testing"

	"github.com/delaneyj/deepstate/observable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ints(values ...int) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// should push without disturbing readers of untouched indexes
func TestArrayPushScenario(t *testing.T) {
	rt := newRuntime(t)
	arr := rt.Array(ints(1, 2, 3))
	w := watch(t, rt, func() { arr.At(0) })

	assert.Equal(t, 4, arr.Push(4))
	assert.Equal(t, 4, arr.Len())
	assert.Equal(t, 4, arr.At(3))
	rt.Flush()
	assert.Equal(t, 0, w.runs)
}

// should notify per index and on length
func TestArrayIndexGranularity(t *testing.T) {
	rt := newRuntime(t)
	arr := rt.Array(ints(0, 1, 2, 3, 4, 5))
	first := watch(t, rt, func() { arr.At(0) })
	length := watch(t, rt, func() { arr.Len() })

	arr.Set(5, "five")
	rt.Flush()
	assert.Equal(t, 0, first.runs)
	assert.Equal(t, 0, length.runs)

	arr.Set(0, "zero")
	rt.Flush()
	assert.Equal(t, 1, first.runs)
	assert.Equal(t, 0, length.runs)

	arr.Push(6)
	rt.Flush()
	assert.Equal(t, 1, first.runs)
	assert.Equal(t, 1, length.runs)
}

// should notify the indexes a shift moves
func TestArrayShiftMovesIndexes(t *testing.T) {
	rt := newRuntime(t)
	arr := rt.Array(ints(1, 2, 3))
	third := watch(t, rt, func() { arr.At(2) })

	assert.Equal(t, 1, arr.Shift())
	assert.Equal(t, []any{2, 3}, arr.Snapshot())
	assert.Nil(t, arr.At(2))
	rt.Flush()
	assert.Equal(t, 1, third.runs)

	assert.Equal(t, 3, arr.Unshift(0))
	assert.Equal(t, []any{0, 2, 3}, arr.Snapshot())
}

// should pop and shift empty arrays to nil
func TestArrayEmptyPopShift(t *testing.T) {
	rt := newRuntime(t)
	arr := rt.NewArray()
	assert.Nil(t, arr.Pop())
	assert.Nil(t, arr.Shift())
	arr.Push("a", "b")
	assert.Equal(t, "b", arr.Pop())
	assert.Equal(t, 1, arr.Len())
}

// should splice like javascript
func TestArraySplice(t *testing.T) {
	rt := newRuntime(t)
	arr := rt.Array(ints(1, 2, 3, 4, 5))

	removed := arr.Splice(1, 2, "a")
	assert.Equal(t, ints(2, 3), removed)
	assert.Equal(t, []any{1, "a", 4, 5}, arr.Snapshot())

	removed = arr.Splice(-2, 1)
	assert.Equal(t, ints(4), removed)
	assert.Equal(t, []any{1, "a", 5}, arr.Snapshot())

	removed = arr.Splice(10, 3, "tail")
	assert.Empty(t, removed)
	assert.Equal(t, []any{1, "a", 5, "tail"}, arr.Snapshot())
}

// should treat shrinking the length as removing the tail
func TestArraySetLen(t *testing.T) {
	rt := newRuntime(t)
	arr := rt.Array(ints(1, 2, 3, 4, 5))
	last := watch(t, rt, func() { arr.At(4) })
	head := watch(t, rt, func() { arr.At(0) })

	arr.SetLen(2)
	assert.Equal(t, ints(1, 2), arr.Snapshot())
	rt.Flush()
	assert.Equal(t, 1, last.runs)
	assert.Equal(t, 0, head.runs)

	arr.SetLen(4)
	assert.Equal(t, []any{1, 2, nil, nil}, arr.Snapshot())
	assert.Panics(t, func() { arr.SetLen(-1) })
}

// should grow when writing past the end
func TestArraySetPastEnd(t *testing.T) {
	rt := newRuntime(t)
	arr := rt.Array(ints(1))
	arr.Set(3, "x")
	assert.Equal(t, []any{1, nil, nil, "x"}, arr.Snapshot())

	defer func() {
		r := recover()
		require.NotNil(t, r)
		assert.ErrorIs(t, r.(error), observable.ErrIndexOutOfRange)
	}()
	arr.Set(-1, "y")
}

// should only notify indexes whose element moved when sorting
func TestArraySortNotifiesMovedIndexes(t *testing.T) {
	rt := newRuntime(t)
	arr := rt.Array(ints(1, 3, 2))
	first := watch(t, rt, func() { arr.At(0) })
	second := watch(t, rt, func() { arr.At(1) })

	arr.Sort(func(x, y any) int { return cmp.Compare(x.(int), y.(int)) })
	assert.Equal(t, ints(1, 2, 3), arr.Snapshot())
	rt.Flush()
	assert.Equal(t, 0, first.runs)
	assert.Equal(t, 1, second.runs)

	arr.Reverse()
	assert.Equal(t, ints(3, 2, 1), arr.Snapshot())
}

// should sort by printed form without a comparator
func TestArraySortDefaultOrder(t *testing.T) {
	rt := newRuntime(t)
	arr := rt.Array([]any{10, 9, "b", 1, "a"})
	last := watch(t, rt, func() { arr.At(4) })

	arr.Sort(nil)
	assert.Equal(t, []any{1, 10, 9, "a", "b"}, arr.Snapshot())
	rt.Flush()
	assert.Equal(t, 1, last.runs)
}

// should fill and copy within ranges
func TestArrayFillAndCopyWithin(t *testing.T) {
	rt := newRuntime(t)
	arr := rt.Array(ints(1, 2, 3, 4))
	arr.Fill("x", 1, 3)
	assert.Equal(t, []any{1, "x", "x", 4}, arr.Snapshot())
	arr.Fill(0, -1, 4)
	assert.Equal(t, []any{1, "x", "x", 0}, arr.Snapshot())

	arr = rt.Array(ints(1, 2, 3, 4, 5))
	arr.CopyWithin(0, 3, 5)
	assert.Equal(t, ints(4, 5, 3, 4, 5), arr.Snapshot())
}

// should wrap elements as they enter the array
func TestArrayWrapsElements(t *testing.T) {
	rt := newRuntime(t)
	item := map[string]any{"done": false}
	arr := rt.Array([]any{item})
	require.IsType(t, &observable.Object{}, arr.At(0))
	assert.Same(t, rt.Wrap(item), arr.At(0))

	arr.Push(map[string]any{"done": true})
	assert.IsType(t, &observable.Object{}, arr.At(1))
	assert.Equal(t, 1, arr.IndexOf(arr.At(1)))
	assert.Equal(t, -1, arr.IndexOf("missing"))
}

// should subscribe to every element while iterating
func TestArrayIteration(t *testing.T) {
	rt := newRuntime(t)
	arr := rt.Array(ints(1, 2, 3))
	sum := 0
	w := watch(t, rt, func() {
		sum = 0
		for _, v := range arr.All() {
			sum += v.(int)
		}
	})
	assert.Equal(t, 6, sum)

	arr.Set(2, 10)
	rt.Flush()
	assert.Equal(t, 1, w.runs)
	assert.Equal(t, 13, sum)
}
