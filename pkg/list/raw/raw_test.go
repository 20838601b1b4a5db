package raw

import (
	"testing"

	"github.com/pkg/errors"
	"gotest.tools/assert"

	"hop.computer/relist/pkg/list"
)

func collect(l *list.List[int, *Node[int]]) []int {
	out := []int{}
	for v := range l.Values() {
		out = append(out, v)
	}
	return out
}

func TestNew(t *testing.T) {
	l := New[string]()
	assert.Equal(t, 0, l.Len())
	assert.Assert(t, l.Begin().Equal(l.End()))

	p := l.Policy().(*Policy[string])
	assert.Assert(t, p.Sentinel().next == p.Sentinel())
	assert.Assert(t, p.Sentinel().prev == p.Sentinel())

	// Any element type works on the heap.
	_, err := l.PushBack("hello")
	assert.NilError(t, err)
	assert.Equal(t, "hello", *l.Front())
}

func TestLimitedOutOfMemory(t *testing.T) {
	a := &Limited[int]{Max: 2}
	l := NewWithAllocator[int](a)
	_, err := l.PushBack(1)
	assert.NilError(t, err)
	_, err = l.PushBack(2)
	assert.NilError(t, err)

	_, err = l.PushBack(3)
	assert.Assert(t, errors.Is(err, list.ErrOutOfMemory))
	_, err = l.Insert(l.Begin(), 0)
	assert.Assert(t, errors.Is(err, list.ErrOutOfMemory))
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 2, a.Live())
	assert.NilError(t, l.Verify())
	assert.DeepEqual(t, []int{1, 2}, collect(l))
}

func TestLimitedInsertNRollsBack(t *testing.T) {
	a := &Limited[int]{Max: 4}
	l := NewWithAllocator[int](a)
	_, err := l.PushBack(1)
	assert.NilError(t, err)
	_, err = l.PushBack(2)
	assert.NilError(t, err)

	_, err = l.InsertN(l.Begin().Next(), 3, 9)
	assert.Assert(t, errors.Is(err, list.ErrOutOfMemory))
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 2, a.Live())
	assert.DeepEqual(t, []int{1, 2}, collect(l))

	err = l.Resize(5, 0)
	assert.Assert(t, errors.Is(err, list.ErrOutOfMemory))
	assert.DeepEqual(t, []int{1, 2}, collect(l))

	assert.NilError(t, l.Resize(4, 0))
	assert.DeepEqual(t, []int{1, 2, 0, 0}, collect(l))
	assert.Equal(t, 4, a.Live())
}

func TestLimitedEmplaceFailureReleasesNode(t *testing.T) {
	a := &Limited[int]{Max: 1}
	l := NewWithAllocator[int](a)
	boom := errors.New("boom")
	_, err := l.EmplaceBack(func(*int) error { return boom })
	assert.Assert(t, errors.Is(err, boom))
	assert.Equal(t, 0, a.Live())

	// The released node is available again.
	_, err = l.PushBack(1)
	assert.NilError(t, err)
	assert.Equal(t, 1, a.Live())
}

func TestLimitedCopyFailure(t *testing.T) {
	src := From(1, 2, 3)
	a := &Limited[int]{Max: 2}
	dst := NewWithAllocator[int](a)
	_, err := dst.PushBack(9)
	assert.NilError(t, err)

	err = list.Copy(dst, src)
	assert.Assert(t, errors.Is(err, list.ErrOutOfMemory))
	assert.Equal(t, 0, dst.Len())
	assert.Equal(t, 0, a.Live())
	assert.NilError(t, dst.Verify())
}

func TestAssignNamesFailingElement(t *testing.T) {
	dst := NewWithAllocator[int](&Limited[int]{Max: 2})
	err := dst.Assign(From(1, 2, 3).Values())
	assert.Assert(t, errors.Is(err, list.ErrOutOfMemory))
	assert.ErrorContains(t, err, "assign element 2")
	assert.Equal(t, 0, dst.Len())
}

func TestClearReturnsNodes(t *testing.T) {
	a := &Limited[int]{Max: 8}
	l := NewWithAllocator[int](a)
	assert.NilError(t, l.Resize(8, 1))
	assert.Equal(t, 8, a.Live())
	l.Clear()
	assert.Equal(t, 0, a.Live())
	l.Release()
	assert.Equal(t, 0, a.Live())
}

func TestShares(t *testing.T) {
	a := &Limited[int]{Max: 8}
	heapA, heapB := New[int](), New[int]()
	limA, limB := NewWithAllocator[int](a), NewWithAllocator[int](a)
	other := NewWithAllocator[int](&Limited[int]{Max: 8})

	assert.Assert(t, heapA.Policy().Shares(heapB.Policy()))
	assert.Assert(t, limA.Policy().Shares(limB.Policy()))
	assert.Assert(t, !heapA.Policy().Shares(limA.Policy()))
	assert.Assert(t, !limA.Policy().Shares(other.Policy()))

	_, err := limB.PushBack(1)
	assert.NilError(t, err)
	err = heapA.Splice(heapA.End(), limB)
	assert.Assert(t, errors.Is(err, list.ErrForeignPolicy))
	err = other.Move(limB)
	assert.Assert(t, errors.Is(err, list.ErrForeignPolicy))
	assert.DeepEqual(t, []int{1}, collect(limB))

	assert.NilError(t, limA.Move(limB))
	assert.DeepEqual(t, []int{1}, collect(limA))
	assert.Equal(t, 1, a.Live())
}

func TestClone(t *testing.T) {
	src := From(1, 2, 3)
	c := Clone(src)
	assert.DeepEqual(t, []int{1, 2, 3}, collect(c))
	*c.Front() = 10
	assert.DeepEqual(t, []int{1, 2, 3}, collect(src))
}

func TestVerifyDetectsBrokenLinks(t *testing.T) {
	l := From(1, 2, 3)
	p := l.Policy().(*Policy[int])

	second := l.Begin().Next().Link()
	second.prev = second
	assert.Assert(t, errors.Is(l.Verify(), list.ErrCorrupt))
	second.prev = l.Begin().Link()
	assert.NilError(t, l.Verify())

	p.size = 2
	assert.Assert(t, errors.Is(l.Verify(), list.ErrCorrupt))
	p.size = 4
	assert.Assert(t, errors.Is(l.Verify(), list.ErrCorrupt))
}
