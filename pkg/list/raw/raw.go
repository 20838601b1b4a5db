// Package raw instantiates list.List with ordinary Go pointers. Lists built
// here are fast and hold any element type, but they cannot be relocated.
package raw

import (
	"github.com/pkg/errors"

	"hop.computer/relist/pkg/list"
	"hop.computer/relist/pkg/must"
)

// Node is one element of a raw list. Its links point directly at the
// neighbouring nodes or at the sentinel.
type Node[T any] struct {
	next, prev *Node[T]
	value      T
}

// Allocator provides storage for nodes.
type Allocator[T any] interface {
	Alloc() (*Node[T], error)
	Free(*Node[T])
}

// Heap allocates nodes from the Go heap. It never fails.
type Heap[T any] struct{}

func (Heap[T]) Alloc() (*Node[T], error) {
	return new(Node[T]), nil
}

// Free clears the node so that it does not keep its neighbours alive.
func (Heap[T]) Free(n *Node[T]) {
	*n = Node[T]{}
}

// Limited allocates from the Go heap but refuses to hold more than Max live
// nodes at a time. Lists sharing a Limited allocator share its budget.
type Limited[T any] struct {
	Max  int
	live int
}

func (a *Limited[T]) Alloc() (*Node[T], error) {
	if a.live >= a.Max {
		return nil, errors.Wrapf(list.ErrOutOfMemory, "%d of %d nodes live", a.live, a.Max)
	}
	a.live++
	return new(Node[T]), nil
}

func (a *Limited[T]) Free(n *Node[T]) {
	a.live--
	*n = Node[T]{}
}

// Live returns the number of nodes currently allocated.
func (a *Limited[T]) Live() int {
	return a.live
}

// Policy implements list.Policy over *Node[T]. The sentinel is embedded, so a
// Policy must not be copied once in use.
type Policy[T any] struct {
	root  Node[T]
	size  int
	alloc Allocator[T]
}

var _ list.Policy[int, *Node[int]] = &Policy[int]{}

func (p *Policy[T]) Sentinel() *Node[T] { return &p.root }
func (p *Policy[T]) Next(n *Node[T]) *Node[T] { return n.next }
func (p *Policy[T]) Prev(n *Node[T]) *Node[T] { return n.prev }
func (p *Policy[T]) SetNext(n, next *Node[T]) { n.next = next }
func (p *Policy[T]) SetPrev(n, prev *Node[T]) { n.prev = prev }
func (p *Policy[T]) Value(n *Node[T]) *T { return &n.value }
func (p *Policy[T]) Alloc() (*Node[T], error) { return p.alloc.Alloc() }
func (p *Policy[T]) Free(n *Node[T]) { p.alloc.Free(n) }
func (p *Policy[T]) Size() int { return p.size }
func (p *Policy[T]) SetSize(size int) { p.size = size }
func (p *Policy[T]) Release() {}

// Shares reports whether o is a raw policy drawing from the same allocator.
func (p *Policy[T]) Shares(o list.Policy[T, *Node[T]]) bool {
	q, ok := o.(*Policy[T])
	return ok && q.alloc == p.alloc
}

// New returns an empty list backed by the Go heap.
func New[T any]() *list.List[T, *Node[T]] {
	return NewWithAllocator[T](Heap[T]{})
}

// NewWithAllocator returns an empty list whose nodes come from a.
func NewWithAllocator[T any](a Allocator[T]) *list.List[T, *Node[T]] {
	p := &Policy[T]{alloc: a}
	p.root.next, p.root.prev = &p.root, &p.root
	return list.New[T, *Node[T]](p)
}

// From returns a heap-backed list holding vs in order.
func From[T any](vs ...T) *list.List[T, *Node[T]] {
	l := New[T]()
	for _, v := range vs {
		must.Do(l.PushBack(v))
	}
	return l
}

// Clone returns a heap-backed deep copy of src, which may use any policy.
func Clone[T any, M comparable](src *list.List[T, M]) *list.List[T, *Node[T]] {
	l := New[T]()
	must.Succeed(list.Copy(l, src))
	return l
}
