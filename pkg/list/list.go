// Package list implements a doubly-linked list whose links are expressed
// through a pointer policy.
//
// The chain is circular and anchored at a sentinel owned by the policy: an
// empty list is the sentinel linked to itself, and the sentinel is the end
// position. Nodes are only ever reached through Policy methods, so the same
// algorithms run over ordinary heap pointers (package raw) and over
// self-relative offsets inside a relocatable region (package offset).
//
// Insertion allocates and initializes a node before it touches the chain, so a
// failed insertion leaves the list exactly as it was. The list is not
// thread-safe.
package list

import (
	"iter"

	"github.com/pkg/errors"
)

// List is a doubly-linked list of T with positions of type L.
type List[T any, L comparable] struct {
	p Policy[T, L]
}

// New returns the list anchored at p's sentinel. The sentinel must already be
// part of a valid chain, either freshly self-linked or loaded from storage.
func New[T any, L comparable](p Policy[T, L]) *List[T, L] {
	return &List[T, L]{p: p}
}

// Policy returns the policy the list was created with.
func (l *List[T, L]) Policy() Policy[T, L] {
	return l.p
}

// Len returns the number of elements. This function is constant time.
func (l *List[T, L]) Len() int {
	return l.p.Size()
}

// Empty reports whether the list has no elements.
func (l *List[T, L]) Empty() bool {
	return l.p.Size() == 0
}

func (l *List[T, L]) at(n L) Iterator[T, L] {
	return Iterator[T, L]{p: l.p, n: n}
}

// Begin returns the position of the first element, or End if the list is empty.
func (l *List[T, L]) Begin() Iterator[T, L] {
	return l.at(l.p.Next(l.p.Sentinel()))
}

// End returns the position past the last element.
func (l *List[T, L]) End() Iterator[T, L] {
	return l.at(l.p.Sentinel())
}

func (l *List[T, L]) CBegin() ConstIterator[T, L] {
	return l.Begin().Const()
}

func (l *List[T, L]) CEnd() ConstIterator[T, L] {
	return l.End().Const()
}

// Front returns the first element. If the list is empty, it returns nil.
func (l *List[T, L]) Front() *T {
	if l.Empty() {
		return nil
	}
	return l.p.Value(l.p.Next(l.p.Sentinel()))
}

// Back returns the last element. If the list is empty, it returns nil.
func (l *List[T, L]) Back() *T {
	if l.Empty() {
		return nil
	}
	return l.p.Value(l.p.Prev(l.p.Sentinel()))
}

func (l *List[T, L]) own(it Iterator[T, L]) error {
	if it.p == nil || it.p != l.p {
		return ErrForeignIterator
	}
	return nil
}

func set[T any](v T) func(*T) error {
	return func(p *T) error {
		*p = v
		return nil
	}
}

// emplace allocates a node, lets init fill in the value and only then links the
// node before pos. If init fails the node is freed and the chain is untouched.
func (l *List[T, L]) emplace(pos L, init func(*T) error) (L, error) {
	n, err := l.p.Alloc()
	if err != nil {
		var zero L
		return zero, err
	}
	if init != nil {
		if err := init(l.p.Value(n)); err != nil {
			l.p.Free(n)
			var zero L
			return zero, err
		}
	}
	linkBefore(l.p, n, pos)
	l.p.SetSize(l.p.Size() + 1)
	return n, nil
}

func (l *List[T, L]) erase(n L) L {
	next := l.p.Next(n)
	unlink(l.p, n)
	l.p.Free(n)
	l.p.SetSize(l.p.Size() - 1)
	return next
}

// Insert inserts v before pos and returns the position of the new element.
func (l *List[T, L]) Insert(pos Iterator[T, L], v T) (Iterator[T, L], error) {
	return l.Emplace(pos, set(v))
}

// InsertN inserts count copies of v before pos and returns the position of the
// first of them, or pos if count is zero. If any allocation fails, the elements
// inserted so far are erased again.
func (l *List[T, L]) InsertN(pos Iterator[T, L], count int, v T) (Iterator[T, L], error) {
	if err := l.own(pos); err != nil {
		return Iterator[T, L]{}, err
	}
	if count < 0 {
		return Iterator[T, L]{}, errors.Wrapf(ErrInvalidSize, "insert of %d elements", count)
	}

	var first L
	for i := 0; i < count; i++ {
		n, err := l.emplace(pos.n, set(v))
		if err != nil {
			for j := 0; j < i; j++ {
				l.erase(l.p.Prev(pos.n))
			}
			return Iterator[T, L]{}, errors.WithMessagef(err, "insert %d of %d", i+1, count)
		}
		if i == 0 {
			first = n
		}
	}
	if count == 0 {
		return pos, nil
	}
	return l.at(first), nil
}

// Emplace creates an element before pos and lets init construct it in place.
// If init returns an error, the node is released and the error returned.
func (l *List[T, L]) Emplace(pos Iterator[T, L], init func(*T) error) (Iterator[T, L], error) {
	if err := l.own(pos); err != nil {
		return Iterator[T, L]{}, err
	}
	n, err := l.emplace(pos.n, init)
	if err != nil {
		return Iterator[T, L]{}, err
	}
	return l.at(n), nil
}

// EmplaceFront constructs an element at the front and returns it.
func (l *List[T, L]) EmplaceFront(init func(*T) error) (*T, error) {
	n, err := l.emplace(l.p.Next(l.p.Sentinel()), init)
	if err != nil {
		return nil, err
	}
	return l.p.Value(n), nil
}

// EmplaceBack constructs an element at the back and returns it.
func (l *List[T, L]) EmplaceBack(init func(*T) error) (*T, error) {
	n, err := l.emplace(l.p.Sentinel(), init)
	if err != nil {
		return nil, err
	}
	return l.p.Value(n), nil
}

// PushFront prepends v and returns the stored element.
func (l *List[T, L]) PushFront(v T) (*T, error) {
	return l.EmplaceFront(set(v))
}

// PushBack appends v and returns the stored element.
func (l *List[T, L]) PushBack(v T) (*T, error) {
	return l.EmplaceBack(set(v))
}

// PopFront removes the first element and returns it. ok is false if the list
// is empty.
func (l *List[T, L]) PopFront() (v T, ok bool) {
	if l.Empty() {
		return v, false
	}
	n := l.p.Next(l.p.Sentinel())
	v = *l.p.Value(n)
	l.erase(n)
	return v, true
}

// PopBack removes the last element and returns it. ok is false if the list is
// empty.
func (l *List[T, L]) PopBack() (v T, ok bool) {
	if l.Empty() {
		return v, false
	}
	n := l.p.Prev(l.p.Sentinel())
	v = *l.p.Value(n)
	l.erase(n)
	return v, true
}

// Erase removes the element at pos and returns the position that followed it.
// Iterators to other elements stay valid.
func (l *List[T, L]) Erase(pos Iterator[T, L]) (Iterator[T, L], error) {
	if err := l.own(pos); err != nil {
		return Iterator[T, L]{}, err
	}
	if pos.n == l.p.Sentinel() {
		return Iterator[T, L]{}, ErrEraseEnd
	}
	return l.at(l.erase(pos.n)), nil
}

// EraseRange removes the elements in [first, last) and returns last. The range
// is checked before anything is erased.
func (l *List[T, L]) EraseRange(first, last Iterator[T, L]) (Iterator[T, L], error) {
	if err := l.own(first); err != nil {
		return Iterator[T, L]{}, err
	}
	if err := l.own(last); err != nil {
		return Iterator[T, L]{}, err
	}
	s := l.p.Sentinel()
	for n := first.n; n != last.n; n = l.p.Next(n) {
		if n == s {
			return Iterator[T, L]{}, ErrInvalidRange
		}
	}
	for n := first.n; n != last.n; {
		n = l.erase(n)
	}
	return last, nil
}

// Remove erases the element stored at v, if it is in the list. It returns true
// if an element was removed. Elements are compared by address. This function
// is O(n).
func (l *List[T, L]) Remove(v *T) bool {
	s := l.p.Sentinel()
	for n := l.p.Next(s); n != s; n = l.p.Next(n) {
		if l.p.Value(n) == v {
			l.erase(n)
			return true
		}
	}
	return false
}

// Resize truncates the list to n elements, or appends copies of v until it has
// n. A failed growth leaves the list at its previous length.
func (l *List[T, L]) Resize(n int, v T) error {
	if n < 0 {
		return errors.Wrapf(ErrInvalidSize, "resize to %d", n)
	}
	it := l.Begin()
	count := 0
	for !it.IsEnd() && count < n {
		it.Inc()
		count++
	}
	if count == n {
		_, err := l.EraseRange(it, l.End())
		return err
	}
	_, err := l.InsertN(l.End(), n-count, v)
	return err
}

// Clear erases every element. Calling it on an empty list does nothing.
func (l *List[T, L]) Clear() {
	s := l.p.Sentinel()
	for n := l.p.Next(s); n != s; {
		next := l.p.Next(n)
		l.p.Free(n)
		n = next
	}
	selfLink(l.p)
	l.p.SetSize(0)
}

// Assign replaces the contents of the list with the values of seq. If an
// allocation fails, the list is left empty. seq must not iterate over l.
func (l *List[T, L]) Assign(seq iter.Seq[T]) error {
	l.Clear()
	i := 0
	for v := range seq {
		if _, err := l.PushBack(v); err != nil {
			l.Clear()
			return errors.WithMessagef(err, "assign element %d", i)
		}
		i++
	}
	return nil
}

// Copy makes dst a deep copy of src. dst and src never share nodes, so they may
// use different policies. Copying a list onto itself does nothing.
func Copy[T any, L, M comparable](dst *List[T, L], src *List[T, M]) error {
	if any(dst) == any(src) {
		return nil
	}
	return dst.Assign(src.Values())
}

// Splice moves every element of other before pos, without copying or
// reallocating them. other is left empty. Both lists must share node storage.
// Element addresses are unchanged, so pointers returned by Value stay valid.
func (l *List[T, L]) Splice(pos Iterator[T, L], other *List[T, L]) error {
	if err := l.own(pos); err != nil {
		return err
	}
	if other == l {
		return errors.Wrap(ErrInvalidRange, "splice of a list into itself")
	}
	if !l.p.Shares(other.p) {
		return ErrForeignPolicy
	}
	if other.Empty() {
		return nil
	}

	src := other.p.Sentinel()
	first, last := other.p.Next(src), other.p.Prev(src)
	n := other.p.Size()
	selfLink(other.p)
	other.p.SetSize(0)

	prev := l.p.Prev(pos.n)
	l.p.SetNext(prev, first)
	l.p.SetPrev(first, prev)
	l.p.SetNext(last, pos.n)
	l.p.SetPrev(pos.n, last)
	l.p.SetSize(l.p.Size() + n)
	return nil
}

// Move transfers the elements of other to l, replacing l's contents. Iterators
// to the moved elements keep dereferencing to them, but they remain tied to
// other; take new positions from l to erase or insert.
func (l *List[T, L]) Move(other *List[T, L]) error {
	if other == l {
		return nil
	}
	if !l.p.Shares(other.p) {
		return ErrForeignPolicy
	}
	l.Clear()
	return l.Splice(l.End(), other)
}

// Release erases every element and frees the sentinel storage. The list must
// not be used afterwards.
func (l *List[T, L]) Release() {
	l.Clear()
	l.p.Release()
}

// Values iterates over copies of the elements from front to back.
func (l *List[T, L]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		s := l.p.Sentinel()
		for n := l.p.Next(s); n != s; n = l.p.Next(n) {
			if !yield(*l.p.Value(n)) {
				return
			}
		}
	}
}

// Backward iterates over copies of the elements from back to front.
func (l *List[T, L]) Backward() iter.Seq[T] {
	return func(yield func(T) bool) {
		s := l.p.Sentinel()
		for n := l.p.Prev(s); n != s; n = l.p.Prev(n) {
			if !yield(*l.p.Value(n)) {
				return
			}
		}
	}
}
