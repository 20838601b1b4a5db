package list

import (
	"hop.computer/relist/pkg"
)

// Iterator is a position in a List: one of its elements, or the end. It stays
// valid, and keeps designating the same element, until that element is erased.
//
// The zero Iterator belongs to no list.
type Iterator[T any, L comparable] struct {
	p Policy[T, L]
	n L
}

// Next returns the following position. The position after the last element is
// the end, and the one after the end is the first element.
func (it Iterator[T, L]) Next() Iterator[T, L] {
	return Iterator[T, L]{p: it.p, n: it.p.Next(it.n)}
}

// Prev returns the preceding position.
func (it Iterator[T, L]) Prev() Iterator[T, L] {
	return Iterator[T, L]{p: it.p, n: it.p.Prev(it.n)}
}

// Inc moves it forward and returns the new position.
func (it *Iterator[T, L]) Inc() Iterator[T, L] {
	it.n = it.p.Next(it.n)
	return *it
}

// PostInc moves it forward and returns the position it had before.
func (it *Iterator[T, L]) PostInc() Iterator[T, L] {
	old := *it
	it.n = it.p.Next(it.n)
	return old
}

// Dec moves it backward and returns the new position.
func (it *Iterator[T, L]) Dec() Iterator[T, L] {
	it.n = it.p.Prev(it.n)
	return *it
}

// PostDec moves it backward and returns the position it had before.
func (it *Iterator[T, L]) PostDec() Iterator[T, L] {
	old := *it
	it.n = it.p.Prev(it.n)
	return old
}

// Equal reports whether both iterators designate the same position of the
// same list. Values are not compared.
func (it Iterator[T, L]) Equal(o Iterator[T, L]) bool {
	return it.p == o.p && it.n == o.n
}

// IsEnd reports whether it is the end position.
func (it Iterator[T, L]) IsEnd() bool {
	return it.p != nil && it.n == it.p.Sentinel()
}

// Link returns the policy position it designates.
func (it Iterator[T, L]) Link() L {
	return it.n
}

// Value returns the element at it. Dereferencing the end position, or the zero
// Iterator, panics.
func (it Iterator[T, L]) Value() *T {
	if it.p == nil || it.n == it.p.Sentinel() {
		pkg.Panicf("list: dereference of the end position")
	}
	return it.p.Value(it.n)
}

// Const returns a read-only iterator at the same position.
func (it Iterator[T, L]) Const() ConstIterator[T, L] {
	return ConstIterator[T, L]{it: it}
}

// ConstIterator is an Iterator that only hands out copies of elements.
type ConstIterator[T any, L comparable] struct {
	it Iterator[T, L]
}

func (c ConstIterator[T, L]) Next() ConstIterator[T, L] {
	return ConstIterator[T, L]{it: c.it.Next()}
}

func (c ConstIterator[T, L]) Prev() ConstIterator[T, L] {
	return ConstIterator[T, L]{it: c.it.Prev()}
}

func (c *ConstIterator[T, L]) Inc() ConstIterator[T, L] {
	c.it.Inc()
	return *c
}

func (c *ConstIterator[T, L]) PostInc() ConstIterator[T, L] {
	return ConstIterator[T, L]{it: c.it.PostInc()}
}

func (c *ConstIterator[T, L]) Dec() ConstIterator[T, L] {
	c.it.Dec()
	return *c
}

func (c *ConstIterator[T, L]) PostDec() ConstIterator[T, L] {
	return ConstIterator[T, L]{it: c.it.PostDec()}
}

func (c ConstIterator[T, L]) Equal(o ConstIterator[T, L]) bool {
	return c.it.Equal(o.it)
}

func (c ConstIterator[T, L]) IsEnd() bool {
	return c.it.IsEnd()
}

func (c ConstIterator[T, L]) Link() L {
	return c.it.n
}

// Value returns a copy of the element at c. Like Iterator.Value it panics at
// the end position.
func (c ConstIterator[T, L]) Value() T {
	return *c.it.Value()
}
