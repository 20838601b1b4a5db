package list

import (
	"github.com/pkg/errors"
)

var (
	// ErrOutOfMemory is wrapped by every error reporting that a policy could
	// not allocate a node.
	ErrOutOfMemory = errors.New("list: out of memory")

	// ErrEraseEnd is returned when erasing the end position.
	ErrEraseEnd = errors.New("list: erase of the end position")

	// ErrForeignIterator is returned when an iterator of another list, or the
	// zero Iterator, is passed to a list operation.
	ErrForeignIterator = errors.New("list: iterator does not belong to this list")

	// ErrInvalidRange is returned when last is not reachable from first.
	ErrInvalidRange = errors.New("list: invalid range")

	// ErrInvalidSize is returned for negative counts and sizes.
	ErrInvalidSize = errors.New("list: invalid size")

	// ErrForeignPolicy is returned when nodes would move between lists whose
	// policies do not share node storage.
	ErrForeignPolicy = errors.New("list: lists do not share node storage")

	// ErrCorrupt is returned by Verify.
	ErrCorrupt = errors.New("list: corrupt chain")
)

// Policy is the addressing scheme a List expresses its links through, together
// with the storage of its nodes, its sentinel and its element counter. L is
// the position of a node; two positions are the same node iff they are equal.
//
// The List never looks at a position other than through the policy, so a
// policy is free to keep links as machine pointers or as offsets.
type Policy[T any, L comparable] interface {
	// Sentinel returns the position of the value-less node that starts and
	// ends the chain.
	Sentinel() L

	Next(n L) L
	Prev(n L) L
	SetNext(n, next L)
	SetPrev(n, prev L)

	// Value returns the value stored in a node. It must not be called for the
	// sentinel.
	Value(n L) *T

	// Alloc returns an unlinked node holding the zero T. Exhaustion is
	// reported with an error wrapping ErrOutOfMemory.
	Alloc() (L, error)

	// Free releases an unlinked node.
	Free(n L)

	Size() int
	SetSize(size int)

	// Shares reports whether nodes allocated by o may be linked into, and
	// later freed by, this policy.
	Shares(o Policy[T, L]) bool

	// Release frees the sentinel storage. The policy is unusable afterwards.
	Release()
}

// Checker is implemented by policies that can validate a node's links instead
// of trusting them. Verify prefers it over Next and Prev.
type Checker[L comparable] interface {
	Check(n L) (next, prev L, err error)
}
