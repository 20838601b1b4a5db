package list

import (
	"github.com/pkg/errors"
)

// Verify walks the chain and checks that it is circular, that every prev link
// points back to the node it was reached from and that the element counter
// matches. Policies implementing Checker additionally validate every link
// before it is followed, so Verify is safe on untrusted storage.
func (l *List[T, L]) Verify() error {
	links := func(n L) (L, L, error) {
		return l.p.Next(n), l.p.Prev(n), nil
	}
	if c, ok := l.p.(Checker[L]); ok {
		links = c.Check
	}

	size := l.p.Size()
	if size < 0 {
		return errors.Wrapf(ErrCorrupt, "negative size %d", size)
	}
	s := l.p.Sentinel()
	n, last, err := links(s)
	if err != nil {
		return errors.Wrapf(ErrCorrupt, "sentinel: %s", err)
	}

	prev, count := s, 0
	for n != s {
		count++
		if count > size {
			return errors.Wrapf(ErrCorrupt, "more than %d elements", size)
		}
		next, back, err := links(n)
		if err != nil {
			return errors.Wrapf(ErrCorrupt, "element %d: %s", count-1, err)
		}
		if back != prev {
			return errors.Wrapf(ErrCorrupt, "element %d: prev link does not point back", count-1)
		}
		prev, n = n, next
	}
	if last != prev {
		return errors.Wrap(ErrCorrupt, "sentinel prev link does not point to the last element")
	}
	if count != size {
		return errors.Wrapf(ErrCorrupt, "size is %d, chain holds %d elements", size, count)
	}
	return nil
}
