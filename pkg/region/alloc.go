package region

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"hop.computer/relist/pkg"
)

const (
	blockHeader = 8
	minBlock    = 16

	// inUse replaces the free-list link of allocated blocks. Free-list links
	// are always smaller than the capacity, so the marker is unambiguous.
	inUse = ^uint32(0)
)

// Alloc reserves n zeroed bytes and returns their 8-aligned address. Blocks
// are taken first-fit from the free list and split when the remainder can hold
// a block of its own; otherwise the region grows into its unused tail.
func (r *Region) Alloc(n int) (Addr, error) {
	if n < 0 || n > MaxCapacity {
		return Nil, errors.Errorf("region: invalid allocation size %d", n)
	}
	need := uint32(align8(uint64(n))) + blockHeader
	if need < minBlock {
		need = minBlock
	}

	field := uint32(offFree)
	for h := r.u32(field); h != 0; h = r.u32(field) {
		size := r.u32(h)
		if size < need {
			field = h + 4
			continue
		}
		if size-need >= minBlock {
			rest := h + need
			r.put(rest, size-need)
			r.put(rest+4, r.u32(h+4))
			r.put(field, rest)
			size = need
		} else {
			r.put(field, r.u32(h+4))
		}
		return r.take(h, size), nil
	}

	top := r.u32(offTop)
	if uint64(top)+uint64(need) > uint64(len(r.buf)) {
		logrus.Debugf("region: allocation of %d bytes failed, %d of %d bytes in use", n, r.InUse(), len(r.buf))
		return Nil, errors.Wrapf(ErrNoSpace, "%d bytes requested, %d available", n, r.Available())
	}
	r.put(offTop, top+need)
	return r.take(top, need), nil
}

func (r *Region) take(h, size uint32) Addr {
	r.put(h, size)
	r.put(h+4, inUse)
	clear(r.buf[h+blockHeader : h+size])
	r.put(offUsed, r.u32(offUsed)+size)
	return Addr(h + blockHeader)
}

// Free returns the block at a to the region. Neighbouring free blocks are
// merged, and a block that ends at the top of the allocated area shrinks it.
// Freeing anything but a live block panics.
func (r *Region) Free(a Addr) {
	if !r.Live(a) {
		pkg.Panicf("region: free of %#x, which is not a live block", a)
	}
	h := uint32(a) - blockHeader
	size := r.u32(h)
	r.put(offUsed, r.u32(offUsed)-size)

	var prev uint32
	pfield, field := uint32(offFree), uint32(offFree)
	next := r.u32(field)
	for next != 0 && next < h {
		prev, pfield = next, field
		field = next + 4
		next = r.u32(field)
	}

	if next != 0 && h+size == next {
		size += r.u32(next)
		next = r.u32(next + 4)
	}
	if prev != 0 && prev+r.u32(prev) == h {
		h, size, field = prev, r.u32(prev)+size, pfield
	}

	if h+size == r.u32(offTop) {
		r.put(field, next)
		r.put(offTop, h)
		return
	}
	r.put(h, size)
	r.put(h+4, next)
	r.put(field, h)
}

// Live reports whether a is the address of an allocated block.
func (r *Region) Live(a Addr) bool {
	if a < HeaderSize+blockHeader || a%8 != 0 || uint32(a) >= r.u32(offTop) {
		return false
	}
	h := uint32(a) - blockHeader
	size := r.u32(h)
	return r.u32(h+4) == inUse && size >= minBlock && size%8 == 0 && uint64(h)+uint64(size) <= uint64(r.u32(offTop))
}

// Size returns the usable size of the live block at a.
func (r *Region) Size(a Addr) int {
	if !r.Live(a) {
		pkg.Panicf("region: size of %#x, which is not a live block", a)
	}
	return int(r.u32(uint32(a)-blockHeader)) - blockHeader
}

// Available returns the number of bytes not held by live blocks. A single
// allocation may still fail if the space is fragmented.
func (r *Region) Available() int {
	return len(r.buf) - HeaderSize - r.InUse()
}
