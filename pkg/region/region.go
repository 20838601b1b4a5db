// Package region implements a fixed-capacity, relocatable memory region.
//
// A Region is one contiguous byte image that carries its own allocator state.
// Everything stored in it is addressed by Addr, an offset from the start of the
// image, so an image can be copied, written to a file, sent over the wire or
// memory-mapped at any base address and still be interpreted the same way.
//
// Image layout (little-endian):
//
//	+0   magic     u32
//	+4   version   u16
//	+6   reserved  u16
//	+8   capacity  u32   total image length
//	+12  top       u32   first never-allocated byte
//	+16  free      u32   first block of the address-sorted free list
//	+20  root      u32   user root address
//	+24  used      u32   bytes held by live blocks, headers included
//	+28  reserved  u32
//
// Blocks start on 8-byte boundaries and begin with an 8 byte header: the block
// size and either the next free block or the in-use marker.
package region

import (
	"encoding/binary"
	"io"
	"math"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"hop.computer/relist/pkg"
)

// Addr is the offset of a block payload from the start of a region. The zero
// Addr is nil.
type Addr uint32

// Nil never designates a block.
const Nil Addr = 0

const (
	magic   uint32 = 0x5453494c // "LIST"
	version uint16 = 1

	// HeaderSize is the size of the region header at the start of every image.
	HeaderSize = 32

	// MaxCapacity bounds images so every self-relative link fits in an int32.
	MaxCapacity = math.MaxInt32 &^ 7

	// MinCapacity holds the header and one minimal block.
	MinCapacity = HeaderSize + minBlock
)

const (
	offMagic    = 0
	offVersion  = 4
	offCapacity = 8
	offTop      = 12
	offFree     = 16
	offRoot     = 20
	offUsed     = 24
)

var (
	// ErrNoSpace is returned when an allocation does not fit in the region.
	ErrNoSpace = errors.New("region: out of space")

	// ErrBadImage is returned when bytes do not hold a valid region image.
	ErrBadImage = errors.New("region: invalid image")

	// ErrBadAddr is returned when an address or a stored link does not
	// designate an allocated block of the region.
	ErrBadAddr = errors.New("region: address out of bounds")

	// ErrBadCapacity is returned by New for capacities outside
	// [MinCapacity, MaxCapacity].
	ErrBadCapacity = errors.New("region: invalid capacity")
)

// Region is a relocatable memory image. It is not safe for concurrent use.
type Region struct {
	buf      []byte
	mapped   bool
	readonly bool
}

func align8(n uint64) uint64 {
	return (n + 7) &^ 7
}

// alignedBytes returns n zeroed bytes starting on an 8-byte boundary, so that
// values placed at 8-aligned addresses are aligned in memory as well.
func alignedBytes(n int) []byte {
	words := make([]uint64, n/8)
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(words))), n)
}

// New creates an empty region of the given capacity, rounded up to a multiple
// of eight bytes.
func New(capacity int) (*Region, error) {
	if capacity < MinCapacity || capacity > MaxCapacity {
		return nil, errors.Wrapf(ErrBadCapacity, "%d not in [%d, %d]", capacity, MinCapacity, MaxCapacity)
	}
	c := int(align8(uint64(capacity)))
	r := &Region{buf: alignedBytes(c)}
	r.put(offMagic, magic)
	binary.LittleEndian.PutUint16(r.buf[offVersion:], version)
	r.put(offCapacity, uint32(c))
	r.put(offTop, HeaderSize)
	return r, nil
}

// Open validates b as a region image and copies it into freshly aligned
// storage. The returned region is independent of b.
func Open(b []byte) (*Region, error) {
	if err := validate(b); err != nil {
		logrus.WithField("len", len(b)).Warnf("rejected region image: %s", err)
		return nil, err
	}
	r := &Region{buf: alignedBytes(len(b))}
	copy(r.buf, b)
	return r, nil
}

// Read reads a whole image from rd and opens it.
func Read(rd io.Reader) (*Region, error) {
	b, err := io.ReadAll(rd)
	if err != nil {
		return nil, errors.Wrap(err, "region: read image")
	}
	return Open(b)
}

// WriteTo writes the image to w. It implements io.WriterTo.
func (r *Region) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.buf)
	return int64(n), err
}

var _ io.WriterTo = &Region{}

// Bytes returns the live image. Writes through the slice bypass the allocator.
func (r *Region) Bytes() []byte {
	return r.buf
}

// Clone copies the region into new heap storage at a different base address.
func (r *Region) Clone() *Region {
	c := &Region{buf: alignedBytes(len(r.buf))}
	copy(c.buf, r.buf)
	return c
}

// Cap returns the image length.
func (r *Region) Cap() int {
	return len(r.buf)
}

// InUse returns the number of bytes held by live blocks, headers included.
func (r *Region) InUse() int {
	return int(r.u32(offUsed))
}

// Root returns the user root address stored in the header.
func (r *Region) Root() Addr {
	return Addr(r.u32(offRoot))
}

// SetRoot stores a in the header. Nil clears the root.
func (r *Region) SetRoot(a Addr) {
	if a != Nil && !r.Live(a) {
		pkg.Panicf("region: root %#x is not a live block", a)
	}
	r.put(offRoot, uint32(a))
}

// Uint32 reads the little-endian word at a.
func (r *Region) Uint32(a Addr) uint32 {
	r.check(a, 4)
	return r.u32(uint32(a))
}

// PutUint32 writes v as a little-endian word at a.
func (r *Region) PutUint32(a Addr, v uint32) {
	r.check(a, 4)
	r.put(uint32(a), v)
}

// Pointer returns the memory backing the n bytes at a. The pointer is only
// valid while the region is neither closed nor garbage collected.
func (r *Region) Pointer(a Addr, n int) unsafe.Pointer {
	r.check(a, n)
	return unsafe.Pointer(&r.buf[a])
}

func (r *Region) check(a Addr, n int) {
	if n < 0 || uint64(a)+uint64(n) > uint64(len(r.buf)) || a < HeaderSize {
		pkg.Panicf("region: access of %d bytes at %#x outside of image [%#x, %#x)", n, a, HeaderSize, len(r.buf))
	}
}

func (r *Region) u32(off uint32) uint32 {
	return binary.LittleEndian.Uint32(r.buf[off:])
}

func (r *Region) put(off uint32, v uint32) {
	if r.readonly {
		pkg.Panicf("region: write at %#x to a read-only mapping", off)
	}
	binary.LittleEndian.PutUint32(r.buf[off:], v)
}

func validate(b []byte) error {
	if len(b) < MinCapacity || len(b) > MaxCapacity || len(b)%8 != 0 {
		return errors.Wrapf(ErrBadImage, "length %d", len(b))
	}
	le := binary.LittleEndian
	if m := le.Uint32(b[offMagic:]); m != magic {
		return errors.Wrapf(ErrBadImage, "magic %#x", m)
	}
	if v := le.Uint16(b[offVersion:]); v != version {
		return errors.Wrapf(ErrBadImage, "version %d", v)
	}
	if c := le.Uint32(b[offCapacity:]); int(c) != len(b) {
		return errors.Wrapf(ErrBadImage, "capacity %d does not match length %d", c, len(b))
	}
	top := le.Uint32(b[offTop:])
	if top < HeaderSize || int(top) > len(b) || top%8 != 0 {
		return errors.Wrapf(ErrBadImage, "top %#x", top)
	}
	if used := le.Uint32(b[offUsed:]); used > top-HeaderSize {
		return errors.Wrapf(ErrBadImage, "used %d exceeds allocated area", used)
	}
	if root := le.Uint32(b[offRoot:]); root != 0 && (root < HeaderSize+blockHeader || root >= top || root%8 != 0) {
		return errors.Wrapf(ErrBadImage, "root %#x", root)
	}

	// The free list is address-sorted, so a strictly increasing walk also
	// proves it terminates.
	var last uint32
	for h := le.Uint32(b[offFree:]); h != 0; h = le.Uint32(b[h+4:]) {
		if h <= last || h < HeaderSize || h%8 != 0 || uint64(h)+minBlock > uint64(top) {
			return errors.Wrapf(ErrBadImage, "free block %#x", h)
		}
		size := le.Uint32(b[h:])
		if size < minBlock || size%8 != 0 || uint64(h)+uint64(size) > uint64(top) {
			return errors.Wrapf(ErrBadImage, "free block %#x has size %d", h, size)
		}
		last = h
	}
	return nil
}
