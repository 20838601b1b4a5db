// Package offset instantiates list.List inside a region.Region. Every link is
// stored as the distance from the link field to its target, and the sentinel
// and element counter live in a list header inside the region as well. A list
// therefore survives any relocation of its region: copying the image, writing
// and reading it back, or mapping it at another address.
//
// Node layout: next int32, prev int32, then the element. The list header is
// next int32, prev int32, size uint32 and four bytes of padding.
//
// Elements are stored in native byte order and must not contain pointers.
package offset

import (
	"reflect"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"hop.computer/relist/pkg"
	"hop.computer/relist/pkg/list"
	"hop.computer/relist/pkg/region"
)

const (
	nextField   = 0
	prevField   = 4
	sizeField   = 8
	headerSize  = 16
	valueOffset = 8
)

// ErrUnsupportedType is returned for element types that hold pointers, or that
// cannot be aligned inside a region.
var ErrUnsupportedType = errors.New("offset: unsupported element type")

// Policy implements list.Policy with region addresses as positions.
type Policy[T any] struct {
	r         *region.Region
	head      region.Addr
	valueSize int
	nodeSize  int
}

var _ list.Policy[int64, region.Addr] = &Policy[int64]{}
var _ list.Checker[region.Addr] = &Policy[int64]{}

// Region returns the region holding the list.
func (p *Policy[T]) Region() *region.Region {
	return p.r
}

func (p *Policy[T]) Sentinel() region.Addr {
	return p.head
}

func (p *Policy[T]) load(field region.Addr) region.Addr {
	a, err := p.r.LoadRel(field)
	if err != nil {
		pkg.Panicf("offset: %s", err)
	}
	return a
}

func (p *Policy[T]) Next(n region.Addr) region.Addr {
	return p.load(n + nextField)
}

func (p *Policy[T]) Prev(n region.Addr) region.Addr {
	return p.load(n + prevField)
}

func (p *Policy[T]) SetNext(n, next region.Addr) {
	p.r.StoreRel(n+nextField, next)
}

func (p *Policy[T]) SetPrev(n, prev region.Addr) {
	p.r.StoreRel(n+prevField, prev)
}

func (p *Policy[T]) Value(n region.Addr) *T {
	return (*T)(p.r.Pointer(n+valueOffset, p.valueSize))
}

func (p *Policy[T]) Alloc() (region.Addr, error) {
	a, err := p.r.Alloc(p.nodeSize)
	if err != nil {
		return region.Nil, errors.Wrap(list.ErrOutOfMemory, err.Error())
	}
	return a, nil
}

func (p *Policy[T]) Free(n region.Addr) {
	p.r.Free(n)
}

func (p *Policy[T]) Size() int {
	return int(p.r.Uint32(p.head + sizeField))
}

func (p *Policy[T]) SetSize(size int) {
	p.r.PutUint32(p.head+sizeField, uint32(size))
}

// Shares reports whether o is an offset policy over the same region.
func (p *Policy[T]) Shares(o list.Policy[T, region.Addr]) bool {
	q, ok := o.(*Policy[T])
	return ok && q.r == p.r
}

// Release frees the list header. If the header was the region root, the root
// is cleared.
func (p *Policy[T]) Release() {
	if p.r.Root() == p.head {
		p.r.SetRoot(region.Nil)
	}
	p.r.Free(p.head)
}

// Check validates that n is a live block large enough for its role and that
// both of its links resolve inside the region.
func (p *Policy[T]) Check(n region.Addr) (next, prev region.Addr, err error) {
	want := p.nodeSize
	if n == p.head {
		want = headerSize
	}
	if !p.r.Live(n) {
		return region.Nil, region.Nil, errors.Wrapf(region.ErrBadAddr, "%#x is not a live block", n)
	}
	if p.r.Size(n) < want {
		return region.Nil, region.Nil, errors.Wrapf(region.ErrBadAddr, "block %#x holds %d bytes, need %d", n, p.r.Size(n), want)
	}
	if next, err = p.r.LoadRel(n + nextField); err != nil {
		return region.Nil, region.Nil, err
	}
	if prev, err = p.r.LoadRel(n + prevField); err != nil {
		return region.Nil, region.Nil, err
	}
	return next, prev, nil
}

func pointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return t.Len() == 0 || pointerFree(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !pointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	}
	// Pointers, strings, slices, maps, interfaces, channels and functions
	// would point outside the region. Uintptr would hide an absolute address.
	return false
}

func newPolicy[T any](r *region.Region, head region.Addr) (*Policy[T], error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if !pointerFree(t) {
		return nil, errors.Wrapf(ErrUnsupportedType, "%s holds pointers", t)
	}
	if t.Align() > 8 || uint64(t.Size()) > region.MaxCapacity {
		return nil, errors.Wrapf(ErrUnsupportedType, "%s has size %d and alignment %d", t, t.Size(), t.Align())
	}
	size := int(t.Size())
	return &Policy[T]{
		r:         r,
		head:      head,
		valueSize: size,
		nodeSize:  valueOffset + max(size, 1),
	}, nil
}

// New allocates an empty list in r.
func New[T any](r *region.Region) (*list.List[T, region.Addr], error) {
	p, err := newPolicy[T](r, region.Nil)
	if err != nil {
		return nil, err
	}
	head, err := r.Alloc(headerSize)
	if err != nil {
		return nil, errors.Wrap(list.ErrOutOfMemory, err.Error())
	}
	p.head = head
	r.StoreRel(head+nextField, head)
	r.StoreRel(head+prevField, head)
	return list.New[T, region.Addr](p), nil
}

// Attach returns the list whose header is at head, typically in a region that
// was just opened or mapped. The whole chain is verified first.
func Attach[T any](r *region.Region, head region.Addr) (*list.List[T, region.Addr], error) {
	p, err := newPolicy[T](r, head)
	if err != nil {
		return nil, err
	}
	if !r.Live(head) || r.Size(head) < headerSize {
		return nil, errors.Wrapf(list.ErrCorrupt, "no list header at %#x", head)
	}
	if p.Size() > r.Cap()/p.nodeSize {
		return nil, errors.Wrapf(list.ErrCorrupt, "size %d cannot fit in %d bytes", p.Size(), r.Cap())
	}
	l := list.New[T, region.Addr](p)
	if err := l.Verify(); err != nil {
		logrus.WithField("head", head).Warnf("offset: rejected list: %s", err)
		return nil, err
	}
	return l, nil
}

// From allocates a list in r holding vs in order. On failure nothing stays
// allocated.
func From[T any](r *region.Region, vs ...T) (*list.List[T, region.Addr], error) {
	l, err := New[T](r)
	if err != nil {
		return nil, err
	}
	for _, v := range vs {
		if _, err := l.PushBack(v); err != nil {
			l.Release()
			return nil, err
		}
	}
	return l, nil
}

// Clone allocates a deep copy of src in r. src may live anywhere, including in
// r itself or on the heap.
func Clone[T any, M comparable](r *region.Region, src *list.List[T, M]) (*list.List[T, region.Addr], error) {
	l, err := New[T](r)
	if err != nil {
		return nil, err
	}
	if err := list.Copy(l, src); err != nil {
		l.Release()
		return nil, err
	}
	return l, nil
}
