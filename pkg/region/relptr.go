package region

import (
	"github.com/pkg/errors"
)

// StoreRel stores at field a link to target, encoded as the signed distance
// from field to target. The encoding does not depend on where the image lives
// in memory, which is what keeps linked structures valid after relocation.
func (r *Region) StoreRel(field, target Addr) {
	r.check(field, 4)
	r.put(uint32(field), uint32(int32(int64(target)-int64(field))))
}

// LoadRel resolves the link stored at field. Targets outside the allocated
// area of the region, or not 8-aligned, are rejected with ErrBadAddr.
func (r *Region) LoadRel(field Addr) (Addr, error) {
	r.check(field, 4)
	t := int64(field) + int64(int32(r.u32(uint32(field))))
	if t < HeaderSize+blockHeader || t >= int64(r.u32(offTop)) || t%8 != 0 {
		return Nil, errors.Wrapf(ErrBadAddr, "link at %#x resolves to %#x", field, t)
	}
	return Addr(t), nil
}
