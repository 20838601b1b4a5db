package agent

import (
	"encoding/binary"
	"encoding/hex"
	"iter"

	"golang.org/x/crypto/blake2b"
)

// Digest returns the hex BLAKE2b-256 hash of the values, each encoded as eight
// little-endian bytes. It depends only on the values and their order, so an
// image and any relocated copy of it have the same digest.
func Digest(values iter.Seq[int64]) string {
	h, _ := blake2b.New256(nil)
	var b [8]byte
	for v := range values {
		binary.LittleEndian.PutUint64(b[:], uint64(v))
		h.Write(b[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
