// Package readers provides deterministic pseudo-random streams for tests.
package readers

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"io"

	"hop.computer/relist/pkg"
	"hop.computer/relist/pkg/must"
)

var iv = [aes.BlockSize]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
var mask = [aes.BlockSize]byte{0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77}

type ctrReader struct {
	stream cipher.Stream
}

// Read implements io.Reader. It will return a deterministic byte sequence based
// on the seed and the total number of bytes read. The number of calls does not
// matter. It cannot fail.
func (c *ctrReader) Read(p []byte) (n int, err error) {
	for i := 0; i < len(p); i += len(mask) {
		chunk := p[i:]
		c.stream.XORKeyStream(chunk, mask[0:min(len(chunk), len(mask))])
	}
	return len(p), nil
}

var _ io.Reader = &ctrReader{}

// DeterministicRandomReader returns a "random" reader based on the seed
// provided, using AES in CTR mode. The key is based on the seed. The IV is
// static.
func DeterministicRandomReader(seed uint64) io.Reader {
	key := [16]byte{}
	binary.LittleEndian.PutUint64(key[:], seed)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		pkg.Panicf("unable to create new aes: %s", err)
	}
	return &ctrReader{
		stream: cipher.NewCTR(block, iv[:]),
	}
}

// Ints draws integers from a deterministic stream. Two Ints with the same seed
// produce the same sequence.
type Ints struct {
	r io.Reader
}

func NewDeterministicInts(seed uint64) *Ints {
	return &Ints{r: DeterministicRandomReader(seed)}
}

// Intn returns an integer in [0, n). It panics if n is not positive.
func (d *Ints) Intn(n int) int {
	if n <= 0 {
		pkg.Panicf("Intn called with %d", n)
	}
	var buf [8]byte
	_ = must.Do(d.r.Read(buf[:]))
	return int(binary.LittleEndian.Uint64(buf[:]) % uint64(n))
}
