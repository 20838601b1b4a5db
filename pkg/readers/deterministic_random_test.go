package readers

import (
	"testing"

	"gotest.tools/assert"
)

func TestDeterministicInts_Repeatability(t *testing.T) {
	a := NewDeterministicInts(42)
	b := NewDeterministicInts(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000), "draw %d", i)
	}
}

func TestDeterministicInts_Range(t *testing.T) {
	d := NewDeterministicInts(12345)
	seen := make(map[int]bool)
	for i := 0; i < 256; i++ {
		v := d.Intn(4)
		assert.Assert(t, v >= 0 && v < 4, "got %d", v)
		seen[v] = true
	}
	assert.Equal(t, 4, len(seen))
}

func TestDeterministicRandomReader_ChunkIndependence(t *testing.T) {
	whole := make([]byte, 40)
	_, err := DeterministicRandomReader(7).Read(whole)
	assert.NilError(t, err)

	r := DeterministicRandomReader(7)
	parts := make([]byte, 40)
	for _, span := range [][2]int{{0, 16}, {16, 32}, {32, 40}} {
		_, err := r.Read(parts[span[0]:span[1]])
		assert.NilError(t, err)
	}
	assert.DeepEqual(t, whole, parts)
}
