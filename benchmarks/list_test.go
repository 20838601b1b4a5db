package benchmarks

import (
	"testing"

	"gotest.tools/assert"

	"hop.computer/relist/pkg/list"
	"hop.computer/relist/pkg/list/offset"
	"hop.computer/relist/pkg/list/raw"
	"hop.computer/relist/pkg/must"
	"hop.computer/relist/pkg/region"
)

const batch = 1024

func measurePushPop[L comparable](b *testing.B, l *list.List[int64, L]) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := 0; j < batch; j++ {
			_, err := l.PushBack(int64(j))
			assert.NilError(b, err)
		}
		for j := 0; j < batch; j++ {
			l.PopFront()
		}
	}
	b.ReportMetric(float64(b.N*batch)/b.Elapsed().Seconds(), "elems/sec")
}

func BenchmarkRawPushPop(b *testing.B) {
	measurePushPop(b, raw.New[int64]())
}

func BenchmarkOffsetPushPop(b *testing.B) {
	r := must.Do(region.New(region.HeaderSize + 24*(batch+1)))
	measurePushPop(b, must.Do(offset.New[int64](r)))
}

func measureTraversal[L comparable](b *testing.B, l *list.List[int64, L]) {
	assert.NilError(b, l.Resize(batch, 1))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var sum int64
		for v := range l.Values() {
			sum += v
		}
		assert.Equal(b, int64(batch), sum)
	}
	b.ReportMetric(float64(b.N*batch)/b.Elapsed().Seconds(), "elems/sec")
}

func BenchmarkRawTraversal(b *testing.B) {
	measureTraversal(b, raw.New[int64]())
}

func BenchmarkOffsetTraversal(b *testing.B) {
	r := must.Do(region.New(region.HeaderSize + 24*(batch+1)))
	measureTraversal(b, must.Do(offset.New[int64](r)))
}

// BenchmarkRelocate measures copying an image to a new address and attaching
// the list there, verification included.
func BenchmarkRelocate(b *testing.B) {
	r := must.Do(region.New(region.HeaderSize + 24*(batch+1)))
	l := must.Do(offset.New[int64](r))
	assert.NilError(b, l.Resize(batch, 7))
	r.SetRoot(l.End().Link())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		moved, err := region.Open(r.Bytes())
		assert.NilError(b, err)
		m, err := offset.Attach[int64](moved, moved.Root())
		assert.NilError(b, err)
		assert.Equal(b, batch, m.Len())
	}
	b.ReportMetric(float64(b.N*r.Cap())/b.Elapsed().Seconds(), "bytes/sec")
}
