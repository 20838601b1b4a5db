//go:build unix

package region

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/goleak"
	"gotest.tools/assert"
	is "gotest.tools/assert/cmp"

	"hop.computer/relist/pkg/must"
)

func TestMappedImage(t *testing.T) {
	defer goleak.VerifyNone(t)
	path := filepath.Join(t.TempDir(), "image")

	r, err := Create(path, 1024)
	assert.NilError(t, err)
	a := must.Do(r.Alloc(16))
	r.PutUint32(a, 0xdeadbeef)
	r.SetRoot(a)
	assert.NilError(t, r.Sync())
	assert.NilError(t, r.Close())
	assert.NilError(t, r.Close())

	b, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Equal(t, 1024, len(b))
	opened := must.Do(Open(b))
	assert.Equal(t, a, opened.Root())
	assert.Equal(t, uint32(0xdeadbeef), opened.Uint32(a))

	ro, err := MapFile(path, false)
	assert.NilError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), ro.Uint32(ro.Root()))
	assert.Assert(t, is.Panics(func() { ro.PutUint32(a, 1) }))
	assert.Assert(t, is.Panics(func() { ro.Alloc(8) }))
	assert.NilError(t, ro.Sync())
	assert.NilError(t, ro.Close())
}

func TestMapFileRejects(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()

	_, err := MapFile(filepath.Join(dir, "missing"), false)
	assert.Assert(t, os.IsNotExist(errors.Cause(err)))

	short := filepath.Join(dir, "short")
	assert.NilError(t, os.WriteFile(short, []byte("LIST"), 0o644))
	_, err = MapFile(short, false)
	assert.Assert(t, errors.Is(err, ErrBadImage))

	garbage := filepath.Join(dir, "garbage")
	assert.NilError(t, os.WriteFile(garbage, make([]byte, 4096), 0o644))
	_, err = MapFile(garbage, true)
	assert.Assert(t, errors.Is(err, ErrBadImage))

	_, err = Create(filepath.Join(dir, "tiny"), 8)
	assert.Assert(t, errors.Is(err, ErrBadCapacity))
}
