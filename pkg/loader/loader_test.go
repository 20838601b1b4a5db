package loader

import (
	"io/fs"
	"strconv"
	"testing"
	"testing/fstest"

	"github.com/pkg/errors"
	"gotest.tools/assert"
)

func TestLoadOrGet(t *testing.T) {
	fsys := fstest.MapFS{
		"n":   &fstest.MapFile{Data: []byte("42")},
		"bad": &fstest.MapFile{Data: []byte("x")},
	}
	calls := 0
	parse := func(b []byte) (int, error) {
		calls++
		return strconv.Atoi(string(b))
	}
	l := New[int](fsys)

	c, created, err := l.LoadOrGet("n", parse)
	assert.NilError(t, err)
	assert.Assert(t, created)
	assert.Equal(t, 42, c.Parsed)
	assert.Equal(t, "42", string(c.Raw))

	fsys["n"].Data = []byte("7")
	c, created, err = l.LoadOrGet("n", parse)
	assert.NilError(t, err)
	assert.Assert(t, !created)
	assert.Equal(t, 42, c.Parsed)
	assert.Equal(t, 1, calls)

	l.Forget("n")
	c, created, err = l.LoadOrGet("n", parse)
	assert.NilError(t, err)
	assert.Assert(t, created)
	assert.Equal(t, 7, c.Parsed)

	_, _, err = l.LoadOrGet("bad", parse)
	assert.ErrorContains(t, err, `error in LoadFn for "bad"`)
	_, _, err = l.LoadOrGet("missing", parse)
	assert.Assert(t, errors.Is(err, fs.ErrNotExist))
}
