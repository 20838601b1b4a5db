package main

import (
	"bytes"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/goleak"
	"gotest.tools/assert"
	is "gotest.tools/assert/cmp"

	"hop.computer/relist/agent"
	"hop.computer/relist/flags"
	"hop.computer/relist/pkg/list/raw"
)

type env struct {
	t      *testing.T
	dir    string
	config string
}

func newEnv(t *testing.T, toml string) *env {
	dir := t.TempDir()
	path := filepath.Join(dir, "relist.toml")
	assert.NilError(t, os.WriteFile(path, []byte(toml), 0o644))
	return &env{t: t, dir: dir, config: path}
}

func (e *env) path(name string) string {
	return filepath.Join(e.dir, name)
}

func (e *env) run(args ...string) (string, error) {
	var out bytes.Buffer
	full := append([]string{"relist", "-C", e.config, "-log-level", "error"}, args...)
	err := run(full, &out, io.Discard)
	return out.String(), err
}

func (e *env) must(args ...string) string {
	out, err := e.run(args...)
	assert.NilError(e.t, err, "%v", args)
	return out
}

func TestCommands(t *testing.T) {
	defer goleak.VerifyNone(t)
	e := newEnv(t, "capacity = 4096\n")
	img := e.path("list.img")

	e.must("create", img)
	st, err := os.Stat(img)
	assert.NilError(t, err)
	assert.Equal(t, int64(4096), st.Size())
	assert.Equal(t, "", e.must("dump", img))

	e.must("push", img, "1", "2", "3")
	e.must("pushfront", img, "0", "-1")
	assert.Equal(t, "-1\n0\n1\n2\n3\n", e.must("dump", img))

	e.must("erase", img, "1")
	assert.Equal(t, "-1\n1\n2\n3\n", e.must("dump", img))

	e.must("resize", img, "6", "9")
	assert.Equal(t, "-1\n1\n2\n3\n9\n9\n", e.must("dump", img))
	e.must("resize", img, "2")
	assert.Equal(t, "-1\n1\n", e.must("dump", img))

	out := e.must("verify", img)
	assert.Assert(t, is.Contains(out, "ok: 2 elements"))

	dst := e.path("copy.img")
	e.must("copy", img, dst)
	assert.Equal(t, "-1\n1\n", e.must("dump", dst))
	e.must("push", dst, "5")
	assert.Equal(t, "-1\n1\n5\n", e.must("dump", dst))
	assert.Equal(t, "-1\n1\n", e.must("dump", img))

	e.must("clear", img)
	assert.Equal(t, "", e.must("dump", img))
}

func TestCommandErrors(t *testing.T) {
	defer goleak.VerifyNone(t)
	e := newEnv(t, "[[images]]\npattern = \"*/frozen.img\"\nread_only = true\n")
	img := e.path("list.img")
	e.must("create", img, "-capacity", "256")

	_, err := e.run("create", img)
	assert.ErrorContains(t, err, "already exists")
	_, err = e.run("push", img, "x")
	assert.ErrorContains(t, err, `value "x"`)
	_, err = e.run("erase", img, "0")
	assert.ErrorContains(t, err, "out of range")
	_, err = e.run("erase", img)
	assert.ErrorContains(t, err, "expected 1 to 1 arguments")
	_, err = e.run("dump", e.path("missing.img"))
	assert.Assert(t, err != nil)
	_, err = e.run("frobnicate", img)
	assert.ErrorContains(t, err, "unknown command")

	// 256 bytes hold the list header and eight nodes.
	_, err = e.run("resize", img, "100")
	assert.ErrorContains(t, err, "out of memory")
	assert.Equal(t, "", e.must("dump", img))
	_, err = e.run("push", img, "1", "2", "3", "4", "5", "6", "7", "8", "9")
	assert.ErrorContains(t, err, "push value 9 of 9")
	assert.Equal(t, "", e.must("dump", img))
	e.must("push", img, "1")
	_, err = e.run("pushfront", img, "2", "3", "4", "5", "6", "7", "8", "9")
	assert.ErrorContains(t, err, "out of memory")
	assert.Equal(t, "1\n", e.must("dump", img))

	// read_only guards existing images; creating a new one is allowed.
	frozen := e.path("frozen.img")
	e.must("create", frozen)
	_, err = e.run("push", frozen, "1")
	assert.Assert(t, errors.Is(err, ErrReadOnly))
	assert.Equal(t, "", e.must("dump", frozen))
	_, err = e.run("create", frozen)
	assert.ErrorContains(t, err, "already exists")

	junk := e.path("junk.img")
	assert.NilError(t, os.WriteFile(junk, make([]byte, 4096), 0o644))
	_, err = e.run("verify", junk)
	assert.ErrorContains(t, err, "invalid image")
}

func TestHelp(t *testing.T) {
	var out bytes.Buffer
	assert.NilError(t, run([]string{"relist", "help"}, &out, io.Discard))
	assert.Assert(t, is.Contains(out.String(), "pushfront"))
	assert.Assert(t, is.Contains(out.String(), "usage: relist"))
}

func TestMissingImage(t *testing.T) {
	e := newEnv(t, "")
	_, err := e.run("dump")
	assert.Assert(t, errors.Is(err, flags.ErrMissingImage))

	img := e.path("default.img")
	e = newEnv(t, "image = \""+img+"\"\n")
	e.must("create")
	e.must("push", img, "4")
	assert.Equal(t, "4\n", e.must("dump"))
}

func TestDigest(t *testing.T) {
	e := newEnv(t, "capacity = 4096\n")
	a, b := e.path("a.img"), e.path("b.img")
	e.must("create", a)
	e.must("create", b, "-capacity", "1024")
	e.must("push", a, "1", "2", "3")
	e.must("push", b, "1", "2", "3")

	da := e.must("digest", a)
	assert.Equal(t, 65, len(da))
	assert.Equal(t, da, e.must("digest", b))
	e.must("copy", a, e.path("c.img"))
	assert.Equal(t, da, e.must("digest", e.path("c.img")))
	e.must("pushfront", b, "0")
	assert.Assert(t, da != e.must("digest", b))
}

func TestFetch(t *testing.T) {
	served := newEnv(t, "capacity = 4096\n")
	img := served.path("list.img")
	served.must("create", img)
	served.must("push", img, "10", "20")

	var d agent.Data
	assert.NilError(t, d.Init(served.dir))
	srv := httptest.NewServer(agent.New(&d))
	defer srv.Close()

	e := newEnv(t, "")
	dst := e.path("fetched.img")
	e.must("fetch", dst, srv.URL, "list.img")
	assert.Equal(t, "10\n20\n", e.must("dump", dst))
	assert.Equal(t, served.must("digest", img), e.must("digest", dst))

	_, err := e.run("fetch", e.path("other.img"), srv.URL+"/", "missing.img")
	assert.Assert(t, errors.Is(err, agent.ErrNoImage))
	_, err = os.Stat(e.path("other.img"))
	assert.Assert(t, os.IsNotExist(err))
}

func TestDumpColumns(t *testing.T) {
	l := raw.From[int64](1, -20, 300, 4, 5)
	var b strings.Builder
	assert.NilError(t, dumpColumns(&b, l.Values(), 8))
	assert.Equal(t, "  1 -20\n300   4\n  5\n", b.String())

	b.Reset()
	assert.NilError(t, dumpColumns(&b, raw.New[int64]().Values(), 80))
	assert.Equal(t, "", b.String())
}
