package main

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"hop.computer/relist/agent"
	"hop.computer/relist/config"
	"hop.computer/relist/flags"
	"hop.computer/relist/pkg/combinators"
	"hop.computer/relist/pkg/list"
	"hop.computer/relist/pkg/list/offset"
	"hop.computer/relist/pkg/region"
	"hop.computer/relist/pkg/waiter"
)

// ErrReadOnly is returned for commands that would modify an existing image
// configured read_only. create and fetch only write new files, so they are
// allowed.
var ErrReadOnly = errors.New("image is read-only")

type intList = list.List[int64, region.Addr]

type command struct {
	usage string
	image bool // takes an image argument
	fresh bool // writes a new image instead of opening one
	write bool // modifies the image
	run   func(s *session, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"create":    {usage: "<image> [-capacity n]  create an image holding an empty list", image: true, fresh: true, run: create},
		"push":      {usage: "<image> values...  append values", image: true, write: true, run: push},
		"pushfront": {usage: "<image> values...  prepend values, one at a time", image: true, write: true, run: pushFront},
		"erase":     {usage: "<image> index  erase the element at index", image: true, write: true, run: erase},
		"resize":    {usage: "<image> n [fill]  truncate or pad with fill (default 0)", image: true, write: true, run: resize},
		"clear":     {usage: "<image>  erase every element", image: true, write: true, run: clearList},
		"dump":      {usage: "<image>  print the elements, one per line", image: true, run: dump},
		"verify":    {usage: "<image>  check the list and print a summary", image: true, run: verify},
		"copy":      {usage: "<image> <dst>  relocate the image into a new file", image: true, run: copyImage},
		"digest":    {usage: "<image>  print the BLAKE2b-256 digest of the values", image: true, run: digest},
		"serve":     {usage: "<dir> [-listen addr]  serve the images in dir over HTTP", run: serve},
		"fetch":     {usage: "<image> <url> [name]  download an image from relist serve", image: true, fresh: true, run: fetch},
		"help":      {usage: "print this message"},
	}
}

// session is the state of one command run against one image.
type session struct {
	flags    *flags.Flags
	config   *config.Config
	settings config.Settings
	out      io.Writer

	r *region.Region
	l *intList

	// hooks run after a command modified the image.
	hooks waiter.Queue[session]
	err   error
}

func (s *session) do(cmd command) error {
	if cmd.fresh || !cmd.image {
		return cmd.run(s, s.flags.Args)
	}
	if cmd.write && s.settings.ReadOnly {
		return errors.Wrapf(ErrReadOnly, "%s", s.flags.Image)
	}
	if err := s.open(cmd.write); err != nil {
		return err
	}
	defer s.close()

	if err := cmd.run(s, s.flags.Args); err != nil {
		return err
	}
	if cmd.write {
		s.hooks.Notify()
	}
	return s.err
}

func (s *session) open(writable bool) error {
	r, err := region.MapFile(s.flags.Image, writable)
	if err != nil {
		return err
	}
	if r.Root() == region.Nil {
		r.Close()
		return errors.Errorf("%s holds no list", s.flags.Image)
	}
	l, err := offset.Attach[int64](r, r.Root())
	if err != nil {
		r.Close()
		return errors.WithMessagef(err, "%s", s.flags.Image)
	}
	s.r, s.l = r, l

	s.hooks.EventRegister(waiter.NewFunctionEntry(s, func(s *session) {
		if err := s.r.Sync(); err != nil && s.err == nil {
			s.err = err
		}
	}))
	s.hooks.EventRegister(waiter.NewFunctionEntry(s, func(s *session) {
		logrus.WithFields(logrus.Fields{
			"image": s.flags.Image,
			"len":   s.l.Len(),
			"used":  s.r.InUse(),
		}).Debug("image updated")
	}))
	return nil
}

func (s *session) close() {
	if err := s.r.Close(); err != nil {
		logrus.Warnf("closing %s: %s", s.flags.Image, err)
	}
}

func parseValues(args []string) ([]int64, error) {
	vs := make([]int64, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseInt(a, 0, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "value %q", a)
		}
		vs = append(vs, v)
	}
	return vs, nil
}

func parseIndex(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return 0, errors.Errorf("invalid index %q", arg)
	}
	return n, nil
}

func wantArgs(args []string, min, max int) error {
	if len(args) < min || len(args) > max {
		return errors.Errorf("expected %d to %d arguments, got %d", min, max, len(args))
	}
	return nil
}

func create(s *session, args []string) error {
	if err := wantArgs(args, 0, 0); err != nil {
		return err
	}
	if _, err := os.Stat(s.flags.Image); err == nil {
		return errors.Errorf("%s already exists", s.flags.Image)
	}
	capacity := combinators.Or(s.flags.Capacity, s.settings.Capacity)
	r, err := region.Create(s.flags.Image, capacity)
	if err != nil {
		return err
	}
	defer r.Close()
	l, err := offset.New[int64](r)
	if err != nil {
		return err
	}
	r.SetRoot(l.End().Link())
	logrus.Infof("created %s (%d bytes)", s.flags.Image, r.Cap())
	return r.Sync()
}

func push(s *session, args []string) error {
	vs, err := parseValues(args)
	if err != nil {
		return err
	}
	for i, v := range vs {
		if _, err := s.l.PushBack(v); err != nil {
			for range i {
				s.l.PopBack()
			}
			return errors.WithMessagef(err, "push value %d of %d", i+1, len(vs))
		}
	}
	return nil
}

func pushFront(s *session, args []string) error {
	vs, err := parseValues(args)
	if err != nil {
		return err
	}
	for i, v := range vs {
		if _, err := s.l.PushFront(v); err != nil {
			for range i {
				s.l.PopFront()
			}
			return errors.WithMessagef(err, "push value %d of %d", i+1, len(vs))
		}
	}
	return nil
}

func erase(s *session, args []string) error {
	if err := wantArgs(args, 1, 1); err != nil {
		return err
	}
	idx, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	if idx >= s.l.Len() {
		return errors.Errorf("index %d out of range for length %d", idx, s.l.Len())
	}
	it := s.l.Begin()
	for i := 0; i < idx; i++ {
		it.Inc()
	}
	_, err = s.l.Erase(it)
	return err
}

func resize(s *session, args []string) error {
	if err := wantArgs(args, 1, 2); err != nil {
		return err
	}
	n, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	var fill int64
	if len(args) == 2 {
		vs, err := parseValues(args[1:])
		if err != nil {
			return err
		}
		fill = vs[0]
	}
	return s.l.Resize(n, fill)
}

func clearList(s *session, args []string) error {
	if err := wantArgs(args, 0, 0); err != nil {
		return err
	}
	s.l.Clear()
	return nil
}

func dump(s *session, args []string) error {
	if err := wantArgs(args, 0, 0); err != nil {
		return err
	}
	if f, ok := s.out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			return dumpColumns(s.out, s.l.Values(), width)
		}
	}
	for v := range s.l.Values() {
		if _, err := fmt.Fprintln(s.out, v); err != nil {
			return err
		}
	}
	return nil
}

// dumpColumns prints the values in as many right-aligned columns as fit in
// width.
func dumpColumns(w io.Writer, values iter.Seq[int64], width int) error {
	var cells []string
	cell := 1
	for v := range values {
		c := strconv.FormatInt(v, 10)
		cell = max(cell, len(c))
		cells = append(cells, c)
	}
	cols := max(1, width/(cell+1))
	var b strings.Builder
	for i, c := range cells {
		fmt.Fprintf(&b, "%*s", cell, c)
		if (i+1)%cols == 0 || i == len(cells)-1 {
			b.WriteByte('\n')
		} else {
			b.WriteByte(' ')
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func verify(s *session, args []string) error {
	if err := wantArgs(args, 0, 0); err != nil {
		return err
	}
	// Attach already verified the list; check it again through the mapping.
	if err := s.l.Verify(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(s.out, "ok: %d elements, %d of %d bytes in use\n", s.l.Len(), s.r.InUse(), s.r.Cap())
	return err
}

// copyImage relocates the image: it is read into memory, written to dst, and
// the list is attached and verified again from the new file.
func copyImage(s *session, args []string) error {
	if err := wantArgs(args, 1, 1); err != nil {
		return err
	}
	dst := args[0]
	moved, err := region.Open(s.r.Bytes())
	if err != nil {
		return err
	}
	if err := writeImage(moved, dst); err != nil {
		return err
	}
	logrus.Infof("copied %d elements to %s", s.l.Len(), dst)
	return nil
}

// writeImage writes r to a new file at path, then maps the file and verifies
// the list at its root.
func writeImage(r *region.Region, path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.Wrap(err, "write image")
	}
	if _, err := r.WriteTo(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}

	mapped, err := region.MapFile(path, false)
	if err != nil {
		return err
	}
	defer mapped.Close()
	if _, err := offset.Attach[int64](mapped, mapped.Root()); err != nil {
		return errors.WithMessagef(err, "%s", path)
	}
	return nil
}

func digest(s *session, args []string) error {
	if err := wantArgs(args, 0, 0); err != nil {
		return err
	}
	_, err := fmt.Fprintln(s.out, agent.Digest(s.l.Values()))
	return err
}

func serve(s *session, args []string) error {
	if err := wantArgs(args, 1, 1); err != nil {
		return err
	}
	var d agent.Data
	if err := d.Init(args[0]); err != nil {
		return err
	}
	sock, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return errors.Wrapf(err, "unable to open tcp socket %s", s.config.Listen)
	}
	logrus.Infof("listening on %s", sock.Addr().String())
	return http.Serve(sock, agent.New(&d))
}

// fetch downloads an image from relist serve and writes it to a new file. The
// name on the server defaults to the base name of the image.
func fetch(s *session, args []string) error {
	if err := wantArgs(args, 1, 2); err != nil {
		return err
	}
	name := filepath.Base(s.flags.Image)
	if len(args) == 2 {
		name = args[1]
	}
	c := &agent.Client{BaseURL: strings.TrimSuffix(args[0], "/")}
	r, err := c.Fetch(context.Background(), name)
	if err != nil {
		return err
	}
	if err := writeImage(r, s.flags.Image); err != nil {
		return err
	}
	logrus.Infof("fetched %s into %s", name, s.flags.Image)
	return nil
}
