// Command relist creates, edits and inspects list images: files holding a
// relocatable region with one list of int64 values, rooted at the region root.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"hop.computer/relist/flags"
)

func main() {
	if err := run(os.Args, os.Stdout, os.Stderr); err != nil {
		logrus.Fatalf("relist: %s", err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	f, err := flags.ParseArgs(args, stderr, takesImage())
	if err != nil {
		fmt.Fprint(stderr, usage())
		return err
	}
	if f.Command == "help" {
		_, err := fmt.Fprint(stdout, usage())
		return err
	}
	cmd := commands[f.Command]

	c, err := flags.LoadConfigFromFlags(f)
	if err != nil {
		return err
	}
	if err := setUpLogging(c.LogLevel, stderr); err != nil {
		return err
	}
	if cmd.image && f.Image == "" {
		return flags.ErrMissingImage
	}
	logrus.WithFields(logrus.Fields{"command": f.Command, "image": f.Image}).Debug("running")

	s := &session{flags: f, config: c, settings: c.For(f.Image), out: stdout}
	return s.do(cmd)
}

func setUpLogging(level string, out io.Writer) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(out)
	color := false
	if file, ok := out.(*os.File); ok {
		color = isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
	}
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:   color,
		DisableColors: !color,
	})
	return nil
}

func takesImage() map[string]bool {
	m := make(map[string]bool, len(commands))
	for name, c := range commands {
		m[name] = c.image
	}
	return m
}

func usage() string {
	var b strings.Builder
	b.WriteString("usage: relist [-C config] [-v] [-log-level level] <command> <image> [args]\n\ncommands:\n")
	names := maps.Keys(commands)
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(&b, "  %-10s %s\n", name, commands[name].usage)
	}
	return b.String()
}
