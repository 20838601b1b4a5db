// Package flags provides support for relist CLI args
package flags

import (
	"flag"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"hop.computer/relist/config"
	"hop.computer/relist/pkg/combinators"
)

// ErrMissingCommand is returned when no command is given.
var ErrMissingCommand = errors.New("missing <command>")

// ErrMissingImage is returned when neither the command line nor the config
// names an image for a command that needs one.
var ErrMissingImage = errors.New("missing <image>")

// Flags holds CLI arguments for relist.
type Flags struct {
	ConfigPath string
	Verbose    bool   // shorthand for -log-level debug
	LogLevel   string // overrides log_level from the config
	Capacity   int    // create only
	Listen     string // serve only

	Command string
	Image   string
	Args    []string // arguments following the image
}

// defineFlags calls fs.StringVar and friends for the global flags.
func defineFlags(fs *flag.FlagSet, f *Flags) {
	fs.StringVar(&f.ConfigPath, "C", "", "path to config (uses $RELIST_CONFIG or ~/.relist/config.toml when unspecified)")
	fs.BoolVar(&f.Verbose, "v", false, "log debug messages")
	fs.StringVar(&f.LogLevel, "log-level", "", "log level (panic, fatal, error, warn, info, debug, trace)")
}

// ParseArgs defines and parses the flags from the command line. args[0] is the
// program name. commands maps every known command to whether it takes an
// image. The image is the first argument after the command, and may only be
// omitted, leaving Image empty, when nothing but flags follows. create
// additionally accepts -capacity after the image, and serve accepts -listen.
func ParseArgs(args []string, output io.Writer, commands map[string]bool) (*Flags, error) {
	f := new(Flags)
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(output)
	defineFlags(fs, f)

	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}
	if fs.NArg() < 1 {
		return nil, ErrMissingCommand
	}
	f.Command = fs.Arg(0)
	takesImage, ok := commands[f.Command]
	if !ok {
		return nil, fmt.Errorf("unknown command %q", f.Command)
	}
	rest := fs.Args()[1:]
	if takesImage && len(rest) > 0 && !isFlag(rest[0]) {
		f.Image, rest = rest[0], rest[1:]
	}

	switch f.Command {
	case "create":
		cfs := flag.NewFlagSet("create", flag.ContinueOnError)
		cfs.SetOutput(output)
		cfs.IntVar(&f.Capacity, "capacity", 0, "image size in bytes")
		if err := cfs.Parse(rest); err != nil {
			return nil, err
		}
		rest = cfs.Args()
	case "serve":
		sfs := flag.NewFlagSet("serve", flag.ContinueOnError)
		sfs.SetOutput(output)
		sfs.StringVar(&f.Listen, "listen", "", "address to listen on")
		if err := sfs.Parse(rest); err != nil {
			return nil, err
		}
		rest = sfs.Args()
	}
	f.Args = rest
	return f, nil
}

func isFlag(s string) bool {
	return len(s) > 1 && s[0] == '-'
}

// Merge applies the command-line overrides in f to c, and fills f.Image from
// the config when it was not given.
func Merge(f *Flags, c *config.Config) {
	level := f.LogLevel
	if f.Verbose {
		level = combinators.Or(level, "debug")
	}
	c.LogLevel = combinators.First(level, c.LogLevel, config.Default().LogLevel)
	c.Listen = combinators.First(f.Listen, c.Listen, config.Default().Listen)
	f.Image = combinators.Or(f.Image, c.Image)
}

// LoadConfigFromFlags follows the config path provided in flags (or the
// default) and merges the flags over it.
func LoadConfigFromFlags(f *Flags) (*config.Config, error) {
	c, err := config.Load(f.ConfigPath)
	if err != nil {
		return nil, errors.WithMessage(err, "unable to load config")
	}
	merged := *c
	Merge(f, &merged)
	return &merged, nil
}
