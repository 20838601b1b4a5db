// Package config contains the structures for parsing relist configuration
// files. Configuration is TOML:
//
//	capacity = 65536
//	log_level = "debug"
//	image = "/var/lib/relist/list.img"
//	listen = "localhost:26735"
//
//	[[images]]
//	pattern = "/srv/*.img"
//	capacity = 1048576
//	read_only = true
package config

import (
	"bytes"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"hop.computer/relist/common"
	"hop.computer/relist/pkg/combinators"
	"hop.computer/relist/pkg/glob"
	"hop.computer/relist/pkg/region"
	"hop.computer/relist/pkg/thunks"
)

// EnvConfigPath names the environment variable that overrides the default
// config location.
const EnvConfigPath = "RELIST_CONFIG"

// ErrInvalid is returned for configuration files that parse but do not make
// sense.
var ErrInvalid = errors.New("config: invalid configuration")

// Config represents a parsed relist configuration.
type Config struct {
	// Capacity is the size of newly created images. Zero selects
	// common.DefaultCapacity.
	Capacity int    `toml:"capacity"`
	LogLevel string `toml:"log_level"`

	// Image is used when no image is named on the command line.
	Image string `toml:"image"`

	// Listen is the address relist serve listens on.
	Listen string `toml:"listen"`

	Images []ImageConfig `toml:"images"`
}

// ImageConfig applies to every image whose path matches Pattern.
type ImageConfig struct {
	Pattern  string `toml:"pattern"`
	Capacity int    `toml:"capacity"`
	ReadOnly bool   `toml:"read_only"`
}

// Settings are the effective settings for one image.
type Settings struct {
	Capacity int
	ReadOnly bool
}

// Default returns the configuration used when there is no config file.
func Default() *Config {
	return &Config{
		Capacity: common.DefaultCapacity,
		LogLevel: common.DefaultLogLevel,
		Listen:   common.DefaultListenAddress,
	}
}

// Parse decodes and validates a configuration file. Unknown keys are an
// error, so that typos do not go unnoticed.
func Parse(b []byte) (*Config, error) {
	var c Config
	meta, err := toml.NewDecoder(bytes.NewReader(b)).Decode(&c)
	if err != nil {
		return nil, errors.Wrap(err, "config: parse")
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, errors.Wrapf(ErrInvalid, "unknown keys %s", strings.Join(keys, ", "))
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func validCapacity(c int) bool {
	return c == 0 || (c >= region.MinCapacity && c <= region.MaxCapacity)
}

func (c *Config) validate() error {
	if !validCapacity(c.Capacity) {
		return errors.Wrapf(ErrInvalid, "capacity %d not in [%d, %d]", c.Capacity, region.MinCapacity, region.MaxCapacity)
	}
	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return errors.Wrapf(ErrInvalid, "log_level: %s", err)
		}
	}
	for i, ic := range c.Images {
		if ic.Pattern == "" {
			return errors.Wrapf(ErrInvalid, "images[%d]: missing pattern", i)
		}
		if !validCapacity(ic.Capacity) {
			return errors.Wrapf(ErrInvalid, "images[%d]: capacity %d", i, ic.Capacity)
		}
	}
	return nil
}

// DefaultPath returns the config file used when none is given: $RELIST_CONFIG,
// or config.toml in the user's relist directory. It returns the empty string
// if the home directory cannot be determined.
func DefaultPath() string {
	if p := thunks.Getenv(EnvConfigPath); p != "" {
		return p
	}
	home, err := thunks.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, common.UserConfigDirectory, common.DefaultConfigFile)
}

// LoadFromFile reads and parses the config at path. Results are cached by
// path.
func LoadFromFile(path string) (*Config, error) {
	c, created, err := files.LoadOrGet(path, Parse)
	if err != nil {
		return nil, err
	}
	if created {
		logrus.Debugf("config: loaded %s", path)
	}
	return c.Parsed, nil
}

// Load reads the config at path. If path is empty, the default location is
// used, and a missing file there yields Default.
func Load(path string) (*Config, error) {
	if path != "" {
		return LoadFromFile(path)
	}
	path = DefaultPath()
	if path == "" {
		return Default(), nil
	}
	c, err := LoadFromFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return c, err
}

// For returns the settings for the image at path. The first matching images
// entry applies; its zero fields fall back to the global settings.
func (c *Config) For(path string) Settings {
	s := Settings{
		Capacity: combinators.Or(c.Capacity, common.DefaultCapacity),
	}
	for _, ic := range c.Images {
		if glob.Glob(ic.Pattern, path) {
			s.Capacity = combinators.Or(ic.Capacity, s.Capacity)
			s.ReadOnly = ic.ReadOnly
			break
		}
	}
	return s
}
