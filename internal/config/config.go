// Package config loads starmap.toml.
//
// A config file holds defaults for the render pipeline, the cache backend and
// the HTTP server. Command-line flags override anything set here.
//
//	[render]
//	layers = 8
//	radius = 2.0
//	width = 1200
//	weight_by = "ships"
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[server]
//	addr = ":8080"
//	read_timeout = "10s"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/starmap/pkg/cache"
	"github.com/matzehuels/starmap/pkg/errors"
	"github.com/matzehuels/starmap/pkg/pipeline"
)

const (
	// FileName is the config file name looked up in the search path.
	FileName = "starmap.toml"

	// EnvVar names an explicit config file.
	EnvVar = "STARMAP_CONFIG"
)

// Config is the decoded contents of starmap.toml.
type Config struct {
	Render RenderConfig `toml:"render"`
	Cache  cache.Config `toml:"cache"`
	Server ServerConfig `toml:"server"`

	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-"`
}

// RenderConfig holds pipeline defaults. Zero values fall through to the
// pipeline's own defaults.
type RenderConfig struct {
	Layers     int      `toml:"layers"`
	Radius     float64  `toml:"radius"`
	Threshold  *float64 `toml:"threshold"`
	Width      int      `toml:"width"`
	Style      string   `toml:"style"`
	WeightBy   string   `toml:"weight_by"`
	Workers    int      `toml:"workers"`
	Background string   `toml:"background"`
	Formats    []string `toml:"formats"`
	Planets    bool     `toml:"planets"`
	Labels     bool     `toml:"labels"`
	Fleets     bool     `toml:"fleets"`
	Scores     bool     `toml:"scores"`
}

// ServerConfig configures `starmap serve`.
type ServerConfig struct {
	Addr         string        `toml:"addr"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	MaxBodyBytes int64         `toml:"max_body_bytes"`
}

// Server defaults.
const (
	DefaultAddr         = ":8080"
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 2 * time.Minute
	DefaultMaxBodyBytes = 8 << 20
)

// Default returns a config with server defaults filled in.
func Default() *Config {
	c := &Config{}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

// Load reads the config at path. An empty path searches the default
// locations and returns defaults when none exists. An explicit path that
// does not exist is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Find()
		if path == "" {
			return Default(), nil
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.Path = path
	return c, nil
}

// Parse decodes TOML data. Unknown keys are rejected so typos surface early.
func Parse(data []byte) (*Config, error) {
	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown config key %q", undecoded[0].String())
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.setDefaults()
	return &c, nil
}

// Validate checks values that have a fixed set of choices.
func (c *Config) Validate() error {
	r := c.Render
	if len(r.Formats) > 0 {
		if err := pipeline.ValidateFormats(r.Formats); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "render.formats")
		}
	}
	if r.WeightBy != "" {
		if err := pipeline.ValidateWeightBy(r.WeightBy); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "render.weight_by")
		}
	}
	if r.Layers < 0 || r.Layers > pipeline.MaxLayers {
		return errors.New(errors.ErrCodeInvalidLayer, "render.layers must be in [0, %d], got %d", pipeline.MaxLayers, r.Layers)
	}
	switch c.Cache.Backend {
	case "", cache.BackendFile, cache.BackendRedis, cache.BackendMongo, cache.BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

// Find returns the first config file in the search path: $STARMAP_CONFIG,
// ./starmap.toml, then $XDG_CONFIG_HOME/starmap/starmap.toml (or
// ~/.config/starmap/starmap.toml). It returns "" when none exists.
func Find() string {
	for _, p := range searchPath() {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

func searchPath() []string {
	var paths []string
	if p := os.Getenv(EnvVar); p != "" {
		paths = append(paths, p)
	}
	paths = append(paths, FileName)
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		paths = append(paths, filepath.Join(dir, "starmap", FileName))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "starmap", FileName))
	}
	return paths
}

// Apply copies render defaults into opts for every field opts leaves unset.
func (r RenderConfig) Apply(opts *pipeline.Options) {
	if opts.Layers == 0 {
		opts.Layers = r.Layers
	}
	if opts.Radius == 0 {
		opts.Radius = r.Radius
	}
	if opts.Threshold == nil && r.Threshold != nil {
		t := *r.Threshold
		opts.Threshold = &t
	}
	if opts.Width == 0 {
		opts.Width = r.Width
	}
	if opts.Style == "" {
		opts.Style = r.Style
	}
	if opts.WeightBy == "" {
		opts.WeightBy = r.WeightBy
	}
	if opts.Workers == 0 {
		opts.Workers = r.Workers
	}
	if opts.Background == "" {
		opts.Background = r.Background
	}
	if len(opts.Formats) == 0 && len(r.Formats) > 0 {
		opts.Formats = append([]string(nil), r.Formats...)
	}
	opts.Planets = opts.Planets || r.Planets
	opts.Labels = opts.Labels || r.Labels
	opts.Fleets = opts.Fleets || r.Fleets
	opts.Scores = opts.Scores || r.Scores
}
