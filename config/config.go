// Package config loads filter system settings from TOML or YAML files.
//
// A file looks like:
//
//	max_texture_size = 4096
//	resolution = 1.0
//
//	[pool]
//	idle_budget_mb = 64
//	strict_ownership = false
//
//	[presets.soft]
//	kind = "blur"
//	radius = 6.0
//	quality = 2
//
// Zero values mean "use the default"; filterpipe.WithConfig only overrides
// what the file sets.
package config

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/jinzhu/copier"
)

// Preset kinds understood by effects.FromPreset.
const (
	KindBlur        = "blur"
	KindColorMatrix = "color_matrix"
	KindDropShadow  = "drop_shadow"
	KindIdentity    = "identity"
)

// Color matrix operations for KindColorMatrix presets.
const (
	OpGrayscale  = "grayscale"
	OpSepia      = "sepia"
	OpBrightness = "brightness"
	OpContrast   = "contrast"
	OpSaturate   = "saturate"
	OpInvert     = "invert"
	OpAlpha      = "alpha"
	OpMatrix     = "matrix"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the file form of the filter system settings.
type Config struct {
	// Pool configures the texture pool.
	Pool PoolConfig `toml:"pool" yaml:"pool"`

	// MaxTextureSize lowers the device texture limit. Zero keeps the
	// device's limit.
	MaxTextureSize int `toml:"max_texture_size" yaml:"max_texture_size"`

	// GeometryCacheSize is the number of cached frame quads.
	GeometryCacheSize int `toml:"geometry_cache_size" yaml:"geometry_cache_size"`

	// Resolution is the default filter resolution used by presets that
	// leave theirs unset.
	Resolution float32 `toml:"resolution" yaml:"resolution"`

	// Presets are named filter definitions.
	Presets map[string]Preset `toml:"presets" yaml:"presets"`

	// Path is the file the configuration was loaded from.
	Path string `toml:"-" yaml:"-" copier:"-"`
}

// PoolConfig configures the texture pool.
type PoolConfig struct {
	// IdleBudgetMB caps the memory of idle textures, in megabytes.
	IdleBudgetMB int `toml:"idle_budget_mb" yaml:"idle_budget_mb"`

	// StrictOwnership turns ownership violations into panics.
	StrictOwnership bool `toml:"strict_ownership" yaml:"strict_ownership"`
}

// Preset describes one filter.
type Preset struct {
	Kind       string     `toml:"kind" yaml:"kind"`
	Op         string     `toml:"op,omitempty" yaml:"op,omitempty"`
	Radius     float32    `toml:"radius,omitempty" yaml:"radius,omitempty"`
	Quality    int        `toml:"quality,omitempty" yaml:"quality,omitempty"`
	Matrix     []float32  `toml:"matrix,omitempty" yaml:"matrix,omitempty"`
	Amount     float32    `toml:"amount,omitempty" yaml:"amount,omitempty"`
	Offset     [2]float32 `toml:"offset,omitempty" yaml:"offset,omitempty"`
	Color      [4]float32 `toml:"color,omitempty" yaml:"color,omitempty"`
	Alpha      float32    `toml:"alpha,omitempty" yaml:"alpha,omitempty"`
	Padding    float32    `toml:"padding,omitempty" yaml:"padding,omitempty"`
	Resolution float32    `toml:"resolution,omitempty" yaml:"resolution,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Pool:              PoolConfig{IdleBudgetMB: 64},
		GeometryCacheSize: 256,
		Resolution:        1,
		Presets:           map[string]Preset{},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Pool.IdleBudgetMB < 0 {
		return fmt.Errorf("%w: pool.idle_budget_mb %d is negative", ErrInvalid, c.Pool.IdleBudgetMB)
	}
	if c.MaxTextureSize < 0 {
		return fmt.Errorf("%w: max_texture_size %d is negative", ErrInvalid, c.MaxTextureSize)
	}
	if c.GeometryCacheSize < 0 {
		return fmt.Errorf("%w: geometry_cache_size %d is negative", ErrInvalid, c.GeometryCacheSize)
	}
	if c.Resolution < 0 {
		return fmt.Errorf("%w: resolution %g is negative", ErrInvalid, c.Resolution)
	}
	for _, name := range c.PresetNames() {
		if err := c.Presets[name].Validate(); err != nil {
			return fmt.Errorf("preset %q: %w", name, err)
		}
	}
	return nil
}

// Validate reports an unknown kind or operation and out-of-range values.
func (p Preset) Validate() error {
	switch p.Kind {
	case KindBlur:
		if p.Radius < 0 {
			return fmt.Errorf("%w: radius %g is negative", ErrInvalid, p.Radius)
		}
		if p.Quality < 0 {
			return fmt.Errorf("%w: quality %d is negative", ErrInvalid, p.Quality)
		}
	case KindColorMatrix:
		ops := []string{OpGrayscale, OpSepia, OpBrightness, OpContrast, OpSaturate, OpInvert, OpAlpha, OpMatrix}
		if !slices.Contains(ops, p.Op) {
			return fmt.Errorf("%w: unknown color matrix op %q", ErrInvalid, p.Op)
		}
		if p.Op == OpMatrix && len(p.Matrix) != 20 {
			return fmt.Errorf("%w: matrix has %d values, want 20", ErrInvalid, len(p.Matrix))
		}
	case KindDropShadow:
		if p.Radius < 0 {
			return fmt.Errorf("%w: radius %g is negative", ErrInvalid, p.Radius)
		}
		if p.Alpha < 0 || p.Alpha > 1 {
			return fmt.Errorf("%w: alpha %g outside [0, 1]", ErrInvalid, p.Alpha)
		}
	case KindIdentity:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalid, p.Kind)
	}
	if p.Padding < 0 {
		return fmt.Errorf("%w: padding %g is negative", ErrInvalid, p.Padding)
	}
	if p.Resolution < 0 {
		return fmt.Errorf("%w: resolution %g is negative", ErrInvalid, p.Resolution)
	}
	return nil
}

// PresetNames returns the preset names in sorted order.
func (c *Config) PresetNames() []string {
	names := make([]string, 0, len(c.Presets))
	for name := range c.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset returns the named preset with the config's default resolution
// filled in.
func (c *Config) Preset(name string) (Preset, bool) {
	p, ok := c.Presets[name]
	if !ok {
		return Preset{}, false
	}
	if p.Resolution == 0 {
		p.Resolution = c.Resolution
	}
	return p, true
}

// Clone returns a deep copy. Path is not copied.
func (c *Config) Clone() (*Config, error) {
	out := &Config{}
	if err := copier.CopyWithOption(out, c, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("config: clone: %w", err)
	}
	return out, nil
}
