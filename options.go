package filterpipe

import (
	"github.com/gogpu/filterpipe/config"
	"github.com/gogpu/filterpipe/render"
)

// DefaultGeometryCacheSize is the number of frame quads kept by
// ConvertFrameToGeometry.
const DefaultGeometryCacheSize = 256

// Option configures a System during creation.
//
// Example:
//
//	sys := filterpipe.New(dev,
//	    filterpipe.WithIdleBudget(32<<20),
//	    filterpipe.WithStrictOwnership(true),
//	)
type Option func(*options)

type options struct {
	pool              *render.TexturePool
	poolOpts          []render.PoolOption
	maxTextureSize    int
	geometryCacheSize int
}

func defaultOptions() options {
	return options{geometryCacheSize: DefaultGeometryCacheSize}
}

// WithTexturePool makes the system allocate from p instead of a pool of its
// own. The pool must allocate on the system's device. The system does not
// close a shared pool.
func WithTexturePool(p *render.TexturePool) Option {
	return func(o *options) {
		o.pool = p
	}
}

// WithIdleBudget limits the memory held by idle pooled textures.
func WithIdleBudget(bytes uint64) Option {
	return func(o *options) {
		o.poolOpts = append(o.poolOpts, render.WithIdleBudget(bytes))
	}
}

// WithStrictOwnership makes texture ownership violations panic instead of
// being logged and returned as errors. Use it in tests and debug builds.
func WithStrictOwnership(strict bool) Option {
	return func(o *options) {
		o.poolOpts = append(o.poolOpts, render.WithStrictOwnership(strict))
	}
}

// WithMaxTextureSize lowers the texture size limit below the device's.
func WithMaxTextureSize(n int) Option {
	return func(o *options) {
		o.maxTextureSize = n
	}
}

// WithGeometryCacheSize sets how many frame quads are cached.
func WithGeometryCacheSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.geometryCacheSize = n
		}
	}
}

// WithConfig applies file configuration. Zero values in cfg keep the
// defaults.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		if cfg == nil {
			return
		}
		if cfg.Pool.IdleBudgetMB > 0 {
			o.poolOpts = append(o.poolOpts, render.WithIdleBudget(uint64(cfg.Pool.IdleBudgetMB)<<20))
		}
		if cfg.Pool.StrictOwnership {
			o.poolOpts = append(o.poolOpts, render.WithStrictOwnership(true))
		}
		if cfg.MaxTextureSize > 0 {
			o.maxTextureSize = cfg.MaxTextureSize
		}
		if cfg.GeometryCacheSize > 0 {
			o.geometryCacheSize = cfg.GeometryCacheSize
		}
	}
}
