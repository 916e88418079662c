package filterpipe

import (
	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/internal/cache"
	"github.com/gogpu/filterpipe/render"
)

// System schedules filter passes for nested filtered objects.
//
// Objects are filtered between Push and Pop: Push measures the filter chain
// and binds a fresh texture the caller renders the object into, Pop runs the
// chain and writes the result into the parent target. Scopes nest in a
// strict stack that mirrors the scene traversal.
//
// A System is not safe for concurrent use.
type System struct {
	device         render.Device
	pool           *render.TexturePool
	ownsPool       bool
	maxTextureSize int

	// stack[0] is the base scope standing for whatever was bound before
	// the first Push.
	stack      []*Scope
	freeScopes []*Scope
	active     *Scope

	globals render.Globals

	identity *Base
	rescale  *Base
	pipes    []*Pipe

	geometries *cache.Cache[geometryKey, *render.Geometry]
}

type geometryKey [4]float32

// New returns a filter system drawing on device.
func New(device render.Device, opts ...Option) *System {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &System{
		device:         device,
		pool:           o.pool,
		maxTextureSize: o.maxTextureSize,
		stack:          []*Scope{newScope()},
		geometries:     cache.New[geometryKey, *render.Geometry](o.geometryCacheSize),
	}
	if s.pool == nil {
		s.pool = render.NewTexturePool(device, o.poolOpts...)
		s.ownsPool = true
	}

	s.identity = NewFilter(render.IdentityProgram())
	s.identity.Label = "identity"
	s.rescale = NewFilter(render.RescaleProgram())
	s.rescale.Label = "rescale"
	return s
}

// Device returns the device the system draws on.
func (s *System) Device() render.Device { return s.device }

// Pool returns the texture pool.
func (s *System) Pool() *render.TexturePool { return s.pool }

// Globals returns the uniform block of the pass being recorded. Filters may
// adjust it before calling ApplyFilter.
func (s *System) Globals() *render.Globals { return &s.globals }

// Depth returns the number of pushed scopes.
func (s *System) Depth() int { return len(s.stack) - 1 }

// ActiveScope returns the scope being popped, or nil outside Pop.
func (s *System) ActiveScope() *Scope { return s.active }

// InputFrame returns the input frame of the pass being recorded.
func (s *System) InputFrame() geom.Rect { return s.globals.InputFrame }

// OutputFrame returns the output frame of the pass being recorded.
func (s *System) OutputFrame() geom.Rect { return s.globals.OutputFrame }

// SetInputFrame replaces the input frame uniform.
func (s *System) SetInputFrame(r geom.Rect) {
	s.globals.InputFrame = r
	s.globals.InputFrameInverse = inverse(r)
}

// SetOutputFrame replaces the output frame uniform.
func (s *System) SetOutputFrame(r geom.Rect) {
	s.globals.OutputFrame = r
	s.globals.OutputFrameInverse = inverse(r)
}

// IdentityFilter returns the shared filter that copies its input.
func (s *System) IdentityFilter() *Base { return s.identity }

// RescaleFilter returns the shared filter that stretches the whole input
// frame over the output frame.
func (s *System) RescaleFilter() *Base { return s.rescale }

// MaxTextureSize returns the largest texture dimension the system will
// allocate, in physical pixels.
func (s *System) MaxTextureSize() int {
	limit := s.device.MaxTextureSize()
	if s.maxTextureSize > 0 && (limit <= 0 || s.maxTextureSize < limit) {
		return s.maxTextureSize
	}
	return limit
}

// GetOptimalFilterTexture returns a pooled texture of at least width x
// height logical units. A non-positive resolution uses the active scope's.
func (s *System) GetOptimalFilterTexture(width, height, resolution float32) (*render.Texture, error) {
	return s.pool.Get(width, height, s.resolutionOr(resolution), render.OwnerSystem)
}

// GetFilterTexture returns a pooled texture the size of input, holding the
// same frame. A non-positive resolution uses input's. The caller owns the
// texture until ReturnFilterTexture.
//
// Calling it with a nil input is deprecated; the texture is then sized to
// the current output frame.
func (s *System) GetFilterTexture(input *render.Texture, resolution float32) (*render.Texture, error) {
	if input == nil {
		Logger().Warn("filterpipe: GetFilterTexture without a reference texture is deprecated; " +
			"it defaults to a texture the size of the output frame")
		out := s.globals.OutputFrame
		tex, err := s.pool.Get(out.Width, out.Height, s.resolutionOr(resolution), render.OwnerFilter)
		if err != nil {
			return nil, err
		}
		tex.FilterFrame = out
		return tex, nil
	}

	if resolution <= 0 {
		resolution = input.Resolution()
	}
	tex, err := s.pool.Get(input.Width(), input.Height(), resolution, render.OwnerFilter)
	if err != nil {
		return nil, err
	}
	tex.FilterFrame = input.FilterFrame
	return tex, nil
}

// ReturnFilterTexture gives a texture back to the pool.
func (s *System) ReturnFilterTexture(tex *render.Texture) error {
	return s.pool.Put(tex)
}

// Close releases pooled textures. A pool passed with WithTexturePool is
// only cleared of the textures it holds idle.
func (s *System) Close() {
	if s.ownsPool {
		s.pool.Close()
		return
	}
	s.pool.Clear()
}

func (s *System) resolutionOr(resolution float32) float32 {
	if resolution > 0 {
		return resolution
	}
	if s.active != nil && s.active.Resolution > 0 {
		return s.active.Resolution
	}
	return 1
}

// adopt takes over a texture a filter handed back from Apply.
func (s *System) adopt(tex *render.Texture) error {
	if !s.pool.Owns(tex) {
		return nil
	}
	return s.pool.Transfer(tex, tex.Owner(), render.OwnerSystem)
}

func (s *System) getScope() *Scope {
	if n := len(s.freeScopes); n > 0 {
		sc := s.freeScopes[n-1]
		s.freeScopes = s.freeScopes[:n-1]
		return sc
	}
	return newScope()
}

// ReleaseScope recycles a scope returned by Premeasure.
func (s *System) ReleaseScope(scope *Scope) {
	if scope == nil {
		return
	}
	scope.clear()
	s.freeScopes = append(s.freeScopes, scope)
}

func inverse(r geom.Rect) [2]float32 {
	p := r.Size().Inverse()
	return [2]float32{p.X, p.Y}
}
