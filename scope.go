package filterpipe

import (
	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/render"
)

// Target is an object filters can be applied to.
type Target interface {
	// Bounds returns the object's world-space bounds without filter
	// padding. It is called at most once per scope.
	Bounds() geom.Rect
}

// FilterAreaTarget is implemented by targets with an explicit filter
// region that replaces their bounds.
type FilterAreaTarget interface {
	FilterArea() (geom.Rect, bool)
}

// FilterSource is implemented by targets that carry their own filter list.
// Push uses it when called without filters.
type FilterSource interface {
	Filters() []Filter
}

// OptionSource is implemented by targets that carry scope options. Push
// uses it when called without options.
type OptionSource interface {
	FilterOptions() *ScopeOptions
}

// ScopeOptions override measured scope values.
type ScopeOptions struct {
	// Viewport is handed to every filter of the scope.
	Viewport *Viewport
	// Padding raises the measured padding to at least this value.
	Padding float32
	// Resolution, when positive, replaces the measured resolution.
	Resolution float32
}

type snapshot struct {
	source      geom.Rect
	destination geom.Rect
}

// Scope is the state of one filtered object between Push and Pop.
//
// Scopes are pooled by the System; references to a scope must not be kept
// after its Pop.
type Scope struct {
	// Target is the filtered object.
	Target Target
	// Filters is the measured filter list. Pruning replaces it with a copy,
	// so the caller's slice is never modified.
	Filters []Filter

	// OutputFrame is the region written to the parent target.
	OutputFrame geom.Rect
	// TargetFrame is the padded, pixel-aligned region of the whole object.
	TargetFrame geom.Rect
	// InputFrame is the region the object is rendered into.
	InputFrame geom.Rect

	Resolution float32
	Padding    float32
	Legacy     bool
	// Renderable is false when some filter reported it cannot run in
	// reasonable time.
	Renderable bool

	// RenderTexture holds the unfiltered object. For the base scope and for
	// scopes whose filters were all pruned it is the target that was bound
	// at Push; Pop never returns it to the pool.
	RenderTexture *render.Texture
	// TextureDimensions is the logical size of RenderTexture.
	TextureDimensions geom.Point
	// TexturePixels is the physical size of RenderTexture.
	TexturePixels geom.Point

	// FilterPasses holds one Pass per surviving filter.
	FilterPasses []Pass
	// CurrentIndex counts flip/flop swaps during Pop.
	CurrentIndex int

	// InputWritable tells a filter it may overwrite its input.
	InputWritable bool
	// OutputSwappable tells a filter it may return a texture other than
	// the output.
	OutputSwappable bool

	Viewport Viewport

	snapshot      snapshot
	restoring     bool
	restoreTarget *render.Texture
	passIndex     int

	nakedTargetBounds *geom.Rect
	nakedSourceFrame  *geom.Rect
}

func newScope() *Scope {
	return &Scope{Resolution: 1, Renderable: true, InputWritable: true, Viewport: DefaultViewport}
}

// SourceFrame is the legacy name of InputFrame.
func (s *Scope) SourceFrame() geom.Rect { return s.InputFrame }

// DestinationFrame is TextureDimensions as a rectangle at the origin.
func (s *Scope) DestinationFrame() geom.Rect {
	return geom.NewRect(0, 0, s.TextureDimensions.X, s.TextureDimensions.Y)
}

// NakedTargetBounds returns the target bounds without padding. The value is
// computed once per scope.
func (s *Scope) NakedTargetBounds() geom.Rect {
	if s.nakedTargetBounds == nil {
		var r geom.Rect
		if s.Target != nil {
			r = s.Target.Bounds()
		}
		s.nakedTargetBounds = &r
	}
	return *s.nakedTargetBounds
}

// NakedSourceFrame returns the naked target bounds clipped to OutputFrame.
func (s *Scope) NakedSourceFrame() geom.Rect {
	if s.nakedSourceFrame == nil {
		r := s.NakedTargetBounds().Fit(s.OutputFrame)
		s.nakedSourceFrame = &r
	}
	return *s.nakedSourceFrame
}

// CurrentPass returns the pass being executed, or the zero Pass before Pop.
func (s *Scope) CurrentPass() Pass {
	if s.passIndex < 0 || s.passIndex >= len(s.FilterPasses) {
		return Pass{}
	}
	return s.FilterPasses[s.passIndex]
}

// Normalize converts a vector in viewport pixels into texture-space UV
// units.
func (s *Scope) Normalize(v geom.Point) geom.Point {
	if s.TexturePixels.X == 0 || s.TexturePixels.Y == 0 {
		return geom.Point{}
	}
	return geom.Pt(
		v.X*s.Viewport.Scale.X/s.TexturePixels.X,
		v.Y*s.Viewport.Scale.Y/s.TexturePixels.Y,
	)
}

func (s *Scope) bounds() geom.Rect {
	if fa, ok := s.Target.(FilterAreaTarget); ok {
		if r, ok := fa.FilterArea(); ok {
			return r
		}
	}
	return s.NakedTargetBounds()
}

// clear drops every reference so a pooled scope does not pin textures or
// targets.
func (s *Scope) clear() {
	passes := s.FilterPasses[:0]
	*s = Scope{}
	s.FilterPasses = passes
	s.Resolution = 1
	s.Renderable = true
	s.InputWritable = true
	s.Viewport = DefaultViewport
}
