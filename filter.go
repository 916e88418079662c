package filterpipe

import (
	"fmt"

	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/render"
)

// Filter is one step of a filter chain.
//
// Every filter embeds a Base, which carries the capability set the system
// aggregates (padding, resolution, autoFit, legacy) and the transient
// measurement state. Leaf filters usually embed Base directly and only set a
// Program; composite filters embed Composite and override Apply.
//
// A filter instance may be reused across frames but not across overlapping
// scopes: its measured frame is overwritten on every measurement.
type Filter interface {
	// FilterBase returns the filter's common state.
	FilterBase() *Base

	// Measure computes the input region needed to produce passBounds and
	// records it with SetFrame. targetBounds is the padded, pixel-aligned
	// bounds of the filtered object; padding is the scope padding.
	Measure(targetBounds, passBounds geom.Rect, padding float32)

	// Apply renders input into output. Returning nil means the result was
	// written into output. Returning a texture means the result lives there
	// instead; this is only allowed when scope.OutputSwappable is set.
	// opts overrides the filter's own RenderOptions when non-nil.
	Apply(sys *System, input, output *render.Texture, clear bool, scope *Scope, opts *RenderOptions) (*render.Texture, error)
}

// Viewport describes how the filtered object is scaled on screen. Filters
// read it to express kernel sizes in screen pixels.
type Viewport struct {
	Scale geom.Point
}

// DefaultViewport is the unscaled viewport.
var DefaultViewport = Viewport{Scale: geom.Pt(1, 1)}

// MaxScale returns the larger scale component.
func (v Viewport) MaxScale() float32 {
	if v.Scale.X > v.Scale.Y {
		return v.Scale.X
	}
	return v.Scale.Y
}

// FrameKind selects the region a filter draw covers.
type FrameKind uint8

const (
	// FrameOutput draws over the whole output frame. This is the default.
	FrameOutput FrameKind = iota
	// FrameNakedTarget draws only over the unpadded object bounds.
	FrameNakedTarget
	// FrameWholeInput draws over the pass input frame.
	FrameWholeInput
	// FrameRect draws over RenderOptions.Rect.
	FrameRect
)

// RenderOptions tunes a single ApplyFilter call.
type RenderOptions struct {
	// Frame limits the drawn region. It is converted into Geometry
	// relative to the output frame.
	Frame FrameKind
	// Rect is the world-space region for FrameRect.
	Rect geom.Rect

	// Geometry replaces the default quad when set. Positions are
	// normalized to the output frame.
	Geometry *render.Geometry
	// DrawMode is the topology of Geometry.
	DrawMode render.DrawMode

	// DestinationFrame, when HasDestination is set, is the region of the
	// output texture to draw into (logical units). Clearing is scissored to
	// it.
	DestinationFrame geom.Rect
	HasDestination   bool

	// Secondary is bound as the program's second input.
	Secondary *render.Texture
}

// Base is the state shared by all filters and the leaf filter behavior: it
// asks for exactly the pass bounds and draws its Program once.
type Base struct {
	// Label names the filter in logs and errors.
	Label string

	// Program shades each pass of this filter.
	Program render.Program

	// Padding is the extra room, in world units, the filter needs around
	// the object.
	Padding float32

	// Resolution is texels per world unit for the filter's textures.
	// Zero means 1.
	Resolution float32

	// AutoFit clips the filter region to the visible source frame.
	AutoFit bool

	// Legacy selects the older uniform conventions and the legacy quad.
	Legacy bool

	// AdditivePadding stacks this filter's padding on top of the padding
	// of the filters before it instead of overlapping it.
	AdditivePadding bool

	// Blend is how the draw combines with the output.
	Blend render.BlendMode

	// RenderOptions are used when Apply is called without options.
	RenderOptions RenderOptions

	// Viewport is bound by the system during measurement.
	Viewport Viewport

	frame      geom.Rect
	measured   bool
	renderable bool
	// unmeasured names the nested filter that left Measure without a frame.
	unmeasured string

	parent *Composite
	bound  bool
}

// NewFilter returns a leaf filter running program at resolution 1 with
// autoFit enabled.
func NewFilter(program render.Program) *Base {
	b := &Base{Program: program}
	b.Init()
	return b
}

// Init sets the defaults of NewFilter on an embedded Base.
func (b *Base) Init() {
	b.Resolution = 1
	b.AutoFit = true
	b.Viewport = DefaultViewport
	b.renderable = true
}

// FilterBase implements Filter.
func (b *Base) FilterBase() *Base { return b }

// Measure implements Filter; the input region equals the pass region.
func (b *Base) Measure(_, passBounds geom.Rect, _ float32) {
	b.SetFrame(passBounds)
}

// Apply implements Filter with a single draw of b.Program.
func (b *Base) Apply(sys *System, input, output *render.Texture, clear bool, _ *Scope, opts *RenderOptions) (*render.Texture, error) {
	return nil, sys.ApplyFilter(b, input, output, clear, opts)
}

// SetFrame records the input region computed by Measure.
func (b *Base) SetFrame(r geom.Rect) {
	b.frame = r
	b.measured = true
}

// SetRenderable marks whether the filter can run in reasonable time for
// the current measurement.
func (b *Base) SetRenderable(ok bool) { b.renderable = ok }

// Frame returns the measured input region and whether one was set.
func (b *Base) Frame() (geom.Rect, bool) { return b.frame, b.measured }

// Renderable reports the flag set during the last measurement.
func (b *Base) Renderable() bool { return b.renderable }

// Parent returns the composite that keeps this filter, or nil.
func (b *Base) Parent() *Composite { return b.parent }

// EffectiveResolution returns Resolution, treating zero as 1.
func (b *Base) EffectiveResolution() float32 {
	if b.Resolution <= 0 {
		return 1
	}
	return b.Resolution
}

func (b *Base) resetMeasure() {
	b.frame = geom.Rect{}
	b.measured = false
	b.renderable = true
	b.unmeasured = ""
}

func filterName(f Filter) string {
	b := f.FilterBase()
	switch {
	case b.Label != "":
		return b.Label
	case b.Program != nil:
		return b.Program.Label()
	default:
		return fmt.Sprintf("%T", f)
	}
}

// AggregatePadding combines the padding of filters: a filter flagged
// AdditivePadding adds to the running figure, any other filter raises it to
// at least its own padding.
func AggregatePadding(filters []Filter) float32 {
	var padding float32
	for _, f := range filters {
		b := f.FilterBase()
		if b.AdditivePadding {
			padding += b.Padding
		} else if b.Padding > padding {
			padding = b.Padding
		}
	}
	return padding
}

// parentFilter is implemented by filters that keep nested filters.
type parentFilter interface {
	Children() []Filter
}

// bindViewport sets v on f and on every bound descendant.
func bindViewport(f Filter, v Viewport) {
	f.FilterBase().Viewport = v
	if p, ok := f.(parentFilter); ok {
		for _, c := range p.Children() {
			if c.FilterBase().bound {
				bindViewport(c, v)
			}
		}
	}
}
