package effects

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/gogpu/filterpipe"
	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/render"
)

// DropShadow draws a blurred, tinted and offset copy of the object's alpha
// behind the object.
//
// It saves its input, renders the shadow through the tint and blur passes,
// and closes with an over-composite of the saved input onto the shadow.
type DropShadow struct {
	filterpipe.Composite

	tint *shadowPass
	blur *Blur
	over *filterpipe.Base
}

// ShadowOptions configures a DropShadow.
type ShadowOptions struct {
	// Offset moves the shadow in world units.
	Offset geom.Point
	// Color is the straight-alpha shadow color.
	Color render.Color
	// Alpha scales the shadow opacity.
	Alpha float32
	// Radius and Quality configure the shadow blur.
	Radius  float32
	Quality int
}

// DefaultShadowOptions is a soft black shadow down and to the right.
var DefaultShadowOptions = ShadowOptions{
	Offset:  geom.Pt(4, 4),
	Color:   render.Color{A: 1},
	Alpha:   0.5,
	Radius:  2,
	Quality: 2,
}

// NewDropShadow returns a drop shadow filter.
func NewDropShadow(o ShadowOptions) *DropShadow {
	d := &DropShadow{}
	d.Init()
	d.Label = "drop-shadow"

	d.tint = newShadowPass()
	d.tint.AdditivePadding = true
	d.blur = NewBlur(0, 1)
	d.blur.AdditivePadding = true
	d.over = filterpipe.NewFilter(overProgram{})
	d.over.Label = "shadow-over"

	d.Keep(d.tint)
	d.Keep(d.blur)
	d.Keep(d.over)
	d.SetOptions(o)
	return d
}

// Options returns the current configuration.
func (d *DropShadow) Options() ShadowOptions {
	return ShadowOptions{
		Offset:  d.tint.offset,
		Color:   d.tint.color,
		Alpha:   d.tint.alpha,
		Radius:  d.blur.Radius(),
		Quality: d.blur.Quality(),
	}
}

// SetOptions reconfigures the shadow.
func (d *DropShadow) SetOptions(o ShadowOptions) {
	d.tint.set(o.Offset, o.Color, o.Alpha)
	d.blur.SetStrength(o.Radius, o.Quality)
	d.blur.SyncPadding()
	d.SyncPadding()
}

// Apply implements filterpipe.Filter.
func (d *DropShadow) Apply(sys *filterpipe.System, input, output *render.Texture, clear bool, scope *filterpipe.Scope, opts *filterpipe.RenderOptions) (*render.Texture, error) {
	pipe := sys.Pipe().Open(sys, input, output, clear, scope)
	fail := func(err error) (*render.Texture, error) {
		_ = pipe.Finalize()
		return nil, fmt.Errorf("drop shadow: %w", err)
	}

	if err := pipe.Save().Bridge(d.tint, nil); err != nil {
		return fail(err)
	}
	for _, p := range d.blur.Passes() {
		if err := pipe.Bridge(p, nil); err != nil {
			return fail(err)
		}
	}

	var ro filterpipe.RenderOptions
	if opts != nil {
		ro = *opts
	}
	pipe.Use(0, func(saved *render.Texture) { ro.Secondary = saved })
	tex, err := pipe.CloseWithoutFinalize(d.over, &ro)
	if err != nil {
		return fail(err)
	}
	pipe.Free(0)
	if err := pipe.Finalize(); err != nil {
		return nil, fmt.Errorf("drop shadow: %w", err)
	}
	return tex, nil
}

// shadowPass turns the input's alpha into the offset shadow color.
type shadowPass struct {
	filterpipe.Base
	offset geom.Point
	color  render.Color
	alpha  float32
	prog   *shadowProgram
}

func newShadowPass() *shadowPass {
	p := &shadowPass{prog: &shadowProgram{}}
	p.Init()
	p.Label = "shadow-tint"
	p.Program = p.prog
	return p
}

func (p *shadowPass) set(offset geom.Point, c render.Color, alpha float32) {
	p.offset, p.color, p.alpha = offset, c, alpha
	p.Padding = math32.Max(math32.Abs(offset.X), math32.Abs(offset.Y))
	a := c.A * alpha
	p.prog.uniforms = [8]float32{c.R * a, c.G * a, c.B * a, a, offset.X, offset.Y}
}

// Measure implements filterpipe.Filter. The pass reads the region behind
// the shadow as well as the object itself, which the final composite
// samples.
func (p *shadowPass) Measure(_, passBounds geom.Rect, _ float32) {
	p.SetFrame(passBounds.Enlarge(passBounds.Offset(-p.offset.X, -p.offset.Y)))
}

// shadowProgram: params.data[0] is the premultiplied shadow color and
// params.data[1].xy the offset in world units.
type shadowProgram struct {
	uniforms [8]float32
}

const shadowSource = `
fn shade(in: VertexOutput) -> vec4<f32> {
    let uv = in.uv - params.data[1].xy * globals.input_size.zw;
    let s = textureSample(input_texture, input_sampler, uv);
    let inside = all(uv >= globals.input_clamp.xy) && all(uv <= globals.input_clamp.zw);
    return select(vec4<f32>(0.0), params.data[0] * s.a, inside);
}
`

func (p *shadowProgram) Label() string       { return "shadow-tint" }
func (p *shadowProgram) Source() string      { return shadowSource }
func (p *shadowProgram) Uniforms() []float32 { return p.uniforms[:] }

func (p *shadowProgram) Shade(f *render.Fragment) render.Color {
	g := f.Globals
	uv := geom.Pt(f.UV.X-p.uniforms[4]*g.InputSize[2], f.UV.Y-p.uniforms[5]*g.InputSize[3])
	c := g.InputClamp
	if uv.X < c[0] || uv.Y < c[1] || uv.X > c[2] || uv.Y > c[3] {
		return render.Transparent
	}
	return scale(render.Color{R: p.uniforms[0], G: p.uniforms[1], B: p.uniforms[2], A: p.uniforms[3]}, f.Input.Sample(uv).A)
}

// overProgram composites the secondary texture over the input.
type overProgram struct{}

const overSource = `
fn shade(in: VertexOutput) -> vec4<f32> {
    let below = textureSample(input_texture, input_sampler, in.uv);
    let above = textureSample(secondary_texture, input_sampler, in.secondary_uv);
    return above + below * (1.0 - above.a);
}
`

func (overProgram) Label() string       { return "over" }
func (overProgram) Source() string      { return overSource }
func (overProgram) Uniforms() []float32 { return nil }

func (overProgram) Shade(f *render.Fragment) render.Color {
	below := f.Input.Sample(f.UV)
	above := f.Secondary.Sample(f.SecondaryUV)
	return add(above, scale(below, 1-above.A))
}
