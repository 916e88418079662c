package effects

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/gogpu/filterpipe"
	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/render"
)

// Axis is the direction of a one-dimensional blur pass.
type Axis uint8

const (
	// Horizontal blurs along x.
	Horizontal Axis = iota
	// Vertical blurs along y.
	Vertical
)

func (a Axis) String() string {
	if a == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// BlurPass is a leaf filter blurring along one axis. Its measured input
// region is the pass region grown by the radius along that axis.
type BlurPass struct {
	filterpipe.Base
	Axis   Axis
	Radius float32
}

// NewBlurPass returns a one-axis Gaussian blur.
func NewBlurPass(axis Axis, radius float32) *BlurPass {
	p := &BlurPass{Axis: axis, Radius: radius}
	p.Init()
	p.Label = "blur-" + axis.String()
	p.Padding = radius
	p.Program = newGaussian(axis, GaussianKernel(radius))
	return p
}

// Measure implements filterpipe.Filter.
func (p *BlurPass) Measure(_, passBounds geom.Rect, _ float32) {
	if p.Axis == Vertical {
		p.SetFrame(passBounds.PadXY(0, p.Radius))
		return
	}
	p.SetFrame(passBounds.PadXY(p.Radius, 0))
}

// Blur is a separable Gaussian blur: Quality pairs of horizontal and
// vertical passes chained through a pipe.
type Blur struct {
	filterpipe.Composite
	radius  float32
	quality int
}

// NewBlur returns a blur reaching radius world units, split over quality
// pass pairs.
func NewBlur(radius float32, quality int) *Blur {
	b := &Blur{}
	b.Init()
	b.Label = "blur"
	b.SetStrength(radius, quality)
	return b
}

// Radius returns the blur radius.
func (b *Blur) Radius() float32 { return b.radius }

// Quality returns the number of pass pairs.
func (b *Blur) Quality() int { return b.quality }

// SetStrength rebuilds the passes for a new radius and quality. Each pair
// blurs with radius/sqrt(quality) so the combined blur matches radius; the
// horizontal passes stack their padding.
func (b *Blur) SetStrength(radius float32, quality int) {
	if quality < 1 {
		quality = 1
	}
	if radius < 0 {
		radius = 0
	}
	for _, c := range append([]filterpipe.Filter(nil), b.Children()...) {
		b.Kick(c)
	}
	b.radius, b.quality = radius, quality
	if radius == 0 {
		return
	}
	r := radius / math32.Sqrt(float32(quality))
	for range quality {
		h := NewBlurPass(Horizontal, r)
		h.AdditivePadding = true
		h.Resolution = b.Resolution
		v := NewBlurPass(Vertical, r)
		v.Resolution = b.Resolution
		b.Keep(h)
		b.Keep(v)
	}
}

// Passes returns the blur passes in draw order.
func (b *Blur) Passes() []filterpipe.Filter { return b.Children() }

// Apply implements filterpipe.Filter.
func (b *Blur) Apply(sys *filterpipe.System, input, output *render.Texture, clear bool, scope *filterpipe.Scope, opts *filterpipe.RenderOptions) (*render.Texture, error) {
	tex, err := b.Composite.Apply(sys, input, output, clear, scope, opts)
	if err != nil {
		return nil, fmt.Errorf("blur %g: %w", b.radius, err)
	}
	return tex, nil
}

// gaussian samples the input along one axis with a symmetric kernel.
//
// params.data[0] is (taps, step x, step y, 0) and the weights follow from
// params.data[1], four per vec4.
type gaussian struct {
	axis     Axis
	kernel   Kernel
	uniforms []float32
}

const gaussianSource = `
fn weight(i: i32) -> f32 {
    let v = params.data[1 + i / 4];
    return v[i % 4];
}

fn shade(in: VertexOutput) -> vec4<f32> {
    let header = params.data[0];
    let taps = i32(header.x);
    let step = header.yz * globals.input_size.zw;
    let lo = globals.input_clamp.xy;
    let hi = globals.input_clamp.zw;
    var sum = textureSample(input_texture, input_sampler, clamp(in.uv, lo, hi)) * weight(0);
    for (var i = 1; i <= taps; i++) {
        let offset = step * f32(i);
        let a = textureSample(input_texture, input_sampler, clamp(in.uv + offset, lo, hi));
        let b = textureSample(input_texture, input_sampler, clamp(in.uv - offset, lo, hi));
        sum += (a + b) * weight(i);
    }
    return sum;
}
`

func newGaussian(axis Axis, k Kernel) *gaussian {
	g := &gaussian{axis: axis, kernel: k}
	dx, dy := k.Step, float32(0)
	if axis == Vertical {
		dx, dy = 0, k.Step
	}
	g.uniforms = append([]float32{float32(k.Taps()), dx, dy, 0}, k.Weights...)
	return g
}

func (g *gaussian) Label() string       { return "gaussian-" + g.axis.String() }
func (g *gaussian) Source() string      { return gaussianSource }
func (g *gaussian) Uniforms() []float32 { return g.uniforms }

func (g *gaussian) Shade(f *render.Fragment) render.Color {
	clamp := f.Globals.InputClamp
	step := geom.Pt(g.uniforms[1]*f.Globals.InputSize[2], g.uniforms[2]*f.Globals.InputSize[3])

	w := g.kernel.Weights
	sum := scale(f.Input.Sample(render.ClampUV(f.UV, clamp)), w[0])
	for i := 1; i < len(w); i++ {
		off := step.Mul(float32(i))
		a := f.Input.Sample(render.ClampUV(f.UV.Add(off), clamp))
		b := f.Input.Sample(render.ClampUV(f.UV.Sub(off), clamp))
		sum = add(sum, scale(add(a, b), w[i]))
	}
	return sum
}

func scale(c render.Color, s float32) render.Color {
	return render.Color{R: c.R * s, G: c.G * s, B: c.B * s, A: c.A * s}
}

func add(a, b render.Color) render.Color {
	return render.Color{R: a.R + b.R, G: a.G + b.G, B: a.B + b.B, A: a.A + b.A}
}
