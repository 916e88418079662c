package effects

import (
	"github.com/gogpu/filterpipe"
	"github.com/gogpu/filterpipe/render"
)

// Matrix is a 5x4 color transform in row-major order. Each output channel
// is a dot product of its row with the straight (unpremultiplied) input
// (r, g, b, a, 1).
type Matrix [20]float32

// IdentityMatrix leaves colors unchanged.
var IdentityMatrix = Matrix{
	1, 0, 0, 0, 0,
	0, 1, 0, 0, 0,
	0, 0, 1, 0, 0,
	0, 0, 0, 1, 0,
}

// Mix returns m blended toward o by t.
func (m Matrix) Mix(o Matrix, t float32) Matrix {
	var out Matrix
	for i := range out {
		out[i] = m[i] + (o[i]-m[i])*t
	}
	return out
}

// Multiply returns the transform applying m first, then o.
func (m Matrix) Multiply(o Matrix) Matrix {
	var out Matrix
	for row := range 4 {
		for col := range 5 {
			var v float32
			for k := range 4 {
				v += o[row*5+k] * m[k*5+col]
			}
			if col == 4 {
				v += o[row*5+4]
			}
			out[row*5+col] = v
		}
	}
	return out
}

// Apply transforms one straight-alpha color.
func (m Matrix) Apply(r, g, b, a float32) (float32, float32, float32, float32) {
	row := func(i int) float32 {
		return clamp01(m[i]*r + m[i+1]*g + m[i+2]*b + m[i+3]*a + m[i+4])
	}
	return row(0), row(5), row(10), row(15)
}

// Luminance weights of the grayscale and saturate transforms.
const (
	lumR = 0.2126
	lumG = 0.7152
	lumB = 0.0722
)

// Grayscale desaturates by amount in [0, 1].
func Grayscale(amount float32) Matrix {
	gray := Matrix{
		lumR, lumG, lumB, 0, 0,
		lumR, lumG, lumB, 0, 0,
		lumR, lumG, lumB, 0, 0,
		0, 0, 0, 1, 0,
	}
	return IdentityMatrix.Mix(gray, clamp01(amount))
}

// Sepia tones by amount in [0, 1].
func Sepia(amount float32) Matrix {
	sepia := Matrix{
		0.393, 0.769, 0.189, 0, 0,
		0.349, 0.686, 0.168, 0, 0,
		0.272, 0.534, 0.131, 0, 0,
		0, 0, 0, 1, 0,
	}
	return IdentityMatrix.Mix(sepia, clamp01(amount))
}

// Brightness scales the color channels by b.
func Brightness(b float32) Matrix {
	return Matrix{
		b, 0, 0, 0, 0,
		0, b, 0, 0, 0,
		0, 0, b, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Contrast scales the color channels by c around mid gray.
func Contrast(c float32) Matrix {
	o := 0.5 * (1 - c)
	return Matrix{
		c, 0, 0, 0, o,
		0, c, 0, 0, o,
		0, 0, c, 0, o,
		0, 0, 0, 1, 0,
	}
}

// Saturate scales saturation by s; 0 is grayscale, 1 leaves colors alone.
func Saturate(s float32) Matrix {
	return Matrix{
		lumR + (1-lumR)*s, lumG - lumG*s, lumB - lumB*s, 0, 0,
		lumR - lumR*s, lumG + (1-lumG)*s, lumB - lumB*s, 0, 0,
		lumR - lumR*s, lumG - lumG*s, lumB + (1-lumB)*s, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Invert negates the color channels.
func Invert() Matrix {
	return Matrix{
		-1, 0, 0, 0, 1,
		0, -1, 0, 0, 1,
		0, 0, -1, 0, 1,
		0, 0, 0, 1, 0,
	}
}

// Alpha scales opacity by a.
func Alpha(a float32) Matrix {
	return Matrix{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, a, 0,
	}
}

// ColorMatrix is a leaf filter transforming every pixel by a Matrix.
type ColorMatrix struct {
	filterpipe.Base
	prog *matrixProgram
}

// NewColorMatrix returns a color matrix filter.
func NewColorMatrix(m Matrix) *ColorMatrix {
	f := &ColorMatrix{prog: &matrixProgram{}}
	f.Init()
	f.Label = "color-matrix"
	f.Program = f.prog
	f.SetMatrix(m)
	return f
}

// Matrix returns the current transform.
func (f *ColorMatrix) Matrix() Matrix { return f.prog.m }

// SetMatrix replaces the transform.
func (f *ColorMatrix) SetMatrix(m Matrix) { f.prog.set(m) }

// matrixProgram packs the matrix as four coefficient rows in
// params.data[0..3] and the offsets in params.data[4].
type matrixProgram struct {
	m        Matrix
	uniforms [20]float32
}

const matrixSource = `
fn shade(in: VertexOutput) -> vec4<f32> {
    let c = textureSample(input_texture, input_sampler, in.uv);
    var rgb = vec3<f32>(0.0);
    if (c.a > 0.0) {
        rgb = c.rgb / c.a;
    }
    let src = vec4<f32>(rgb, c.a);
    let result = clamp(vec4<f32>(
        dot(params.data[0], src),
        dot(params.data[1], src),
        dot(params.data[2], src),
        dot(params.data[3], src),
    ) + params.data[4], vec4<f32>(0.0), vec4<f32>(1.0));
    return vec4<f32>(result.rgb * result.a, result.a);
}
`

func (p *matrixProgram) set(m Matrix) {
	p.m = m
	for row := range 4 {
		copy(p.uniforms[row*4:row*4+4], m[row*5:row*5+4])
		p.uniforms[16+row] = m[row*5+4]
	}
}

func (p *matrixProgram) Label() string       { return "color-matrix" }
func (p *matrixProgram) Source() string      { return matrixSource }
func (p *matrixProgram) Uniforms() []float32 { return p.uniforms[:] }

func (p *matrixProgram) Shade(f *render.Fragment) render.Color {
	c := f.Input.Sample(f.UV)
	var r, g, b float32
	if c.A > 0 {
		r, g, b = c.R/c.A, c.G/c.A, c.B/c.A
	}
	r, g, b, a := p.m.Apply(r, g, b, c.A)
	return render.Color{R: r * a, G: g * a, B: b * a, A: a}
}

func clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
