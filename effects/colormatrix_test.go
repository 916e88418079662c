package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/filterpipe/geom"
)

func assertRGBA(t *testing.T, want [4]float32, r, g, b, a float32, msg string) {
	t.Helper()
	got := [4]float32{r, g, b, a}
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-4, "%s channel %d: got %v", msg, i, got)
	}
}

func TestMatrixApply(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
		in   [4]float32
		want [4]float32
	}{
		{"identity", IdentityMatrix, [4]float32{0.2, 0.4, 0.6, 0.8}, [4]float32{0.2, 0.4, 0.6, 0.8}},
		{"invert", Invert(), [4]float32{1, 0, 0.25, 1}, [4]float32{0, 1, 0.75, 1}},
		{"grayscale", Grayscale(1), [4]float32{1, 0, 0, 1}, [4]float32{lumR, lumR, lumR, 1}},
		{"grayscale none", Grayscale(0), [4]float32{1, 0, 0, 1}, [4]float32{1, 0, 0, 1}},
		{"brightness", Brightness(0.5), [4]float32{1, 0.5, 0, 1}, [4]float32{0.5, 0.25, 0, 1}},
		{"contrast", Contrast(2), [4]float32{0.5, 0.75, 0.25, 1}, [4]float32{0.5, 1, 0, 1}},
		{"saturate zero", Saturate(0), [4]float32{0, 1, 0, 1}, [4]float32{lumG, lumG, lumG, 1}},
		{"saturate one", Saturate(1), [4]float32{0.1, 0.2, 0.3, 1}, [4]float32{0.1, 0.2, 0.3, 1}},
		{"alpha", Alpha(0.25), [4]float32{1, 1, 1, 1}, [4]float32{1, 1, 1, 0.25}},
		{"clamps", Brightness(4), [4]float32{0.5, 0, 0, 1}, [4]float32{1, 0, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, a := tt.m.Apply(tt.in[0], tt.in[1], tt.in[2], tt.in[3])
			assertRGBA(t, tt.want, r, g, b, a, tt.name)
		})
	}
}

func TestMatrixMultiply(t *testing.T) {
	m := Brightness(0.5).Multiply(Invert())
	r, g, b, a := m.Apply(1, 0, 0, 1)
	// brightness first: (0.5, 0, 0), then invert.
	assertRGBA(t, [4]float32{0.5, 1, 1, 1}, r, g, b, a, "brightness then invert")

	assert.Equal(t, Sepia(1), IdentityMatrix.Multiply(Sepia(1)))
}

func TestColorMatrixUniforms(t *testing.T) {
	f := NewColorMatrix(Contrast(2))
	u := f.Program.Uniforms()
	require.Len(t, u, 20)
	assert.Equal(t, []float32{2, 0, 0, 0}, u[0:4])
	assert.Equal(t, []float32{0, 0, 0, 1}, u[12:16])
	assert.Equal(t, []float32{-0.5, -0.5, -0.5, 0}, u[16:20])

	f.SetMatrix(Invert())
	assert.Equal(t, Invert(), f.Matrix())
	assert.Equal(t, float32(1), f.Program.Uniforms()[16])
}

func TestColorMatrixRender(t *testing.T) {
	obj := geom.NewRect(8, 8, 8, 8)
	img := renderFiltered(t, 32, obj, red, NewColorMatrix(Invert()))

	got := at(img, 12, 12)
	assert.Equal(t, uint8(0), got.R)
	assert.Equal(t, uint8(255), got.G)
	assert.Equal(t, uint8(255), got.B)
	assert.Equal(t, uint8(255), got.A)
	assert.Zero(t, at(img, 20, 20).A, "outside the object")
}

func TestColorMatrixChain(t *testing.T) {
	obj := geom.NewRect(8, 8, 8, 8)
	img := renderFiltered(t, 32, obj, red,
		NewColorMatrix(Invert()),
		NewColorMatrix(Alpha(0.5)),
		NewColorMatrix(Invert()),
	)
	got := at(img, 12, 12)
	assert.InDelta(t, 128, int(got.R), 1)
	assert.InDelta(t, 0, int(got.G), 1)
	assert.InDelta(t, 128, int(got.A), 1)
}
