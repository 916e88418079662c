package effects

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gogpu/filterpipe"
	"github.com/gogpu/filterpipe/backend/software"
	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/render"
)

var red = render.Color{R: 1, A: 1}

type box geom.Rect

func (b box) Bounds() geom.Rect { return geom.Rect(b) }

// renderFiltered fills obj with c under filters on a fresh software device
// and returns the screen.
func renderFiltered(t *testing.T, size int, obj geom.Rect, c render.Color, filters ...filterpipe.Filter) *image.RGBA {
	t.Helper()
	d := software.NewDevice(size, size)
	sys := filterpipe.New(d)
	defer sys.Close()

	require.NoError(t, sys.Push(box(obj), filters, nil))
	require.NoError(t, render.Fill(d, obj, c))
	require.NoError(t, sys.Pop())
	require.Zero(t, sys.Pool().InUse(), "textures still checked out after Pop")
	return d.Image(nil)
}

func at(img *image.RGBA, x, y int) color.RGBA {
	return img.RGBAAt(x, y)
}
