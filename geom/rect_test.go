package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectEdges(t *testing.T) {
	r := NewRect(10, 20, 30, 40)

	assert.Equal(t, float32(10), r.Left())
	assert.Equal(t, float32(40), r.Right())
	assert.Equal(t, float32(20), r.Top())
	assert.Equal(t, float32(60), r.Bottom())
	assert.Equal(t, r, FromLTRB(10, 20, 40, 60))
}

func TestRectPad(t *testing.T) {
	r := NewRect(10, 10, 20, 20).Pad(5)
	assert.Equal(t, NewRect(5, 5, 30, 30), r)

	r = NewRect(0, 0, 10, 10).PadXY(2, 0)
	assert.Equal(t, NewRect(-2, 0, 14, 10), r)
}

func TestRectFit(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want Rect
	}{
		{"overlap", NewRect(0, 0, 10, 10), NewRect(5, 5, 10, 10), NewRect(5, 5, 5, 5)},
		{"inside", NewRect(2, 2, 3, 3), NewRect(0, 0, 10, 10), NewRect(2, 2, 3, 3)},
		{"disjoint", NewRect(0, 0, 1, 1), NewRect(5, 5, 1, 1), NewRect(5, 5, 0, 0)},
		{"touching", NewRect(0, 0, 5, 5), NewRect(5, 0, 5, 5), NewRect(5, 0, 0, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Fit(tt.b)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got.Width, float32(0))
			assert.GreaterOrEqual(t, got.Height, float32(0))
		})
	}
}

func TestRectFitDoesNotMutate(t *testing.T) {
	a := NewRect(0, 0, 10, 10)
	_ = a.Fit(NewRect(5, 5, 1, 1))
	assert.Equal(t, NewRect(0, 0, 10, 10), a)
}

func TestRectEnlarge(t *testing.T) {
	got := NewRect(0, 0, 10, 10).Enlarge(NewRect(5, -5, 10, 5))
	assert.Equal(t, NewRect(0, -5, 15, 15), got)
}

func TestRectCeil(t *testing.T) {
	tests := []struct {
		name string
		r    Rect
		res  float32
		want Rect
	}{
		{"pixel", NewRect(0.4, 0.6, 10.2, 5.1), 1, NewRect(0, 0, 11, 6)},
		{"aligned", NewRect(1, 2, 3, 4), 1, NewRect(1, 2, 3, 4)},
		{"epsilon", NewRect(1.0004, 0, 2, 2), 1, NewRect(1, 0, 2, 2)},
		{"half", NewRect(0.3, 0, 1, 1), 2, NewRect(0, 0, 1.5, 1)},
		{"zero resolution", NewRect(0.5, 0.5, 1, 1), 0, NewRect(0, 0, 2, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.Ceil(tt.res))
		})
	}
}

func TestRectContains(t *testing.T) {
	outer := NewRect(0, 0, 100, 100)

	assert.True(t, outer.Contains(NewRect(10, 10, 20, 20)))
	assert.True(t, outer.Contains(outer))
	assert.False(t, outer.Contains(NewRect(90, 90, 20, 20)))
	assert.True(t, outer.ContainsPoint(0, 0))
	assert.False(t, outer.ContainsPoint(100, 50))
}

func TestRectEmpty(t *testing.T) {
	assert.True(t, Rect{}.Empty())
	assert.True(t, NewRect(0, 0, 10, -1).Empty())
	assert.False(t, NewRect(0, 0, 1, 1).Empty())
}

func TestPointInverse(t *testing.T) {
	assert.Equal(t, Pt(0.5, 0), Pt(2, 0).Inverse())
	assert.Equal(t, Pt(3, 4), Pt(2.2, 3.1).Ceil())
}
