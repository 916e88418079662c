// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/filterpipe/geom"
)

// QuadIndices is the triangle-strip index order of a quad whose vertices are
// listed top-left, top-right, bottom-right, bottom-left.
var QuadIndices = []uint16{0, 1, 3, 2}

// Geometry is a vertex list in coordinates normalized to the output frame of
// the current pass: (0, 0) is its top-left corner, (1, 1) its bottom-right.
type Geometry struct {
	// Positions holds x, y pairs.
	Positions []float32

	// Indices references Positions by vertex.
	Indices []uint16
}

var defaultQuad = NewQuad(0, 0, 1, 1)

// DefaultQuad returns the shared full-output quad. Callers must not modify it.
func DefaultQuad() *Geometry { return defaultQuad }

// NewQuad returns a strip quad spanning (u0, v0)-(u1, v1).
func NewQuad(u0, v0, u1, v1 float32) *Geometry {
	return &Geometry{
		Positions: []float32{
			u0, v0,
			u1, v0,
			u1, v1,
			u0, v1,
		},
		Indices: QuadIndices,
	}
}

// NewQuadTriangles returns a quad as two independent triangles.
func NewQuadTriangles(u0, v0, u1, v1 float32) *Geometry {
	g := NewQuad(u0, v0, u1, v1)
	g.Indices = []uint16{0, 1, 2, 0, 2, 3}
	return g
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int {
	return len(g.Positions) / 2
}

// Bounds returns the normalized bounding box of all vertices.
func (g *Geometry) Bounds() geom.Rect {
	if len(g.Positions) < 2 {
		return geom.Rect{}
	}
	minX, minY := g.Positions[0], g.Positions[1]
	maxX, maxY := minX, minY
	for i := 2; i+1 < len(g.Positions); i += 2 {
		minX = math32.Min(minX, g.Positions[i])
		maxX = math32.Max(maxX, g.Positions[i])
		minY = math32.Min(minY, g.Positions[i+1])
		maxY = math32.Max(maxY, g.Positions[i+1])
	}
	return geom.FromLTRB(minX, minY, maxX, maxY)
}
