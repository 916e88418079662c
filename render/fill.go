// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import "github.com/gogpu/filterpipe/geom"

// Fill paints the world-space rectangle r with c into the device's bound
// target. It is how scene content gets drawn into a pushed scope.
func Fill(dev Device, r geom.Rect, c Color) error {
	if r.Empty() {
		return nil
	}
	g := &Globals{
		InputFrame:  r,
		OutputFrame: r,
		Resolution:  1,
	}
	if t := dev.Binding().Target; t != nil {
		g.Resolution = t.Resolution()
	}
	g.InputFrameInverse = [2]float32{1 / r.Width, 1 / r.Height}
	g.OutputFrameInverse = g.InputFrameInverse
	return dev.Draw(&DrawCall{
		Program: SolidProgram(c),
		Globals: g,
		Blend:   BlendNormal,
	})
}
