// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package render is the boundary between the filter pipeline and whatever
// actually stores pixels and runs shaders.
//
// The filter system never touches GPU objects directly. It consumes the
// services defined here:
//
//   - Device: bind/clear a render target, draw a quad with a Program, report
//     the maximum texture size, and allocate backing storage for textures
//   - TexturePool: recycles render targets keyed by power-of-two size and
//     resolution, with ownership tags on every handle
//   - Globals: the per-pass uniform block shared by all filter programs
//
// Two devices ship with the module: backend/software renders into
// *image.RGBA on the CPU, and backend/wgpu renders through gogpu/wgpu.
//
// # Coordinate spaces
//
// A texture holds the world-space region given by its FilterFrame. Binding a
// texture maps a world-space source frame onto a destination frame measured
// in logical texture units (physical pixels divided by resolution). Geometry
// positions are normalized to the output frame of the current pass.
package render
