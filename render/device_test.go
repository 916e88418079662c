// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

func TestTextureDescriptor(t *testing.T) {
	tex := NewTexture(256, 128, 2)
	tex.Label = "filter-texture"
	desc := TextureDescriptor(tex)

	if desc.Size.Width != 256 {
		t.Errorf("Width = %d, want 256", desc.Size.Width)
	}
	if desc.Size.Height != 128 {
		t.Errorf("Height = %d, want 128", desc.Size.Height)
	}
	if desc.Size.DepthOrArrayLayers != 1 {
		t.Errorf("DepthOrArrayLayers = %d, want 1", desc.Size.DepthOrArrayLayers)
	}
	if desc.MipLevelCount != 1 {
		t.Errorf("MipLevelCount = %d, want 1", desc.MipLevelCount)
	}
	if desc.SampleCount != 1 {
		t.Errorf("SampleCount = %d, want 1", desc.SampleCount)
	}
	if desc.Format != DefaultFormat {
		t.Errorf("Format = %v, want %v", desc.Format, DefaultFormat)
	}
	if desc.Label != "filter-texture" {
		t.Errorf("Label = %q, want filter-texture", desc.Label)
	}
}

func TestTextureDescriptorUsage(t *testing.T) {
	usage := TextureDescriptor(NewTexture(4, 4, 1)).Usage

	// Filter textures are sampled, rendered into and read back.
	for _, flag := range []gputypes.TextureUsage{
		gputypes.TextureUsageTextureBinding,
		gputypes.TextureUsageRenderAttachment,
		gputypes.TextureUsageCopySrc,
		gputypes.TextureUsageCopyDst,
	} {
		if usage&flag == 0 {
			t.Errorf("Usage %v is missing %v", usage, flag)
		}
	}
}

func TestDeviceHandleAlias(t *testing.T) {
	// DeviceHandle is an alias: this only has to compile.
	var dh DeviceHandle
	acceptProvider := func(_ gpucontext.DeviceProvider) {}
	acceptProvider(dh)
}

func TestResolvedGeometry(t *testing.T) {
	call := &DrawCall{Program: IdentityProgram()}
	if call.ResolvedGeometry() != DefaultQuad() {
		t.Error("nil geometry should resolve to the default quad")
	}

	g := NewQuadTriangles(0, 0, 0.5, 0.5)
	call.Geometry = g
	if call.ResolvedGeometry() != g {
		t.Error("explicit geometry should be used as is")
	}
	if got := g.VertexCount(); got != 4 {
		t.Errorf("VertexCount = %d, want 4", got)
	}
}

func TestVertexModeOf(t *testing.T) {
	tests := []struct {
		name string
		prog Program
		want VertexMode
	}{
		{"identity", IdentityProgram(), VertexShift},
		{"rescale", RescaleProgram(), VertexRescale},
		{"solid", SolidProgram(Color{A: 1}), VertexShift},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VertexModeOf(tt.prog); got != tt.want {
				t.Errorf("VertexModeOf = %v, want %v", got, tt.want)
			}
		})
	}
}
