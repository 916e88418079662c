// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import "errors"

// Render errors.
var (
	// ErrTextureReleased is returned when a texture that already sits in the
	// pool is returned again or transferred.
	ErrTextureReleased = errors.New("render: texture already returned to pool")

	// ErrOwnership is returned when a texture is handed off by a holder that
	// does not own it.
	ErrOwnership = errors.New("render: texture ownership violation")

	// ErrForeignTexture is returned when a texture that was not allocated by
	// the pool is returned to it.
	ErrForeignTexture = errors.New("render: texture not allocated by this pool")

	// ErrInvalidSize is returned for non-positive texture dimensions.
	ErrInvalidSize = errors.New("render: invalid texture size")

	// ErrPoolClosed is returned when allocating from a closed pool.
	ErrPoolClosed = errors.New("render: texture pool closed")

	// ErrInvalidDraw is returned by devices for a draw call without a
	// program or globals.
	ErrInvalidDraw = errors.New("render: draw call needs a program and globals")
)
