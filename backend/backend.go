package backend

import (
	"errors"

	"github.com/gogpu/filterpipe/render"
)

// Device name constants.
const (
	// NameSoftware is the CPU device in backend/software.
	NameSoftware = "software"
	// NameWGPU is the GPU device in backend/wgpu. It is registered only once
	// a host application supplies a GPU device (see wgpu.Register).
	NameWGPU = "wgpu"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested device is not
	// registered.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrInvalidSize is returned for a non-positive framebuffer size.
	ErrInvalidSize = errors.New("backend: invalid framebuffer size")
)

// DeviceFactory creates a render.Device whose default framebuffer is
// width x height pixels.
type DeviceFactory func(width, height int) (render.Device, error)
