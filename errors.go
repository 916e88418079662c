package filterpipe

import (
	"errors"
	"fmt"
)

var (
	// ErrTextureTooLarge is returned by Push when the scope needs a texture
	// larger than the device can allocate.
	ErrTextureTooLarge = errors.New("filterpipe: filter texture exceeds max texture size")

	// ErrEmptyStack is returned by Pop when no scope has been pushed.
	ErrEmptyStack = errors.New("filterpipe: pop on empty filter stack")

	// ErrNilTarget is returned by Push and Premeasure without a target.
	ErrNilTarget = errors.New("filterpipe: nil filter target")

	// ErrNoProgram is returned by ApplyFilter for a filter without a program.
	ErrNoProgram = errors.New("filterpipe: filter has no program")

	// ErrPipeClosed is returned by Pipe operations after Finalize.
	ErrPipeClosed = errors.New("filterpipe: pipe is not open")

	// ErrNoSavedTexture is returned by Pipe.Use for an empty save slot.
	ErrNoSavedTexture = errors.New("filterpipe: no saved texture")
)

// MeasureError reports a filter that finished Measure without setting a frame.
type MeasureError struct {
	// Filter is the label (or type) of the offending filter.
	Filter string
	// Child is the slash-separated path, below Filter, of the nested
	// filter that set no frame. It is empty when Filter itself is at fault.
	Child string
	// Index is the filter's position in the scope's list.
	Index int
}

func (e *MeasureError) Error() string {
	if e.Child != "" {
		return fmt.Sprintf("filterpipe: filter %q in %q (index %d) did not set a frame during measure", e.Child, e.Filter, e.Index)
	}
	return fmt.Sprintf("filterpipe: filter %q (index %d) did not set a frame during measure", e.Filter, e.Index)
}

// Unwrap lets errors.Is match ErrMeasure.
func (e *MeasureError) Unwrap() error { return ErrMeasure }

// ErrMeasure is the sentinel wrapped by every *MeasureError.
var ErrMeasure = errors.New("filterpipe: filter measurement failed")
