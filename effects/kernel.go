package effects

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/filterpipe/internal/cache"
)

// MaxKernelRadius is the largest number of taps a blur pass samples on each
// side of the center. Wider blurs spread the same taps further apart.
const MaxKernelRadius = 30

// Kernel holds one side of a symmetric Gaussian kernel.
type Kernel struct {
	// Weights[0] is the center weight, Weights[i] the weight of the taps
	// at distance i*Step. The full kernel sums to 1.
	Weights []float32
	// Step is the distance between taps in world units.
	Step float32
}

// Taps returns the number of taps on each side of the center.
func (k Kernel) Taps() int { return len(k.Weights) - 1 }

var kernels = cache.New[float32, Kernel](64)

// GaussianKernel returns the kernel of a blur reaching radius world units.
// Kernels are cached by radius; the returned weights must not be modified.
func GaussianKernel(radius float32) Kernel {
	if radius <= 0 {
		return Kernel{Weights: []float32{1}, Step: 1}
	}
	return kernels.GetOrCreate(radius, func() Kernel {
		return newKernel(radius)
	})
}

func newKernel(radius float32) Kernel {
	taps := int(math32.Ceil(radius))
	step := float32(1)
	if taps > MaxKernelRadius {
		step = radius / MaxKernelRadius
		taps = MaxKernelRadius
	}
	// The kernel reaches three standard deviations at radius.
	sigma := radius / 3
	weights := make([]float32, taps+1)
	sum := float32(0)
	for i := range weights {
		d := float32(i) * step
		weights[i] = math32.Exp(-d * d / (2 * sigma * sigma))
		if i == 0 {
			sum += weights[i]
		} else {
			sum += 2 * weights[i]
		}
	}
	for i := range weights {
		weights[i] /= sum
	}
	return Kernel{Weights: weights, Step: step}
}
