// Package convolve applies 1-D kernels to pixel buffers as two separable
// passes, O(n*k) instead of O(n*k^2) for the equivalent 2-D filter.
package convolve

import (
	"fmt"

	"github.com/example/infantsight/internal/frame"
	"github.com/example/infantsight/internal/kernel"
)

// Axis selects the direction of a single 1-D pass.
type Axis int

const (
	Horizontal Axis = iota
	Vertical
)

// Pass convolves src along one axis into dst. Samples outside the frame
// are edge-replicated; the kernel weights are applied unrenormalized at
// the border, so borders pick up a slight bias toward the replicated
// edge value. That bias is deliberate and kept stable for tests.
func Pass(dst, src *frame.Buffer, k kernel.Kernel1D, axis Axis) error {
	if !dst.SameSize(src) {
		return fmt.Errorf("convolve: size mismatch %dx%d vs %dx%d", dst.W, dst.H, src.W, src.H)
	}
	if dst == src {
		return fmt.Errorf("convolve: src and dst must be distinct buffers")
	}
	radius := k.Radius()
	for y := 0; y < src.H; y++ {
		for x := 0; x < src.W; x++ {
			var ar, ag, ab float64
			for i := -radius; i <= radius; i++ {
				var r, g, b uint8
				if axis == Horizontal {
					r, g, b = src.SampleClamped(x+i, y)
				} else {
					r, g, b = src.SampleClamped(x, y+i)
				}
				w := k.Weights[i+radius]
				ar += float64(r) * w
				ag += float64(g) * w
				ab += float64(b) * w
			}
			dst.SetRGB(x, y, frame.ClampU8(ar), frame.ClampU8(ag), frame.ClampU8(ab))
		}
	}
	return nil
}

// Separable runs the horizontal pass of k into tmp and the vertical pass
// into dst. src is left untouched; tmp is scratch owned by the caller
// (the orchestrator keeps one per session to avoid per-tick allocation).
func Separable(dst, tmp, src *frame.Buffer, k kernel.Kernel1D) error {
	if err := Pass(tmp, src, k, Horizontal); err != nil {
		return err
	}
	return Pass(dst, tmp, k, Vertical)
}
