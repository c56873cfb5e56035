package stage

import (
	"math"
	"math/rand"

	"github.com/example/infantsight/internal/convolve"
	"github.com/example/infantsight/internal/frame"
	"github.com/example/infantsight/internal/kernel"
)

// PhotoreceptorNoise adds zero-mean noise per channel with a
// signal-dependent scale sigma = sqrt(max(1,L)) * noise * 0.6, L the
// pixel's luma in [0,255]. Heteroscedastic, approximating Poisson-like
// photon and dark noise. noise <= 0 is a strict no-op (the RNG is not
// consumed, keeping sequences reproducible across toggles).
func PhotoreceptorNoise(buf *frame.Buffer, noise float64, rng *rand.Rand) {
	if noise <= 0 {
		return
	}
	for i := 0; i < len(buf.Pix); i += 4 {
		r := float64(buf.Pix[i])
		g := float64(buf.Pix[i+1])
		b := float64(buf.Pix[i+2])
		lum := 0.2126*r + 0.7152*g + 0.0722*b
		sigma := math.Sqrt(math.Max(1, lum)) * noise * 0.6

		buf.Pix[i] = frame.ClampU8(r + rng.NormFloat64()*sigma)
		buf.Pix[i+1] = frame.ClampU8(g + rng.NormFloat64()*sigma)
		buf.Pix[i+2] = frame.ClampU8(b + rng.NormFloat64()*sigma)
	}
}

// CenterSigmaPx is the fixed narrow Gaussian of the center-surround pair.
const CenterSigmaPx = 0.8

// SurroundSigma widens as inhibition weakens: immature suppression pools
// over a broader, sloppier surround.
func SurroundSigma(inhibition float64) float64 {
	return 2.0 + 2.0*(1-inhibition)
}

// LateralInhibition sharpens edges with a Difference-of-Gaussians model:
// out = src - k*(center - surround), k = 0.5*inhibition. center/surround
// kernels are precomputed by the caller; centerBuf, surroundBuf and tmp
// are scratch. inhibition = 0 writes src through unchanged.
func LateralInhibition(dst, src, centerBuf, surroundBuf, tmp *frame.Buffer,
	center, surround kernel.Kernel1D, inhibition float64) error {

	if inhibition <= 0 {
		return dst.CopyFrom(src)
	}
	if inhibition > 1 {
		inhibition = 1
	}
	if err := convolve.Separable(centerBuf, tmp, src, center); err != nil {
		return err
	}
	if err := convolve.Separable(surroundBuf, tmp, src, surround); err != nil {
		return err
	}
	k := 0.5 * inhibition
	for i := 0; i < len(src.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			dog := float64(centerBuf.Pix[i+c]) - float64(surroundBuf.Pix[i+c])
			dst.Pix[i+c] = frame.ClampU8(float64(src.Pix[i+c]) - k*dog)
		}
		dst.Pix[i+3] = 0xff
	}
	return nil
}
