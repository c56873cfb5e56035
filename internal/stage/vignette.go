package stage

import (
	"math"

	"github.com/example/infantsight/internal/frame"
)

// FieldVignette multiplies a three-stop radial gradient over the frame,
// modeling peripheral suppression: full transmission inside half the
// central field radius, (1 - 0.4*suppression) at the radius, and
// (1 - suppression) at the frame's half-diagonal. Multiplicative, so
// saturated regions darken toward black rather than graying out. The
// exact center pixel is always left unchanged.
func FieldVignette(buf *frame.Buffer, centralRadiusPx, suppression float64) {
	if suppression <= 0 {
		return
	}
	if suppression > 1 {
		suppression = 1
	}
	cx := float64(buf.W-1) / 2
	cy := float64(buf.H-1) / 2
	halfDiag := math.Hypot(cx, cy)
	if halfDiag < 1e-6 {
		return
	}
	if centralRadiusPx < 1 {
		centralRadiusPx = 1
	}
	inner := centralRadiusPx / 2
	midGain := 1 - suppression*0.4
	outerGain := 1 - suppression

	for y := 0; y < buf.H; y++ {
		for x := 0; x < buf.W; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			gain := 1.0
			switch {
			case d <= inner:
				// full transmission
			case d <= centralRadiusPx:
				t := (d - inner) / math.Max(centralRadiusPx-inner, 1e-6)
				gain = 1 + (midGain-1)*t
			default:
				t := (d - centralRadiusPx) / math.Max(halfDiag-centralRadiusPx, 1e-6)
				if t > 1 {
					t = 1
				}
				gain = midGain + (outerGain-midGain)*t
			}
			if gain >= 1 {
				continue
			}
			i := buf.Offset(x, y)
			buf.Pix[i] = frame.ClampU8(float64(buf.Pix[i]) * gain)
			buf.Pix[i+1] = frame.ClampU8(float64(buf.Pix[i+1]) * gain)
			buf.Pix[i+2] = frame.ClampU8(float64(buf.Pix[i+2]) * gain)
		}
	}
}
