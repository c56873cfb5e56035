package stage

import (
	"math"

	"github.com/example/infantsight/internal/frame"
)

// Temporal is the optional temporal-integration utility. It is not part
// of the mandatory stage chain; when enabled it exponentially blends each
// new frame into a retained float accumulator with the preset's
// integration time constant, smearing fast motion the way an immature
// temporal response does.
type Temporal struct {
	acc  []float64 // linear accumulator per RGB channel
	w, h int
}

// Reset drops the accumulator so the next frame passes through unchanged.
func (t *Temporal) Reset() { t.acc = nil }

// Apply integrates buf in place. dtMs is the elapsed time since the
// previous frame; tauMs the preset's temporal integration constant.
func (t *Temporal) Apply(buf *frame.Buffer, dtMs, tauMs float64) {
	if tauMs <= 0 || dtMs <= 0 {
		t.Reset()
		return
	}
	n := buf.W * buf.H * 3
	if t.acc == nil || t.w != buf.W || t.h != buf.H {
		t.acc = make([]float64, n)
		t.w, t.h = buf.W, buf.H
		for i, j := 0, 0; j < len(buf.Pix); j += 4 {
			t.acc[i] = float64(buf.Pix[j])
			t.acc[i+1] = float64(buf.Pix[j+1])
			t.acc[i+2] = float64(buf.Pix[j+2])
			i += 3
		}
		return
	}
	// First-order lag: alpha -> 1 as dt >> tau.
	alpha := 1 - math.Exp(-dtMs/tauMs)
	for i, j := 0, 0; j < len(buf.Pix); j += 4 {
		for c := 0; c < 3; c++ {
			t.acc[i+c] += (float64(buf.Pix[j+c]) - t.acc[i+c]) * alpha
			buf.Pix[j+c] = frame.ClampU8(t.acc[i+c])
		}
		buf.Pix[j+3] = 0xff
		i += 3
	}
}
