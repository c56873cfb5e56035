// Package diagnostics carries structured runtime findings from the
// pipeline to the outer surfaces, plus summary statistics over frames.
package diagnostics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/example/infantsight/internal/frame"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// FrameStats summarizes a frame's luma distribution (0..255 scale).
type FrameStats struct {
	MeanLuma   float64 `json:"mean_luma"`
	StdDevLuma float64 `json:"stddev_luma"`
	MinLuma    float64 `json:"min_luma"`
	MaxLuma    float64 `json:"max_luma"`
}

// Analyze computes luma statistics over the whole frame. Used by the
// state server and by the uniformity checks in tests.
func Analyze(buf *frame.Buffer) FrameStats {
	n := buf.W * buf.H
	lumas := make([]float64, 0, n)
	minL, maxL := 255.0, 0.0
	for i := 0; i < len(buf.Pix); i += 4 {
		l := 0.2126*float64(buf.Pix[i]) + 0.7152*float64(buf.Pix[i+1]) + 0.0722*float64(buf.Pix[i+2])
		lumas = append(lumas, l)
		if l < minL {
			minL = l
		}
		if l > maxL {
			maxL = l
		}
	}
	mean, std := stat.MeanStdDev(lumas, nil)
	if len(lumas) < 2 {
		std = 0
	}
	return FrameStats{MeanLuma: mean, StdDevLuma: std, MinLuma: minL, MaxLuma: maxL}
}

// Uniform reports whether the frame is spatially flat within tol luma
// levels.
func (s FrameStats) Uniform(tol float64) bool {
	return s.MaxLuma-s.MinLuma <= tol
}
