// Package source provides frame producers for the CLI and tests. These
// stand in for the camera collaborator: each fills an RGBA buffer once
// per tick. Mirroring, when requested, happens here — on the capture
// side — never inside the processing core.
package source

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/example/infantsight/internal/frame"
)

// Source fills dst with the frame for time t (seconds since start).
type Source interface {
	Frame(t float64, dst *frame.Buffer) error
}

// Mirrored wraps a source and flips its frames horizontally.
type Mirrored struct {
	Src Source
}

func (m Mirrored) Frame(t float64, dst *frame.Buffer) error {
	if err := m.Src.Frame(t, dst); err != nil {
		return err
	}
	for y := 0; y < dst.H; y++ {
		for x := 0; x < dst.W/2; x++ {
			xi := dst.Offset(x, y)
			xj := dst.Offset(dst.W-1-x, y)
			for c := 0; c < 4; c++ {
				dst.Pix[xi+c], dst.Pix[xj+c] = dst.Pix[xj+c], dst.Pix[xi+c]
			}
		}
	}
	return nil
}

// Uniform emits a constant opaque color.
type Uniform struct {
	R, G, B uint8
}

func (u Uniform) Frame(_ float64, dst *frame.Buffer) error {
	dst.Fill(u.R, u.G, u.B)
	return nil
}

// EdgeChart emits a hard vertical black/white edge at the given column
// fraction, the acuity test target.
type EdgeChart struct {
	EdgeFrac float64 // 0..1, default 0.5
}

func (e EdgeChart) Frame(_ float64, dst *frame.Buffer) error {
	frac := e.EdgeFrac
	if frac <= 0 || frac >= 1 {
		frac = 0.5
	}
	edge := int(float64(dst.W) * frac)
	for y := 0; y < dst.H; y++ {
		for x := 0; x < dst.W; x++ {
			if x < edge {
				dst.SetRGB(x, y, 0, 0, 0)
			} else {
				dst.SetRGB(x, y, 255, 255, 255)
			}
		}
	}
	return nil
}

// Drift emits a slowly moving color gradient so live demos show motion
// without a camera.
type Drift struct{}

func (Drift) Frame(t float64, dst *frame.Buffer) error {
	for y := 0; y < dst.H; y++ {
		for x := 0; x < dst.W; x++ {
			fx := float64(x) / float64(dst.W)
			fy := float64(y) / float64(dst.H)
			r := 0.5 + 0.5*math.Sin(2*math.Pi*(fx+t*0.05))
			g := 0.5 + 0.5*math.Sin(2*math.Pi*(fy+t*0.07))
			b := 0.5 + 0.5*math.Sin(2*math.Pi*(fx+fy-t*0.03))
			dst.SetRGB(x, y, frame.ClampU8(r*255), frame.ClampU8(g*255), frame.ClampU8(b*255))
		}
	}
	return nil
}

// Still serves one decoded image, rescaled to each destination buffer's
// resolution with a bilinear kernel.
type Still struct {
	img image.Image

	// cached scale result, rebuilt when the requested size changes
	scaled *image.RGBA
}

// LoadStill decodes a PNG or JPEG from disk.
func LoadStill(path string) (*Still, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open still source: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode still source %s: %w", path, err)
	}
	return &Still{img: img}, nil
}

func (s *Still) Frame(_ float64, dst *frame.Buffer) error {
	rect := image.Rect(0, 0, dst.W, dst.H)
	if s.scaled == nil || s.scaled.Rect != rect {
		s.scaled = image.NewRGBA(rect)
		xdraw.BiLinear.Scale(s.scaled, rect, s.img, s.img.Bounds(), xdraw.Src, nil)
	}
	b, err := frame.FromImage(s.scaled)
	if err != nil {
		return err
	}
	return dst.CopyFrom(b)
}

// New builds a source by name: "drift", "gray", "edge", or a path to an
// image file for anything else.
func New(name string) (Source, error) {
	switch name {
	case "", "drift":
		return Drift{}, nil
	case "gray":
		return Uniform{R: 128, G: 128, B: 128}, nil
	case "edge":
		return EdgeChart{}, nil
	default:
		return LoadStill(name)
	}
}
