// Package frame provides the RGBA pixel-buffer view the processing stages
// operate on. The layout is row-major 4-byte RGBA, byte-compatible with
// image.RGBA's Pix slice so frames move in and out of the standard image
// types without copying.
package frame

import (
	"fmt"
	"image"
)

// Buffer is a width x height grid of RGBA8 samples. A buffer is owned by
// exactly one stage at a time; stages hand ownership downstream rather
// than sharing, except as explicit src/dst pairs in a convolution.
type Buffer struct {
	W, H int
	Pix  []uint8 // len = W*H*4
}

// New allocates an opaque black buffer.
func New(w, h int) (*Buffer, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid frame dimensions %dx%d", w, h)
	}
	b := &Buffer{W: w, H: h, Pix: make([]uint8, w*h*4)}
	for i := 3; i < len(b.Pix); i += 4 {
		b.Pix[i] = 0xff
	}
	return b, nil
}

// Offset returns the index of pixel (x,y) in Pix. No bounds check; callers
// iterate within W/H.
func (b *Buffer) Offset(x, y int) int { return (y*b.W + x) * 4 }

// RGB reads the color channels at (x,y).
func (b *Buffer) RGB(x, y int) (r, g, bl uint8) {
	i := b.Offset(x, y)
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2]
}

// SetRGB writes the color channels at (x,y) and forces the pixel opaque.
func (b *Buffer) SetRGB(x, y int, r, g, bl uint8) {
	i := b.Offset(x, y)
	b.Pix[i] = r
	b.Pix[i+1] = g
	b.Pix[i+2] = bl
	b.Pix[i+3] = 0xff
}

// SampleClamped reads (x,y) with coordinates clamped into the valid range
// (edge replicate). This is the only out-of-bounds policy in the pipeline;
// nothing wraps or zero-pads.
func (b *Buffer) SampleClamped(x, y int) (r, g, bl uint8) {
	if x < 0 {
		x = 0
	} else if x >= b.W {
		x = b.W - 1
	}
	if y < 0 {
		y = 0
	} else if y >= b.H {
		y = b.H - 1
	}
	return b.RGB(x, y)
}

// SameSize reports whether two buffers have identical dimensions.
func (b *Buffer) SameSize(o *Buffer) bool { return o != nil && b.W == o.W && b.H == o.H }

// CopyFrom overwrites b with src. Dimensions must match.
func (b *Buffer) CopyFrom(src *Buffer) error {
	if !b.SameSize(src) {
		return fmt.Errorf("size mismatch: %dx%d vs %dx%d", b.W, b.H, src.W, src.H)
	}
	copy(b.Pix, src.Pix)
	return nil
}

// Clone returns an independent copy.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{W: b.W, H: b.H, Pix: make([]uint8, len(b.Pix))}
	copy(c.Pix, b.Pix)
	return c
}

// Fill sets every pixel to the given opaque color.
func (b *Buffer) Fill(r, g, bl uint8) {
	for i := 0; i < len(b.Pix); i += 4 {
		b.Pix[i] = r
		b.Pix[i+1] = g
		b.Pix[i+2] = bl
		b.Pix[i+3] = 0xff
	}
}

// FromImage copies an image into a new Buffer, converting color models as
// needed. The fast path aliases nothing; pixels are always copied.
func FromImage(img image.Image) (*Buffer, error) {
	bounds := img.Bounds()
	b, err := New(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == b.W*4 {
		copy(b.Pix, rgba.Pix[:len(b.Pix)])
		for i := 3; i < len(b.Pix); i += 4 {
			b.Pix[i] = 0xff
		}
		return b, nil
	}
	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			r, g, bl, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			b.SetRGB(x, y, uint8(r>>8), uint8(g>>8), uint8(bl>>8))
		}
	}
	return b, nil
}

// ToImage wraps the buffer's pixels in an image.RGBA sharing storage.
// The caller must not use the image after the buffer is reused.
func (b *Buffer) ToImage() *image.RGBA {
	return &image.RGBA{Pix: b.Pix, Stride: b.W * 4, Rect: image.Rect(0, 0, b.W, b.H)}
}

// ClampU8 rounds and clamps a float sample into [0,255].
func ClampU8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// Clamp01 clamps a linear-light sample into [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
