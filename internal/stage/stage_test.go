package stage_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/infantsight/internal/colorspace"
	"github.com/example/infantsight/internal/frame"
	"github.com/example/infantsight/internal/kernel"
	"github.com/example/infantsight/internal/preset"
	"github.com/example/infantsight/internal/stage"
)

func mustBuf(t *testing.T, w, h int) *frame.Buffer {
	t.Helper()
	b, err := frame.New(w, h)
	require.NoError(t, err)
	return b
}

func TestCompressContrastFlattensTowardLuminance(t *testing.T) {
	buf := mustBuf(t, 2, 1)
	buf.SetRGB(0, 0, 255, 0, 0)
	buf.SetRGB(1, 0, 0, 0, 255)

	stage.CompressContrast(buf, 0)

	// Fully flattened pixels are gray at their own luminance.
	r, g, b := buf.RGB(0, 0)
	assert.InDelta(t, float64(r), float64(g), 1)
	assert.InDelta(t, float64(g), float64(b), 1)

	// Red carries far more Rec.709 luminance than blue.
	r2, _, _ := buf.RGB(1, 0)
	assert.Greater(t, r, r2)
}

func TestCompressContrastSlopeOneIsNoop(t *testing.T) {
	buf := mustBuf(t, 3, 3)
	buf.Fill(200, 40, 90)
	want := buf.Clone()
	stage.CompressContrast(buf, 1)
	assert.Equal(t, want.Pix, buf.Pix)
}

// Scenario C: a saturated red frame at stage 1 keeps red dominant while
// green and blue collapse toward zero with the low M/S sensitivities.
func TestColorVisionStageOneSolidRed(t *testing.T) {
	p, err := preset.Default().Get(1)
	require.NoError(t, err)

	buf := mustBuf(t, 32, 32)
	buf.Fill(255, 0, 0)
	stage.ColorVision(buf, 1, p, stage.ColorModelStaged)

	r, g, b := buf.RGB(16, 16)

	// Known closed form: lum = LumR for pure red, out in linear light.
	lum := colorspace.LumR
	wantR := frame.ClampU8(colorspace.LinearToSRGB(frame.Clamp01(lum*0.85+1*p.Cones.L*0.25)) * 255)
	wantG := frame.ClampU8(colorspace.LinearToSRGB(frame.Clamp01(lum*0.85*p.Cones.M)) * 255)
	wantB := frame.ClampU8(colorspace.LinearToSRGB(frame.Clamp01(lum*0.85*p.Cones.S)) * 255)
	assert.Equal(t, wantR, r)
	assert.Equal(t, wantG, g)
	assert.Equal(t, wantB, b)

	assert.Greater(t, r, g)
	assert.Greater(t, g, b)
	// Linear-light G and B are near zero; sRGB encoding lifts small
	// values, so bound them loosely.
	assert.Less(t, float64(b), 0.35*255)
}

// Scenario A: uniform input stays spatially uniform through the color
// stage and acquires the L >= M >= S cast.
func TestColorVisionUniformStaysUniform(t *testing.T) {
	for age := 1; age <= 3; age++ {
		p, err := preset.Default().Get(age)
		require.NoError(t, err)

		buf := mustBuf(t, 8, 8)
		buf.Fill(128, 128, 128)
		stage.ColorVision(buf, age, p, stage.ColorModelStaged)

		r0, g0, b0 := buf.RGB(0, 0)
		for y := 0; y < buf.H; y++ {
			for x := 0; x < buf.W; x++ {
				r, g, b := buf.RGB(x, y)
				assert.Equal(t, r0, r, "age %d", age)
				assert.Equal(t, g0, g, "age %d", age)
				assert.Equal(t, b0, b, "age %d", age)
			}
		}
		assert.GreaterOrEqual(t, r0, g0, "age %d", age)
		assert.GreaterOrEqual(t, g0, b0, "age %d", age)
	}
}

// Color discrimination must improve with age in both formulations: the
// residual channel spread of a colorful pixel grows toward the adult
// values stage over stage.
func TestColorVisionDiscriminationImprovesWithAge(t *testing.T) {
	for _, model := range []stage.ColorModel{stage.ColorModelStaged, stage.ColorModelLMS} {
		prevGreen := -1.0
		for age := 1; age <= 3; age++ {
			p, _ := preset.Default().Get(age)
			buf := mustBuf(t, 1, 1)
			buf.SetRGB(0, 0, 0, 255, 0)
			stage.ColorVision(buf, age, p, model)
			_, g, _ := buf.RGB(0, 0)
			assert.GreaterOrEqual(t, float64(g), prevGreen, "model %d age %d", model, age)
			prevGreen = float64(g)
		}
	}
}

func TestScatterZeroFactorIsNoop(t *testing.T) {
	buf := mustBuf(t, 8, 8)
	buf.SetRGB(4, 4, 250, 10, 10)
	want := buf.Clone()
	require.NoError(t, stage.Scatter(buf, mustBuf(t, 8, 8), mustBuf(t, 8, 8), kernel.Gaussian(2), 0))
	assert.Equal(t, want.Pix, buf.Pix)
}

func TestScatterAddsGlowAroundHighlight(t *testing.T) {
	buf := mustBuf(t, 21, 21)
	buf.SetRGB(10, 10, 255, 255, 255)
	k := kernel.Gaussian(stage.ScatterSigma(0.5))
	require.NoError(t, stage.Scatter(buf, mustBuf(t, 21, 21), mustBuf(t, 21, 21), k, 0.5))

	// Screen blend never darkens, and neighbors of the highlight gain light.
	r, _, _ := buf.RGB(10, 10)
	assert.Equal(t, uint8(255), r)
	nr, _, _ := buf.RGB(11, 10)
	assert.Greater(t, nr, uint8(0))
}

func TestChromaticAberrationCenterPixelStable(t *testing.T) {
	src := mustBuf(t, 21, 21)
	dst := mustBuf(t, 21, 21)
	src.SetRGB(10, 10, 200, 150, 100)
	require.NoError(t, stage.ChromaticAberration(dst, src, 3))
	r, g, b := dst.RGB(10, 10)
	assert.Equal(t, [3]uint8{200, 150, 100}, [3]uint8{r, g, b})
}

func TestChromaticAberrationSeparatesChannelsAtEdge(t *testing.T) {
	// Left half white, right half black; fringes appear along the edge
	// off-center where red and blue sample different columns.
	src := mustBuf(t, 33, 33)
	for y := 0; y < 33; y++ {
		for x := 0; x < 16; x++ {
			src.SetRGB(x, y, 255, 255, 255)
		}
	}
	dst := mustBuf(t, 33, 33)
	require.NoError(t, stage.ChromaticAberration(dst, src, 4))

	fringed := false
	for y := 0; y < 33; y++ {
		for x := 0; x < 33; x++ {
			r, _, b := dst.RGB(x, y)
			if r != b {
				fringed = true
			}
		}
	}
	assert.True(t, fringed, "expected red/blue fringing at the luminance edge")
}

func TestFieldVignetteCenterUnchangedAndEdgesDarkened(t *testing.T) {
	buf := mustBuf(t, 33, 33)
	buf.Fill(255, 255, 255)
	stage.FieldVignette(buf, 6, 0.75)

	r, g, b := buf.RGB(16, 16)
	assert.Equal(t, [3]uint8{255, 255, 255}, [3]uint8{r, g, b}, "gradient's first stop is full transmission")

	// Corner sits at the half-diagonal: full attenuation 1-suppression.
	cr, _, _ := buf.RGB(0, 0)
	assert.InDelta(t, 255*(1-0.75), float64(cr), 1.5)

	// At the central radius the gain is 1 - 0.4*suppression.
	mr, _, _ := buf.RGB(16+6, 16)
	assert.InDelta(t, 255*(1-0.75*0.4), float64(mr), 1.5)

	// Monotone darkening outward along a row.
	prev := 256
	for x := 16; x < 33; x++ {
		v, _, _ := buf.RGB(x, 16)
		assert.LessOrEqual(t, int(v), prev, "column %d", x)
		prev = int(v)
	}
}

func TestFieldVignetteZeroSuppressionIsNoop(t *testing.T) {
	buf := mustBuf(t, 9, 9)
	buf.Fill(80, 160, 240)
	want := buf.Clone()
	stage.FieldVignette(buf, 3, 0)
	assert.Equal(t, want.Pix, buf.Pix)
}

func TestPhotoreceptorNoiseZeroIsDeterministicNoop(t *testing.T) {
	buf := mustBuf(t, 8, 8)
	buf.Fill(90, 120, 30)
	want := buf.Clone()

	rng := rand.New(rand.NewSource(1))
	stage.PhotoreceptorNoise(buf, 0, rng)
	assert.Equal(t, want.Pix, buf.Pix)

	// The RNG must not have been consumed.
	fresh := rand.New(rand.NewSource(1))
	assert.Equal(t, fresh.Int63(), rng.Int63())
}

func TestPhotoreceptorNoisePerturbsButStaysInRange(t *testing.T) {
	buf := mustBuf(t, 16, 16)
	buf.Fill(128, 128, 128)
	rng := rand.New(rand.NewSource(42))
	stage.PhotoreceptorNoise(buf, 0.5, rng)

	changed := false
	for i := 0; i < len(buf.Pix); i += 4 {
		if buf.Pix[i] != 128 {
			changed = true
		}
	}
	assert.True(t, changed)
}

func TestLateralInhibitionZeroIsNoop(t *testing.T) {
	src := mustBuf(t, 16, 16)
	src.SetRGB(8, 8, 255, 0, 128)
	dst := mustBuf(t, 16, 16)

	err := stage.LateralInhibition(dst, src,
		mustBuf(t, 16, 16), mustBuf(t, 16, 16), mustBuf(t, 16, 16),
		kernel.Gaussian(stage.CenterSigmaPx), kernel.Gaussian(stage.SurroundSigma(0)), 0)
	require.NoError(t, err)
	assert.Equal(t, src.Pix, dst.Pix)
}

func TestLateralInhibitionUniformFieldUnchanged(t *testing.T) {
	// center and surround blurs of a uniform field agree, so the DoG
	// vanishes everywhere regardless of gain.
	src := mustBuf(t, 16, 16)
	src.Fill(100, 150, 200)
	dst := mustBuf(t, 16, 16)

	err := stage.LateralInhibition(dst, src,
		mustBuf(t, 16, 16), mustBuf(t, 16, 16), mustBuf(t, 16, 16),
		kernel.Gaussian(stage.CenterSigmaPx), kernel.Gaussian(stage.SurroundSigma(0.65)), 0.65)
	require.NoError(t, err)

	for i := 0; i < len(dst.Pix); i += 4 {
		assert.InDelta(t, float64(src.Pix[i]), float64(dst.Pix[i]), 1)
	}
}

func TestSurroundSigmaWidensAsInhibitionWeakens(t *testing.T) {
	assert.Greater(t, stage.SurroundSigma(0.2), stage.SurroundSigma(0.65))
	assert.InDelta(t, 2.0, stage.SurroundSigma(1), 1e-9)
}

func TestTemporalFirstFramePassesThrough(t *testing.T) {
	var tp stage.Temporal
	buf := mustBuf(t, 4, 4)
	buf.Fill(10, 200, 30)
	want := buf.Clone()
	tp.Apply(buf, 16, 300)
	assert.Equal(t, want.Pix, buf.Pix)
}

func TestTemporalSmearsTowardNewFrame(t *testing.T) {
	var tp stage.Temporal
	a := mustBuf(t, 4, 4)
	a.Fill(0, 0, 0)
	tp.Apply(a, 16, 300)

	b := mustBuf(t, 4, 4)
	b.Fill(255, 255, 255)
	tp.Apply(b, 16, 300)

	r, _, _ := b.RGB(0, 0)
	assert.Greater(t, r, uint8(0))
	assert.Less(t, r, uint8(255), "integration lags a step change")

	// Zero tau disables integration entirely.
	tp.Apply(b, 16, 0)
	r, _, _ = b.RGB(0, 0)
	assert.Less(t, r, uint8(255))
}
