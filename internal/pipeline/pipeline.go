// Package pipeline sequences the processing stages over a chain of
// buffers, one full traversal per external tick. Ticks never overlap:
// the caller's scheduler drops a tick when the previous one has not
// finished, so all per-session state here is single-threaded by design.
package pipeline

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/infantsight/internal/frame"
	"github.com/example/infantsight/internal/kernel"
	"github.com/example/infantsight/internal/preset"
	"github.com/example/infantsight/internal/stage"
)

var (
	ErrInvalidDimensions = errors.New("invalid frame dimensions")
	ErrNotArmed          = errors.New("pipeline not armed")
)

// State is the orchestrator's lifecycle position.
type State int

const (
	Idle State = iota
	Armed
	Running
)

func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Running:
		return "running"
	default:
		return "idle"
	}
}

// Context is the per-session state handed into each tick: the selected
// age, the toggles, and the buffers sized to the current resolution.
// Mirroring is applied by the external capture collaborator and is only
// recorded here so the outer surfaces can report it.
type Context struct {
	SessionID  uuid.UUID
	Age        int
	Vignette   bool
	Mirror     bool
	ColorModel stage.ColorModel
	Temporal   bool
	HFOVDeg    float64
}

// kernelSet caches the kernels derived from one (preset, ppd) pair.
// Invalidated whenever the frame resolution (and with it the ppd
// estimate) changes.
type kernelSet struct {
	age      int
	ppd      float64
	acuity   kernel.Kernel1D // CSF-derived Gaussian blur
	glow     kernel.Kernel1D // scatter veil
	center   kernel.Kernel1D
	surround kernel.Kernel1D
}

// Metrics reports the last tick's per-stage durations in milliseconds.
type Metrics struct {
	SpatialMS float64
	ColorMS   float64
	OpticalMS float64
	FieldMS   float64
	NeuralMS  float64
	TotalMS   float64
	Frames    uint64
}

// Engine owns the buffers, kernel cache and preset table for one session
// and applies the stage chain input->frequency->color->optical->field->
// neural once per ProcessFrame call.
type Engine struct {
	ctx     Context
	presets preset.Table
	log     zerolog.Logger

	state      State
	pendingAge int // applied at the next tick boundary

	w, h int
	ppd  float64

	// Scratch buffers, retained across ticks.
	work, aux, scratch, tmp *frame.Buffer

	kernels  kernelSet
	rng      *rand.Rand
	temporal stage.Temporal
	lastTick time.Time

	Last Metrics
}

// Option adjusts engine construction.
type Option func(*Engine)

// WithSeed fixes the photoreceptor-noise RNG for reproducible runs.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) }
}

// WithLogger routes lifecycle events to the given logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New validates the starting context against the preset table and
// returns an Idle engine. Unknown age keys fail fast here and in SetAge;
// presets change every stage's math, so defaulting silently would be
// worse than refusing.
func New(presets preset.Table, ctx Context, opts ...Option) (*Engine, error) {
	if _, err := presets.Get(ctx.Age); err != nil {
		return nil, err
	}
	if ctx.HFOVDeg <= 0 {
		ctx.HFOVDeg = kernel.DefaultHorizontalFOVDeg
	}
	if ctx.SessionID == uuid.Nil {
		ctx.SessionID = uuid.New()
	}
	e := &Engine{
		ctx:        ctx,
		presets:    presets,
		state:      Idle,
		pendingAge: ctx.Age,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Arm sizes the buffers for the given resolution, derives the
// pixels-per-degree estimate and kernel cache, and moves Idle -> Armed.
// Re-arming at a new resolution is how resolution changes are handled.
func (e *Engine) Arm(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, w, h)
	}
	var err error
	if e.work, err = frame.New(w, h); err != nil {
		return err
	}
	if e.aux, err = frame.New(w, h); err != nil {
		return err
	}
	if e.scratch, err = frame.New(w, h); err != nil {
		return err
	}
	if e.tmp, err = frame.New(w, h); err != nil {
		return err
	}
	e.w, e.h = w, h
	e.ppd = kernel.PixelsPerDegree(w, h, e.ctx.HFOVDeg)
	e.kernels = kernelSet{} // force rebuild against the new ppd
	e.temporal.Reset()
	e.state = Armed
	e.log.Info().
		Int("width", w).Int("height", h).
		Float64("ppd", e.ppd).
		Str("session", e.ctx.SessionID.String()).
		Msg("pipeline armed")
	return nil
}

// Teardown releases the session's buffers and returns to Idle.
func (e *Engine) Teardown() {
	e.work, e.aux, e.scratch, e.tmp = nil, nil, nil, nil
	e.kernels = kernelSet{}
	e.temporal.Reset()
	e.state = Idle
	e.Last = Metrics{}
	e.log.Info().Str("session", e.ctx.SessionID.String()).Msg("pipeline torn down")
}

// State reports the current lifecycle state.
func (e *Engine) State() State { return e.state }

// Context returns a copy of the session context as of the last tick.
func (e *Engine) Context() Context { return e.ctx }

// PixelsPerDegree reports the current angular sampling estimate.
func (e *Engine) PixelsPerDegree() float64 { return e.ppd }

// SetAge schedules a preset switch for the next tick. Unknown keys are
// rejected without touching the active preset.
func (e *Engine) SetAge(age int) error {
	if _, err := e.presets.Get(age); err != nil {
		return err
	}
	e.pendingAge = age
	return nil
}

// SetVignette toggles the peripheral-field stage from the next tick.
func (e *Engine) SetVignette(on bool) { e.ctx.Vignette = on }

// SetTemporal toggles the optional temporal-integration utility.
func (e *Engine) SetTemporal(on bool) {
	e.ctx.Temporal = on
	if !on {
		e.temporal.Reset()
	}
}

func (e *Engine) ensureKernels(p preset.Preset) {
	if e.kernels.age == e.ctx.Age && e.kernels.ppd == e.ppd {
		return
	}
	sigma := kernel.SigmaFromCutoff(p.SpatialCutoffCPD, e.ppd)
	e.kernels = kernelSet{
		age:      e.ctx.Age,
		ppd:      e.ppd,
		acuity:   kernel.Gaussian(sigma),
		glow:     kernel.Gaussian(stage.ScatterSigma(p.ScatteringFactor)),
		center:   kernel.Gaussian(stage.CenterSigmaPx),
		surround: kernel.Gaussian(stage.SurroundSigma(p.LateralInhibition)),
	}
	e.log.Debug().
		Int("age", e.ctx.Age).
		Float64("sigma_px", sigma).
		Float64("ppd", e.ppd).
		Msg("kernels rebuilt")
}

// ProcessFrame runs one tick: src is copied into the working buffer and
// the stage chain writes the result into dst. src and dst must both
// match the armed resolution; a mismatched src re-arms the session at
// the new size first. On error dst is left untouched (never partially
// blended), and the next tick starts from a clean copy regardless.
func (e *Engine) ProcessFrame(src, dst *frame.Buffer) error {
	if e.state == Idle {
		return ErrNotArmed
	}
	if src == nil || dst == nil || src.W <= 0 || src.H <= 0 {
		return ErrInvalidDimensions
	}
	if src.W != e.w || src.H != e.h {
		if err := e.Arm(src.W, src.H); err != nil {
			return err
		}
	}
	if !dst.SameSize(src) {
		return fmt.Errorf("%w: dst %dx%d vs src %dx%d", ErrInvalidDimensions, dst.W, dst.H, src.W, src.H)
	}

	// Preset switches land on tick boundaries only.
	e.ctx.Age = e.pendingAge
	p, err := e.presets.Get(e.ctx.Age)
	if err != nil {
		return err
	}
	e.ensureKernels(p)

	start := time.Now()
	now := start
	dtMs := 0.0
	if !e.lastTick.IsZero() {
		dtMs = float64(now.Sub(e.lastTick).Microseconds()) / 1000
	}
	e.lastTick = now
	e.state = Running

	if err := e.work.CopyFrom(src); err != nil {
		return err
	}

	// Frequency: CSF blur + contrast compression, work -> aux.
	t0 := time.Now()
	if err := stage.Spatial(e.aux, e.tmp, e.work, e.kernels.acuity, p.ContrastSlope); err != nil {
		return err
	}
	e.Last.SpatialMS = msSince(t0)

	// Color: pointwise, in place on aux.
	t0 = time.Now()
	stage.ColorVision(e.aux, e.ctx.Age, p, e.ctx.ColorModel)
	e.Last.ColorMS = msSince(t0)

	// Optical: scatter in place on aux, then aberration aux -> work.
	t0 = time.Now()
	if err := stage.Scatter(e.aux, e.scratch, e.tmp, e.kernels.glow, p.ScatteringFactor); err != nil {
		return err
	}
	if err := stage.ChromaticAberration(e.work, e.aux, stage.AberrationStrength(p.ScatteringFactor)); err != nil {
		return err
	}
	e.Last.OpticalMS = msSince(t0)

	// Field: pointwise multiplicative, in place on work.
	t0 = time.Now()
	if e.ctx.Vignette {
		stage.FieldVignette(e.work, p.CentralFieldRadiusDeg*e.ppd, p.PeripheralSuppression)
	}
	e.Last.FieldMS = msSince(t0)

	// Neural: noise in place, then DoG inhibition work -> dst.
	t0 = time.Now()
	stage.PhotoreceptorNoise(e.work, p.PhotoreceptorNoise, e.rng)
	if err := stage.LateralInhibition(dst, e.work, e.aux, e.scratch, e.tmp,
		e.kernels.center, e.kernels.surround, p.LateralInhibition); err != nil {
		return err
	}
	e.Last.NeuralMS = msSince(t0)

	if e.ctx.Temporal {
		e.temporal.Apply(dst, dtMs, p.TemporalIntegrationMs)
	}

	e.Last.TotalMS = msSince(start)
	e.Last.Frames++
	return nil
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
