package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/example/infantsight/internal/config"
	"github.com/example/infantsight/internal/diagnostics"
	"github.com/example/infantsight/internal/frame"
	"github.com/example/infantsight/internal/kernel"
	"github.com/example/infantsight/internal/pipeline"
	"github.com/example/infantsight/internal/preset"
	"github.com/example/infantsight/internal/sequence"
	"github.com/example/infantsight/internal/source"
	"github.com/example/infantsight/internal/stage"
	"github.com/example/infantsight/internal/ws"
)

func main() {
	// ---- Flags (config.yaml can override most) ----
	var (
		width      = flag.Int("width", 640, "frame width in pixels")
		height     = flag.Int("height", 480, "frame height in pixels")
		fps        = flag.Int("fps", 30, "target ticks per second")
		hfov       = flag.Float64("hfov", kernel.DefaultHorizontalFOVDeg, "assumed camera horizontal FOV (degrees)")
		age        = flag.Int("age", 1, "developmental stage in months (1-3)")
		vignette   = flag.Bool("vignette", true, "enable peripheral field attenuation")
		mirror     = flag.Bool("mirror", false, "mirror the source horizontally")
		temporal   = flag.Bool("temporal", false, "enable temporal integration")
		lmsColor   = flag.Bool("lms-color", false, "use the LMS/von Kries color formulation")
		srcName    = flag.String("source", "drift", "frame source: drift | gray | edge | path to image")
		addr       = flag.String("addr", ":8080", "HTTP listen address")
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		demo       = flag.Bool("demo", false, "auto-advance through the developmental stages")
		demoClipS  = flag.Float64("demo-clip-s", 10, "seconds per stage in demo mode")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Load config.yaml (optional) ----
	var cfg *config.Config
	if c, err := config.Load(*configPath); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
	} else {
		cfg = c
	}

	// ---- Effective params (config overrides flags where available) ----
	eW, eH, eFPS, eHFOV := *width, *height, *fps, *hfov
	eAge, eSrc, eAddr := *age, *srcName, *addr
	eVignette, eMirror, eTemporal := *vignette, *mirror, *temporal
	eDemo, eClipS := *demo, *demoClipS
	previewOn, previewW := true, 320

	if cfg != nil {
		if cfg.View.Width > 0 {
			eW = cfg.View.Width
		}
		if cfg.View.Height > 0 {
			eH = cfg.View.Height
		}
		if cfg.View.HFOVDeg > 0 {
			eHFOV = cfg.View.HFOVDeg
		}
		if cfg.FPS > 0 {
			eFPS = cfg.FPS
		}
		if cfg.Age > 0 {
			eAge = cfg.Age
		}
		if cfg.Source != "" {
			eSrc = cfg.Source
		}
		if cfg.Addr != "" {
			eAddr = cfg.Addr
		}
		if cfg.Vignette != nil {
			eVignette = *cfg.Vignette
		}
		if cfg.Mirror != nil {
			eMirror = *cfg.Mirror
		}
		if cfg.Temporal != nil {
			eTemporal = *cfg.Temporal
		}
		if cfg.Demo.Enabled {
			eDemo = true
		}
		if cfg.Demo.ClipSeconds > 0 {
			eClipS = cfg.Demo.ClipSeconds
		}
		if cfg.Preview.Enabled != nil {
			previewOn = *cfg.Preview.Enabled
		}
		if cfg.Preview.MaxWidth > 0 {
			previewW = cfg.Preview.MaxWidth
		}
	}

	// ---- Pipeline ----
	colorModel := stage.ColorModelStaged
	if *lmsColor {
		colorModel = stage.ColorModelLMS
	}
	eng, err := pipeline.New(preset.Default(), pipeline.Context{
		Age:        eAge,
		Vignette:   eVignette,
		Mirror:     eMirror,
		Temporal:   eTemporal,
		ColorModel: colorModel,
		HFOVDeg:    eHFOV,
	}, pipeline.WithLogger(log.Logger))
	if err != nil {
		log.Fatal().Err(err).Msg("pipeline init")
	}
	if err := eng.Arm(eW, eH); err != nil {
		log.Fatal().Err(err).Msg("pipeline arm")
	}

	// ---- Source ----
	src, err := source.New(eSrc)
	if err != nil {
		log.Fatal().Err(err).Str("source", eSrc).Msg("source init")
	}
	if eMirror {
		src = source.Mirrored{Src: src}
	}

	// ---- Demo sequencer ----
	player := sequence.NewPlayer(sequence.Hooks{
		SetAge:      eng.SetAge,
		SetVignette: eng.SetVignette,
	})
	if err := player.Load(sequence.Growth(eClipS)); err != nil {
		log.Fatal().Err(err).Msg("demo program")
	}
	if eDemo {
		if err := player.Start(); err != nil {
			log.Fatal().Err(err).Msg("demo start")
		}
	}

	// ---- State server ----
	state := ws.NewState(eng, player, eFPS)
	state.PreviewEnabled = previewOn
	state.PreviewMaxWidth = previewW
	mux := http.NewServeMux()
	state.Routes(mux)
	go func() {
		log.Info().Str("addr", eAddr).Msg("state server listening")
		if err := http.ListenAndServe(eAddr, mux); err != nil {
			log.Error().Err(err).Msg("state server stopped")
		}
	}()

	// ---- Tick loop ----
	// time.Ticker drops ticks when a pass overruns the interval, which is
	// exactly the backpressure model: lower effective frame rate, never a
	// queue of stale frames.
	in, err := frame.New(eW, eH)
	if err != nil {
		log.Fatal().Err(err).Msg("input buffer")
	}
	out, err := frame.New(eW, eH)
	if err != nil {
		log.Fatal().Err(err).Msg("output buffer")
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	interval := time.Second / time.Duration(max(1, eFPS))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().
		Int("width", eW).Int("height", eH).Int("fps", eFPS).
		Int("age", eAge).Str("source", eSrc).
		Msg("infantsight running")

	t0 := time.Now()
	last := t0
	for {
		select {
		case <-stop:
			eng.Teardown()
			log.Info().Msg("shutting down")
			return
		case now := <-ticker.C:
			state.DrainControls()
			_ = player.Tick(now.Sub(last).Seconds())
			last = now

			if err := src.Frame(now.Sub(t0).Seconds(), in); err != nil {
				log.Warn().Err(err).Msg("source frame; tick dropped")
				continue
			}
			if err := eng.ProcessFrame(in, out); err != nil {
				log.Warn().Err(err).Msg("process frame; tick dropped")
				continue
			}
			state.PublishFrame(out, diagnostics.Analyze(out))
		}
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
