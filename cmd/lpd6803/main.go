package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/lpd6803"
	"github.com/coreman2200/lpd6803/internal/config"
	"github.com/coreman2200/lpd6803/internal/effects"
	"github.com/coreman2200/lpd6803/internal/ws"
	"github.com/coreman2200/lpd6803/spi"
)

func main() {
	// ---- Flags (config.yaml overrides the keys it sets; -sim-only and -v always win) ----
	var (
		numLEDs    = flag.Int("n", 50, "number of LEDs on the strip")
		port       = flag.String("port", "", "SPI port name; empty picks the first one")
		speedHz    = flag.Int64("speed-hz", 1000000, "SPI clock rate in Hz")
		delayUs    = flag.Int("delay-us", 0, "pause after each LED word, in microseconds")
		flush      = flag.Bool("flush-long-chains", false, "pad the reset frame with one zero word per 32 LEDs")
		brightness = flag.Float64("brightness", 1, "global brightness 0..1")
		fps        = flag.Int("fps", spi.DFLT_FPS, "target frames per second")
		effect     = flag.String("effect", "rainbow", "effect to run in effect mode")
		mode       = flag.String("mode", "effect", "mode: effect | serve")
		addr       = flag.String("addr", ":8080", "HTTP listen address in serve mode")
		simOnly    = flag.Bool("sim-only", false, "preview on the console, no hardware output")
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg := config.Default()
	cfg.NumLEDs, cfg.SPI.Port, cfg.SPI.SpeedHz = *numLEDs, *port, *speedHz
	cfg.SPI.InterWordDelayUs, cfg.SPI.FlushLongChains = *delayUs, *flush
	cfg.Brightness, cfg.FPS, cfg.Effect = *brightness, *fps, *effect
	cfg.Mode, cfg.Addr, cfg.SimOnly = *mode, *addr, *simOnly
	if err := config.LoadInto(*configPath, cfg); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
	}
	if *simOnly {
		cfg.SimOnly = true
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("bad settings")
	}

	// ---- Transport: SPI port, or the console when there is none ----
	var t spi.Transport = &spi.Discard{}
	hw := false
	if !cfg.SimOnly {
		p, err := spi.OpenPort(cfg.SPI.Port)
		if err != nil {
			log.Warn().Err(err).Str("port", cfg.SPI.Port).Msg("no SPI port; previewing on the console")
		} else {
			bus := spi.NewBus(p)
			defer bus.Close()
			t, hw = bus, true
		}
	}

	opts := []lpd6803.Option{
		lpd6803.WithClockRate(physic.Frequency(cfg.SPI.SpeedHz) * physic.Hertz),
		lpd6803.WithLogger(log.Logger.With().Str("component", "strip").Logger()),
	}
	if cfg.SPI.FlushLongChains {
		opts = append(opts, lpd6803.WithFlushLongChains())
	}
	strip, err := lpd6803.New(t, make([]uint16, cfg.BufferSize()), cfg.NumLEDs, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("strip init failed")
	}

	var r spi.Renderer = &spi.StripRenderer{Strip: strip, Delay: cfg.InterWordDelay()}
	if !hw {
		r = spi.NewPreviewRenderer(strip, cfg.NumLEDs)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info().
		Str("mode", cfg.Mode).
		Str("transport", strip.String()).
		Int("leds", cfg.NumLEDs).
		Msg("starting")

	switch cfg.Mode {
	case "serve":
		serve(ctx, cfg, *configPath, strip, r)
	default:
		e, ok := effects.Lookup(cfg.Effect)
		if !ok {
			log.Fatal().Str("effect", cfg.Effect).Strs("known", effects.Names()).Msg("unknown effect")
		}
		d := &effects.Dimmed{Effect: e, Brightness: float32(cfg.Brightness)}
		l := spi.NewLooper(func(elapsed time.Duration) error {
			return d.Frame(strip, elapsed)
		}, r, cfg.FPS)
		if err := l.Start(ctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("effect loop stopped")
		}
	}
}

func serve(ctx context.Context, cfg *config.Config, cfgPath string, strip *lpd6803.Strip, r spi.Renderer) {
	state := ws.NewState(strip, r, log.Logger.With().Str("component", "ws").Logger())
	state.Persist(cfgPath, *cfg)
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      state.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	_ = srv.Close()
	// hijacked websocket conns outlive srv.Close; Halt waits for their command in flight
	if err := state.Halt(); err != nil {
		log.Warn().Err(err).Msg("clear on shutdown failed")
	}
}
