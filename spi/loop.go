package spi

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"
)

const DFLT_FPS = 30

// Frame updates the strip for the given time since the loop started.
type Frame func(elapsed time.Duration) error

// Looper calls a Frame then renders, at a fixed rate, until its context is
// cancelled, an interrupt arrives or either step fails.
type Looper struct {
	fps      int
	start    time.Time
	frame    Frame
	renderer Renderer
	c        chan os.Signal
}

func NewLooper(frame Frame, r Renderer, fps int) *Looper {
	if fps <= 0 {
		fps = DFLT_FPS
	}
	return &Looper{fps: fps, frame: frame, renderer: r}
}

func (l *Looper) Start(ctx context.Context) error {
	l.c = make(chan os.Signal, 1)
	signal.Notify(l.c, os.Interrupt)
	defer signal.Stop(l.c)

	l.start = time.Now()
	return l.refresh(ctx)
}

func (l *Looper) refresh(ctx context.Context) error {
	delta := 1000 * time.Millisecond / time.Duration(l.fps)
	ticker := time.NewTicker(delta)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := l.frame(time.Since(l.start)); err != nil {
				return fmt.Errorf("frame: %w", err)
			}
			if err := l.renderer.Render(); err != nil {
				return fmt.Errorf("render: %w", err)
			}

		case sig := <-l.c:
			fmt.Printf("Got %s signal. Aborting...\n", sig)
			return l.renderer.Clear()

		case <-ctx.Done():
			if err := l.renderer.Clear(); err != nil {
				return err
			}
			return ctx.Err()
		}
	}
}
