package spi

import (
	"fmt"
	"time"

	"github.com/coreman2200/lpd6803/model"
)

// RESET_WORDS is the number of zero words sent ahead of every frame.
const RESET_WORDS = 2

// Writer frames a Buffer onto a Transport: the reset words, then each live
// pixel word in index order.
type Writer struct {
	t Transport

	// FlushLongChains adds one zero word per 32 LEDs to the reset frame.
	// Off by default: the header is then the fixed two words.
	FlushLongChains bool

	sleep func(time.Duration)
}

func NewWriter(t Transport) *Writer {
	return &Writer{t: t, sleep: time.Sleep}
}

// SetSleep replaces the function used for inter-word pacing.
func (w *Writer) SetSleep(f func(time.Duration)) {
	w.sleep = f
}

// ResetWords returns the length of the reset frame for a strip of n LEDs.
func (w *Writer) ResetWords(n int) int {
	r := RESET_WORDS
	if w.FlushLongChains {
		r += (n + 31) / 32
	}
	return r
}

// Show transmits buf. When delay is positive it pauses that long after each
// pixel word. A transport error stops the frame where it happened; the strip
// is then partially updated and the caller should resend.
func (w *Writer) Show(buf *model.Buffer, delay time.Duration) error {
	for i := 0; i < w.ResetWords(buf.NumLEDs()); i++ {
		if err := w.t.TransferWord(0x0000); err != nil {
			return fmt.Errorf("spi: reset frame: %w", err)
		}
	}
	for i, word := range buf.Words() {
		if err := w.t.TransferWord(word); err != nil {
			return fmt.Errorf("spi: pixel %d: %w", i, err)
		}
		if delay > 0 {
			w.sleep(delay)
		}
	}
	return nil
}
