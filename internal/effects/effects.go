// Package effects holds the demo animations the CLI can run on a strip.
package effects

import (
	"image/color"
	"math"
	"sort"
	"time"
)

// Target is the part of a strip an effect paints on.
type Target interface {
	NumLEDs() int
	SetPixelColor(n int, r, g, b uint8) error
	SetBrightness(factor float32)
}

type Effect interface {
	Name() string
	// Frame paints the strip for the time elapsed since the effect started.
	Frame(t Target, elapsed time.Duration) error
}

var registry = map[string]func() Effect{
	"off":     func() Effect { return &Solid{} },
	"solid":   func() Effect { return &Solid{C: color.NRGBA{R: 255, G: 255, B: 255, A: 255}} },
	"chase":   func() Effect { return &Chase{C: color.NRGBA{R: 255, A: 255}, Speed: 20} },
	"rainbow": func() Effect { return &Rainbow{Period: 5 * time.Second} },
}

// Lookup returns a fresh effect by name.
func Lookup(name string) (Effect, bool) {
	f, ok := registry[name]
	if !ok {
		return nil, false
	}
	return f(), true
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Solid paints every LED the same colour.
type Solid struct {
	C color.NRGBA
}

func (s *Solid) Name() string { return "solid" }

func (s *Solid) Frame(t Target, _ time.Duration) error {
	for i := 0; i < t.NumLEDs(); i++ {
		if err := t.SetPixelColor(i, s.C.R, s.C.G, s.C.B); err != nil {
			return err
		}
	}
	return nil
}

// Chase runs a single lit LED along the strip with a fading tail.
type Chase struct {
	C     color.NRGBA
	Speed float64 // LEDs per second
	Tail  int
}

func (c *Chase) Name() string { return "chase" }

func (c *Chase) Frame(t Target, elapsed time.Duration) error {
	n := t.NumLEDs()
	if n == 0 {
		return nil
	}
	tail := c.Tail
	if tail <= 0 {
		tail = 4
	}
	head := int(elapsed.Seconds()*c.Speed) % n
	for i := 0; i < n; i++ {
		d := (head - i + n) % n
		if d > tail {
			if err := t.SetPixelColor(i, 0, 0, 0); err != nil {
				return err
			}
			continue
		}
		f := 1 - float64(d)/float64(tail+1)
		if err := t.SetPixelColor(i, scale8(c.C.R, f), scale8(c.C.G, f), scale8(c.C.B, f)); err != nil {
			return err
		}
	}
	return nil
}

// Rainbow spreads the colour wheel over the strip and rotates it once per
// Period.
type Rainbow struct {
	Period time.Duration
}

func (r *Rainbow) Name() string { return "rainbow" }

func (r *Rainbow) Frame(t Target, elapsed time.Duration) error {
	n := t.NumLEDs()
	phase := 0.0
	if r.Period > 0 {
		phase = math.Mod(elapsed.Seconds()/r.Period.Seconds(), 1)
	}
	for i := 0; i < n; i++ {
		c := ColorWheel(math.Mod(float64(i)/float64(n)+phase, 1))
		if err := t.SetPixelColor(i, c.R, c.G, c.B); err != nil {
			return err
		}
	}
	return nil
}

// Dimmed applies a global brightness after the wrapped effect has painted.
type Dimmed struct {
	Effect
	Brightness float32
}

func (d *Dimmed) Frame(t Target, elapsed time.Duration) error {
	if err := d.Effect.Frame(t, elapsed); err != nil {
		return err
	}
	if d.Brightness < 1 {
		t.SetBrightness(d.Brightness)
	}
	return nil
}

func scale8(v uint8, f float64) uint8 {
	return uint8(float64(v) * f)
}

// ColorWheel maps h in [0,1) onto a fully saturated hue.
func ColorWheel(h float64) color.NRGBA {
	h *= 6
	switch {
	case h < 1.:
		return color.NRGBA{R: 255, G: byte(255 * h), A: 255}
	case h < 2.:
		return color.NRGBA{R: byte(255 * (2 - h)), G: 255, A: 255}
	case h < 3.:
		return color.NRGBA{G: 255, B: byte(255 * (h - 2)), A: 255}
	case h < 4.:
		return color.NRGBA{G: byte(255 * (4 - h)), B: 255, A: 255}
	case h < 5.:
		return color.NRGBA{R: byte(255 * (h - 4)), B: 255, A: 255}
	default:
		return color.NRGBA{R: 255, B: byte(255 * (6 - h)), A: 255}
	}
}
