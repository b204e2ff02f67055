package lpd6803

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/lpd6803/model"
	"github.com/coreman2200/lpd6803/spi"
)

// Opts are the Strip settings an Option can change.
type Opts struct {
	ClockRate       physic.Frequency
	FlushLongChains bool
	Logger          zerolog.Logger
	Sleep           func(time.Duration)
}

type Option func(*Opts)

// WithClockRate sets the SCLK rate. Defaults to 1MHz.
func WithClockRate(f physic.Frequency) Option {
	return func(o *Opts) { o.ClockRate = f }
}

// WithFlushLongChains pads the reset frame with one zero word per 32 LEDs.
func WithFlushLongChains() Option {
	return func(o *Opts) { o.FlushLongChains = true }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *Opts) { o.Logger = l }
}

// WithSleep replaces time.Sleep for inter-word pacing.
func WithSleep(f func(time.Duration)) Option {
	return func(o *Opts) { o.Sleep = f }
}

// Strip is a handle to a chain of LPD6803 LEDs.
type Strip struct {
	t   spi.Transport
	buf *model.Buffer
	w   *spi.Writer
	log zerolog.Logger
}

// New binds a strip of numLEDs LEDs to t, using words as its pixel buffer.
// words must hold at least numLEDs entries. New clears the strip and sends
// the all-off frame straight away.
func New(t spi.Transport, words []uint16, numLEDs int, opts ...Option) (*Strip, error) {
	o := Opts{
		ClockRate: spi.DFLT_CLOCK_RATE,
		Logger:    zerolog.Nop(),
		Sleep:     time.Sleep,
	}
	for _, opt := range opts {
		opt(&o)
	}

	buf, err := model.NewBuffer(words, numLEDs)
	if err != nil {
		return nil, err
	}
	if err := t.SetClockRate(o.ClockRate); err != nil {
		return nil, fmt.Errorf("lpd6803: set clock rate: %w", err)
	}

	w := spi.NewWriter(t)
	w.FlushLongChains = o.FlushLongChains
	w.SetSleep(o.Sleep)

	s := &Strip{t: t, buf: buf, w: w, log: o.Logger}
	s.Clear()
	if err := s.Show(0); err != nil {
		return nil, err
	}
	s.log.Info().
		Int("leds", numLEDs).
		Int("capacity", buf.Cap()).
		Str("clock", o.ClockRate.String()).
		Msg("lpd6803 strip ready")
	return s, nil
}

// Encode packs an 8 bit per channel colour into a strip word.
func Encode(r, g, b uint8) uint16 {
	return model.Encode(r, g, b)
}

// Decode unpacks a strip word, as returned by PixelColor, into 8 bit
// channels.
func Decode(w uint16) (r, g, b uint8) {
	return model.Decode(w)
}

func (s *Strip) NumLEDs() int {
	return s.buf.NumLEDs()
}

// SetNumLEDs changes how many LEDs are driven. It fails with
// model.ErrCapacity when n exceeds the pixel buffer.
func (s *Strip) SetNumLEDs(n int) error {
	return s.buf.SetNumLEDs(n)
}

// Clear switches off every LED in the buffer. Call Show to send it.
func (s *Strip) Clear() {
	s.buf.Clear()
}

// Show sends the buffer to the strip, pausing delay after every LED when
// delay is positive. It blocks until the whole frame is out.
func (s *Strip) Show(delay time.Duration) error {
	if err := s.w.Show(s.buf, delay); err != nil {
		s.log.Error().Err(err).Int("leds", s.buf.NumLEDs()).Msg("show failed")
		return err
	}
	s.log.Debug().Int("leds", s.buf.NumLEDs()).Dur("delay", delay).Msg("show")
	return nil
}

func (s *Strip) SetPixelColor(n int, r, g, b uint8) error {
	return s.buf.SetRGB(n, r, g, b)
}

// SetPixelWord stores a packed colour. Bit 15 is ignored.
func (s *Strip) SetPixelWord(n int, w uint16) error {
	return s.buf.SetWord(n, w)
}

// PixelColor returns the packed colour held for LED n, without the start
// bit. This is the local buffer, not something read back from the strip.
func (s *Strip) PixelColor(n int) (uint16, error) {
	return s.buf.Get(n)
}

// SetPixelBrightness rescales the stored colour of LED n by factor. The
// LPD6803 has no brightness register, so this rewrites the colour and is
// lossy.
func (s *Strip) SetPixelBrightness(n int, factor float32) error {
	return s.buf.ScaleOne(n, factor)
}

// SetBrightness rescales every LED, see SetPixelBrightness.
func (s *Strip) SetBrightness(factor float32) {
	s.buf.ScaleAll(factor)
}

func (s *Strip) Image() *image.NRGBA {
	return s.buf.Image()
}

// String implements conn.Resource.
func (s *Strip) String() string {
	if st, ok := s.t.(fmt.Stringer); ok {
		return "lpd6803{" + st.String() + "}"
	}
	return "lpd6803"
}

// Halt implements conn.Resource. It switches all LEDs off.
func (s *Strip) Halt() error {
	s.Clear()
	return s.Show(0)
}

// ColorModel implements display.Drawer.
func (s *Strip) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (s *Strip) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.buf.NumLEDs(), 1)
}

// Draw implements display.Drawer. The first row of src, starting at sp, is
// copied onto the LEDs covered by r and the frame is sent. Alpha is ignored.
func (s *Strip) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(s.Bounds())
	srcR := src.Bounds()
	for x := r.Min.X; x < r.Max.X; x++ {
		p := image.Pt(sp.X+x-r.Min.X, sp.Y)
		if !p.In(srcR) {
			break
		}
		c := color.NRGBAModel.Convert(src.At(p.X, p.Y)).(color.NRGBA)
		if err := s.buf.SetRGB(x, c.R, c.G, c.B); err != nil {
			return err
		}
	}
	return s.Show(0)
}

var _ display.Drawer = &Strip{}
