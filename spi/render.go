package spi

import (
	"fmt"
	"image"
	"time"

	"periph.io/x/conn/v3/display"
	spiconn "periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/extra/devices/screen"
	"periph.io/x/host/v3"
)

// Renderer makes the current strip state visible.
type Renderer interface {
	Render() error
	Clear() error
}

// Shower is the part of a strip a StripRenderer drives.
type Shower interface {
	Show(delay time.Duration) error
	Halt() error
}

type Imager interface {
	Image() *image.NRGBA
}

// StripRenderer pushes frames over the bus.
type StripRenderer struct {
	Strip Shower
	Delay time.Duration
}

func (r *StripRenderer) Render() error {
	return r.Strip.Show(r.Delay)
}

func (r *StripRenderer) Clear() error {
	return r.Strip.Halt()
}

// PreviewRenderer draws frames on a display.Drawer, the console by default.
type PreviewRenderer struct {
	Source Imager
	drawer display.Drawer
}

func NewPreviewRenderer(src Imager, numPixels int) *PreviewRenderer {
	return &PreviewRenderer{Source: src, drawer: screen.New(numPixels)}
}

func (r *PreviewRenderer) Render() error {
	if err := r.drawer.Draw(r.drawer.Bounds(), r.Source.Image(), image.Point{}); err != nil {
		return err
	}
	fmt.Printf("\n")
	return nil
}

func (r *PreviewRenderer) Clear() error {
	return r.drawer.Halt()
}

// OpenPort initialises the host drivers and opens the named SPI port. An
// empty name opens the first registered port.
func OpenPort(name string) (spiconn.PortCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("spi: host init: %w", err)
	}
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("spi: open %q: %w", name, err)
	}
	return p, nil
}
