package spi

import (
	"errors"
	"fmt"
	"io"

	"periph.io/x/conn/v3/physic"
	spiconn "periph.io/x/conn/v3/spi"
)

// LPD6803 chains clock reliably at 1MHz.
const DFLT_CLOCK_RATE = 1 * physic.MegaHertz

var errConnected = errors.New("spi: clock rate cannot change once connected")

// Transport is the synchronous serial link the strip hangs off.
type Transport interface {
	SetClockRate(f physic.Frequency) error
	// TransferWord clocks out w, most significant bit first, and blocks
	// until done.
	TransferWord(w uint16) error
}

// Bus is a Transport over a periph.io SPI port. The port is connected
// lazily on the first transfer, in mode 0 with 8 bit words.
type Bus struct {
	port spiconn.Port
	conn spiconn.Conn
	freq physic.Frequency
	w    [2]byte
}

func NewBus(p spiconn.Port) *Bus {
	return &Bus{port: p, freq: DFLT_CLOCK_RATE}
}

func (b *Bus) SetClockRate(f physic.Frequency) error {
	if f <= 0 {
		return fmt.Errorf("spi: invalid clock rate %s", f)
	}
	if b.conn != nil {
		return errConnected
	}
	b.freq = f
	return nil
}

func (b *Bus) ClockRate() physic.Frequency {
	return b.freq
}

func (b *Bus) connect() error {
	if b.conn != nil {
		return nil
	}
	c, err := b.port.Connect(b.freq, spiconn.Mode0, 8)
	if err != nil {
		return fmt.Errorf("spi: connect at %s: %w", b.freq, err)
	}
	b.conn = c
	return nil
}

func (b *Bus) TransferWord(w uint16) error {
	if err := b.connect(); err != nil {
		return err
	}
	b.w[0] = byte(w >> 8)
	b.w[1] = byte(w)
	return b.conn.Tx(b.w[:], nil)
}

func (b *Bus) String() string {
	return b.port.String()
}

// Close closes the underlying port if it can be closed.
func (b *Bus) Close() error {
	if c, ok := b.port.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Discard is a Transport that drops every word. It stands in for the bus
// when frames are only previewed.
type Discard struct {
	Freq  physic.Frequency
	Words int
}

func (d *Discard) SetClockRate(f physic.Frequency) error {
	d.Freq = f
	return nil
}

func (d *Discard) TransferWord(uint16) error {
	d.Words++
	return nil
}

func (d *Discard) String() string {
	return "discard"
}
