package model

import (
	"fmt"
	"image"
)

// Buffer is the not-yet-transmitted state of a strip. It borrows the word
// slice handed to NewBuffer and never reallocates it; its capacity is the
// slice length. Operations on the whole strip only touch [0, NumLEDs).
//
// A Buffer is not safe for concurrent use.
type Buffer struct {
	words   []uint16
	numLEDs int
}

// NewBuffer wraps words with a logical length of numLEDs. Word contents are
// left as found until Clear or a Set call.
func NewBuffer(words []uint16, numLEDs int) (*Buffer, error) {
	b := &Buffer{words: words}
	if err := b.SetNumLEDs(numLEDs); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Buffer) Cap() int {
	return len(b.words)
}

func (b *Buffer) NumLEDs() int {
	return b.numLEDs
}

// SetNumLEDs changes the logical length. Words beyond the old length keep
// whatever they held.
func (b *Buffer) SetNumLEDs(n int) error {
	if n < 0 || n > len(b.words) {
		return fmt.Errorf("%w: %d not in [0,%d]", ErrCapacity, n, len(b.words))
	}
	b.numLEDs = n
	return nil
}

func (b *Buffer) check(n int) error {
	if n < 0 || n >= b.numLEDs {
		return &IndexError{Index: n, NumLEDs: b.numLEDs}
	}
	return nil
}

// Clear switches every LED off while keeping the words wire-valid.
func (b *Buffer) Clear() {
	for i := 0; i < b.numLEDs; i++ {
		b.words[i] = START_BIT
	}
}

func (b *Buffer) SetRGB(n int, red, green, blue uint8) error {
	if err := b.check(n); err != nil {
		return err
	}
	b.words[n] = Encode(red, green, blue)
	return nil
}

// SetWord stores a packed colour. Bit 15 of w is discarded and the start bit
// is forced on.
func (b *Buffer) SetWord(n int, w uint16) error {
	if err := b.check(n); err != nil {
		return err
	}
	b.words[n] = START_BIT | (w & COLOR_MASK)
	return nil
}

// Get returns the packed colour at n with the start bit masked off.
func (b *Buffer) Get(n int) (uint16, error) {
	if err := b.check(n); err != nil {
		return 0, err
	}
	return b.words[n] & COLOR_MASK, nil
}

// Words returns the live words in [0, NumLEDs), aliasing the buffer.
func (b *Buffer) Words() []uint16 {
	return b.words[:b.numLEDs]
}

func (b *Buffer) ScaleAll(factor float32) {
	for i := 0; i < b.numLEDs; i++ {
		b.words[i] = uint16(Pixel(b.words[i]).Scale(factor))
	}
}

func (b *Buffer) ScaleOne(n int, factor float32) error {
	if err := b.check(n); err != nil {
		return err
	}
	b.words[n] = uint16(Pixel(b.words[n]).Scale(factor))
	return nil
}

// Image renders the live pixels as a single row.
func (b *Buffer) Image() *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, b.numLEDs, 1))
	for x := 0; x < im.Rect.Max.X; x++ {
		im.SetNRGBA(x, 0, Pixel(b.words[x]).ToRGB())
	}
	return im
}
