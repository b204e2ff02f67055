package model

import (
	"image/color"
)

const (
	START_BIT    uint16 = 0x8000
	COLOR_MASK   uint16 = 0x7FFF
	CHANNEL_MASK uint16 = 0x1F
	MAX_CHANNEL  uint8  = 31
)

// 5 bits per channel, green in the high field.
const (
	GREEN_SHIFT uint8 = 10
	RED_SHIFT   uint8 = 5
	BLUE_SHIFT  uint8 = 0
)

// Pixel is one packed LPD6803 word: start bit | GGGGG | RRRRR | BBBBB.
type Pixel uint16

func setchannel(w uint16, v uint8, off uint8) uint16 {
	mask := CHANNEL_MASK << off
	return (w &^ mask) | (uint16(v)&CHANNEL_MASK)<<off
}

func getchannel(w uint16, off uint8) uint8 {
	return uint8((w >> off) & CHANNEL_MASK)
}

// to5 maps 0..255 onto 0..31, rounding down.
func to5(v uint8) uint8 {
	return uint8(uint16(v) * uint16(MAX_CHANNEL) / 255)
}

// to8 maps 0..31 onto 0..255, rounding down. 31 maps to 255.
func to8(v uint8) uint8 {
	return uint8(uint16(v) * 255 / uint16(MAX_CHANNEL))
}

// Encode packs 8-bit channels into a wire-valid word. The start bit is
// always set.
func Encode(r, g, b uint8) uint16 {
	return START_BIT |
		uint16(to5(g))<<GREEN_SHIFT |
		uint16(to5(r))<<RED_SHIFT |
		uint16(to5(b))<<BLUE_SHIFT
}

// Decode unpacks a word into 8-bit channels. Bit 15 is ignored.
func Decode(w uint16) (r, g, b uint8) {
	p := Pixel(w)
	return to8(p.R()), to8(p.G()), to8(p.B())
}

// Scale multiplies each 5-bit channel of w by factor, truncating toward zero
// and clamping to 0..31. The result always carries the start bit.
func Scale(w uint16, factor float32) uint16 {
	out := START_BIT
	for _, off := range [...]uint8{GREEN_SHIFT, RED_SHIFT, BLUE_SHIFT} {
		out = setchannel(out, scalechannel(getchannel(w, off), factor), off)
	}
	return out
}

func scalechannel(v uint8, factor float32) uint8 {
	f := float32(v) * factor
	switch {
	case !(f > 0): // also catches NaN
		return 0
	case f >= float32(MAX_CHANNEL):
		return MAX_CHANNEL
	}
	return uint8(f)
}

func (p Pixel) R() uint8 { return getchannel(uint16(p), RED_SHIFT) }
func (p Pixel) G() uint8 { return getchannel(uint16(p), GREEN_SHIFT) }
func (p Pixel) B() uint8 { return getchannel(uint16(p), BLUE_SHIFT) }

func (p Pixel) Scale(factor float32) Pixel {
	return Pixel(Scale(uint16(p), factor))
}

func (p Pixel) ToRGB() color.NRGBA {
	r, g, b := Decode(uint16(p))
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}
