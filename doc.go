// Package lpd6803 drives LED strips built from chained LPD6803 chips.
//
// Each chip takes a 16 bit word off the SPI bus, latches it and passes the
// rest of the stream on. A word is a start bit followed by 5 bits each of
// green, red and blue:
//
//	bit 15 | 14..10 | 9..5 | 4..0
//	  1    | green  | red  | blue
//
// A frame is two zero words followed by one word per LED, nearest LED first.
//
// The pixel buffer is owned by the caller and only borrowed by a Strip, so
// its length bounds how many LEDs a Strip can address. A Strip is not safe
// for concurrent use; callers sharing one must serialise access, including
// around Show.
package lpd6803
