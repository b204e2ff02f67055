package model

import (
	"errors"
	"fmt"
)

var (
	ErrIndexOutOfRange = errors.New("lpd6803: pixel index out of range")
	ErrCapacity        = errors.New("lpd6803: LED count exceeds buffer capacity")
)

// IndexError is returned by per-pixel operations addressing a pixel outside
// [0, NumLEDs). It matches ErrIndexOutOfRange with errors.Is.
type IndexError struct {
	Index   int
	NumLEDs int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("lpd6803: pixel %d out of range [0,%d)", e.Index, e.NumLEDs)
}

func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}
