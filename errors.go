package huepalette

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package wraps exactly one of them,
// so callers can branch with errors.Is.
var (
	ErrInput         = errors.New("input error")
	ErrConfiguration = errors.New("configuration error")
	ErrAssignment    = errors.New("assignment error")
)

var (
	ErrMalformedBuffer     = fmt.Errorf("%w: pixel buffer is not a rectangular RGB grid", ErrInput)
	ErrNoSamples           = fmt.Errorf("%w: pixel buffer yields no samples", ErrInput)
	ErrInsufficientSamples = fmt.Errorf("%w: more clusters requested than samples available", ErrConfiguration)
	ErrEmptyPalette        = fmt.Errorf("%w: palette is empty but devices exist", ErrAssignment)
)
