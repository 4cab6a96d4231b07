package bvh

import "errors"

// ErrInvalidConfiguration is returned by New for zero-sized bounds or an
// out-of-range depth.
var ErrInvalidConfiguration = errors.New("invalid tree configuration")
