package terrain

import "errors"

var (
	ErrInvalidMap  = errors.New("invalid map")
	ErrDecodeImage = errors.New("failed to decode terrain image")
)
