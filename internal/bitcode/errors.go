package bitcode

import "errors"

var (
	ErrOverflow       = errors.New("bitcode: value exceeds payload capacity")
	ErrMalformedFrame = errors.New("bitcode: sample count does not match frame geometry")
	ErrFrameSync      = errors.New("bitcode: start/end markers not found")
)
