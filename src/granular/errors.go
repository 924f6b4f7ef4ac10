package granular

import "errors"

var (
	ErrEmptySamples      = errors.New("sample buffer must not be empty")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
)
