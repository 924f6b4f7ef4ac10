package audio

import "errors"

var (
	ErrInvalidCommand = errors.New("invalid command")
	ErrUnknownCommand = errors.New("unknown command")
	ErrUnknownParam   = errors.New("unknown parameter")
	ErrNothingToSave  = errors.New("no content to save")
)
