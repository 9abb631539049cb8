package core

import "errors"

var (
	ErrMissingField       = errors.New("missing required field")
	ErrRemote             = errors.New("remote request failed")
	ErrNothingToFlush     = errors.New("nothing to flush")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrUnsupportedBackend = errors.New("unsupported storage backend")
)
