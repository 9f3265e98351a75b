package nv200

import "errors"

var (
	// ErrTimeout indicates that an explicit read got no reply in time.
	// It is recoverable; the caller decides whether to retry or abort.
	ErrTimeout = errors.New("nv200: response timeout")

	// ErrMissingParameter indicates that a response lacked an expected
	// positional parameter.
	ErrMissingParameter = errors.New("nv200: response parameter missing")
)
