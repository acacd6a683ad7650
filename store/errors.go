package store

import "errors"

var (
	// ErrNilUser reports a nil user argument, rejected before any I/O.
	ErrNilUser = errors.New("store: user must not be nil")

	// ErrNilRole reports a nil role argument, rejected before any I/O.
	ErrNilRole = errors.New("store: role must not be nil")

	// ErrStoreClosed reports an operation invoked after Close.
	ErrStoreClosed = errors.New("store: store is closed")

	// ErrNotImplemented reports an operation the store deliberately does not
	// support. It fails loudly rather than silently succeeding.
	ErrNotImplemented = errors.New("store: operation not supported")
)
