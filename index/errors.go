package index

import "errors"

var (
	// ErrInvalidPoolSize indicates a loader pool size below one.
	ErrInvalidPoolSize = errors.New("invalid pool size")

	// ErrMalformedIndex indicates an index file that is not valid for its shape.
	ErrMalformedIndex = errors.New("malformed index file")
)
