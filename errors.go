package revlines

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by ReadLine after Close.
	ErrClosed = errors.New("reader is closed")

	// ErrBlockSize indicates a negative block size in the Config.
	ErrBlockSize = errors.New("block size must be positive")
)

// UnsupportedEncodingError is returned by Resolve (and therefore by the
// reader constructors) when the requested encoding is not in the
// curated set of safely scannable encodings.
type UnsupportedEncodingError struct {
	Name   string
	Reason string
}

func (e *UnsupportedEncodingError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("unsupported encoding %q", e.Name)
	}
	return fmt.Sprintf("unsupported encoding %q: %s", e.Name, e.Reason)
}
