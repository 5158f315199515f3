package visualizer

import (
	"errors"
	"fmt"
)

var (
	ErrWindowBounds   = errors.New("analysis window out of bounds")
	ErrSpectrumLength = errors.New("spectrum length does not match window")
	ErrInvalidOptions = errors.New("invalid analysis options")
)

// AnalysisError reports an internal invariant violation while building
// spectral frame Index.
type AnalysisError struct {
	Index int
	Err   error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analyzing frame %d: %v", e.Index, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }
