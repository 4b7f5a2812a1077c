package ui

import (
	"context"
	"errors"
)

// ErrInterrupted is returned when an operation is interrupted by Ctrl+C.
var ErrInterrupted = errors.New("interrupted")

// ContextError returns ErrInterrupted if the context is cancelled,
// otherwise returns the original error.
func ContextError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ErrInterrupted
	}
	return err
}
