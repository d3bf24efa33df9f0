package services

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrPostNotFound       = errors.New("post not found")
	ErrOptionNotFound     = errors.New("option not found")
	ErrAlreadyVoted       = errors.New("already voted")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrForbidden          = errors.New("forbidden")
)

// storageError wraps a backend failure as ErrStorageUnavailable, keeping the
// cause reachable. Cancellation by the caller passes through untouched.
func storageError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
