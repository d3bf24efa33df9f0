package db

import (
	"context"
	"log/slog"
)

// RetryRead runs fn and, if it fails transiently while ctx is still live,
// runs it exactly once more. Only for side-effect free reads.
func RetryRead(ctx context.Context, op string, fn func() error) error {
	err := fn()
	if err == nil || !IsTransient(err) || ctx.Err() != nil {
		return err
	}
	slog.Warn("transient storage error, retrying", "op", op, "error", err)
	return fn()
}
