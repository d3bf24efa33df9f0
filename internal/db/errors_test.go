package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestIsDuplicateKey(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm translated", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), true},
		{"pg unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"pg other", &pgconn.PgError{Code: "23503"}, false},
		{"sqlite message", errors.New("constraint failed: UNIQUE constraint failed: votes.user_id, votes.post_id (2067)"), true},
		{"unrelated", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicateKey(tt.err); got != tt.want {
				t.Errorf("IsDuplicateKey(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), true},
		{"bad conn", driver.ErrBadConn, true},
		{"pg serialization", &pgconn.PgError{Code: "40001"}, true},
		{"pg admin shutdown", &pgconn.PgError{Code: "57P01"}, true},
		{"pg connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"pg syntax", &pgconn.PgError{Code: "42601"}, false},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"record not found", gorm.ErrRecordNotFound, false},
		{"canceled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryRead(t *testing.T) {
	ctx := context.Background()

	t.Run("retries a transient failure once", func(t *testing.T) {
		calls := 0
		err := RetryRead(ctx, "test", func() error {
			calls++
			if calls == 1 {
				return driver.ErrBadConn
			}
			return nil
		})
		if err != nil {
			t.Fatalf("expected success on retry, got %v", err)
		}
		if calls != 2 {
			t.Errorf("expected 2 calls, got %d", calls)
		}
	})

	t.Run("gives up after the second failure", func(t *testing.T) {
		calls := 0
		err := RetryRead(ctx, "test", func() error {
			calls++
			return driver.ErrBadConn
		})
		if !errors.Is(err, driver.ErrBadConn) {
			t.Fatalf("expected bad conn, got %v", err)
		}
		if calls != 2 {
			t.Errorf("expected 2 calls, got %d", calls)
		}
	})

	t.Run("does not retry permanent failures", func(t *testing.T) {
		calls := 0
		_ = RetryRead(ctx, "test", func() error {
			calls++
			return gorm.ErrRecordNotFound
		})
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("does not retry once the context is done", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		calls := 0
		_ = RetryRead(cctx, "test", func() error {
			calls++
			return driver.ErrBadConn
		})
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})
}
