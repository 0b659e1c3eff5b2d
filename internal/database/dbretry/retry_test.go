package dbretry_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pubky/franky/internal/database/dbretry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	dbretry.Configure(dbretry.Options{
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		MaxElapsedTime:  time.Second,
	})
}

func TestIsRetryableError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "locked", err: errors.New("database is locked (5) (SQLITE_BUSY)"), want: true},
		{name: "table locked", err: fmt.Errorf("wrapped: %w", errors.New("database table is locked")), want: true},
		{name: "constraint", err: errors.New("UNIQUE constraint failed: post_details.id"), want: false},
		{name: "canceled", err: context.Canceled, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, dbretry.IsRetryableError(tt.err))
		})
	}
}

func TestOperation(t *testing.T) {
	t.Parallel()

	t.Run("permanent error is not retried", func(t *testing.T) {
		t.Parallel()

		attempts := 0
		failure := errors.New("UNIQUE constraint failed")

		_, err := dbretry.Operation(t.Context(), func(context.Context) (int, error) {
			attempts++
			return 0, failure
		})
		require.ErrorIs(t, err, failure)
		assert.Equal(t, 1, attempts)
	})

	t.Run("lock contention is retried", func(t *testing.T) {
		t.Parallel()

		attempts := 0
		result, err := dbretry.Operation(t.Context(), func(context.Context) (string, error) {
			attempts++
			if attempts < 3 {
				return "", errors.New("database is locked")
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 3, attempts)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		t.Parallel()

		attempts := 0
		err := dbretry.NoResult(t.Context(), func(context.Context) error {
			attempts++
			return errors.New("database is locked")
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database is locked")
		assert.Equal(t, 4, attempts)
	})
}
