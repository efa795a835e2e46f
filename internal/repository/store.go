package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrStoreTimeout marks transient store failures (timeout, lock contention).
// Safe to retry with backoff at the caller's discretion.
var ErrStoreTimeout = errors.New("store operation timed out")

// DefaultTimeout bounds every store operation so no request blocks
// indefinitely on the database.
const DefaultTimeout = 5 * time.Second

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// storeErr maps driver-level timeout and contention failures onto
// ErrStoreTimeout so callers can distinguish retryable errors from data
// errors. Other errors pass through unchanged.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrStoreTimeout, err)
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY") {
		return fmt.Errorf("%w: %v", ErrStoreTimeout, err)
	}
	return err
}

// utcPtr normalizes an optional timestamp to UTC before binding. All
// timestamps are stored and compared in UTC: sqlite compares bound times as
// text and postgres TIMESTAMP drops the offset, so a zoned value would
// compare by wall clock instead of by instant.
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	// Works for both SQLite and PostgreSQL
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
