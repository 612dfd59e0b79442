package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrConflict marks statements rejected by a UNIQUE or PRIMARY KEY constraint.
var ErrConflict = errors.New("constraint conflict")

const (
	sqliteBusyCode          = 5
	sqliteConstraintCode    = 19
	sqliteConstraintPK      = sqliteConstraintCode | (6 << 8)
	sqliteConstraintUnique  = sqliteConstraintCode | (8 << 8)
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func sqliteCode(err error) (int, bool) {
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		return coder.Code(), true
	}
	return 0, false
}

// IsBusy reports whether err is a SQLITE_BUSY failure.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := sqliteCode(err); ok {
		return code&0xff == sqliteBusyCode
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// IsConflict reports whether err is a uniqueness violation.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConflict) {
		return true
	}
	code, ok := sqliteCode(err)
	if !ok {
		return false
	}
	return code == sqliteConstraintUnique || code == sqliteConstraintPK
}

func classify(err error) error {
	if err == nil || errors.Is(err, ErrConflict) {
		return err
	}
	if IsConflict(err) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !IsBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
