// Package claims provides short-lived cross-process claims keyed by a mix's
// (provider, external id) pair. A claim is held around the duplicate check
// and create steps of canonicalization so that two runners cannot both
// create a catalog mix for the same upload.
package claims

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"mixvault/internal/config"
	"mixvault/internal/logging"
	"mixvault/internal/textutil"
)

// ErrClaimTimeout reports that another process held the claim for longer
// than the configured timeout.
var ErrClaimTimeout = errors.New("claim timeout")

const retryDelay = 50 * time.Millisecond

// Release frees a held claim.
type Release func()

// Locker hands out file-backed claims.
type Locker struct {
	dir     string
	timeout time.Duration
	logger  *slog.Logger
}

// New constructs a Locker writing lock files under dir.
func New(dir string, timeout time.Duration, logger *slog.Logger) (*Locker, error) {
	if dir == "" {
		return nil, errors.New("claims: lock directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("claims: create lock directory: %w", err)
	}
	if timeout <= 0 {
		timeout = time.Duration(config.Default().Canonicalize.ClaimTimeoutSeconds) * time.Second
	}
	return &Locker{dir: dir, timeout: timeout, logger: logging.NewComponentLogger(logger, "claims")}, nil
}

// NewFromConfig returns a Locker for cfg, or nil when claim locks are off.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Locker, error) {
	if cfg == nil || !cfg.Canonicalize.ClaimLocks {
		return nil, nil
	}
	return New(cfg.LockDir(), time.Duration(cfg.Canonicalize.ClaimTimeoutSeconds)*time.Second, logger)
}

// Path returns the lock file used for (provider, externalID).
func (l *Locker) Path(provider, externalID string) string {
	key := provider + "\x00" + externalID
	name := fmt.Sprintf("claim-%s-%s.lock", textutil.SanitizeToken(provider), uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)))
	return filepath.Join(l.dir, name)
}

// Claim blocks until the claim for (provider, externalID) is held, ctx is
// done, or the timeout elapses.
func (l *Locker) Claim(ctx context.Context, provider, externalID string) (Release, error) {
	path := l.Path(provider, externalID)
	lock := flock.New(path)

	waitCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	started := time.Now()
	ok, err := lock.TryLockContext(waitCtx, retryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %s after %s", ErrClaimTimeout, externalID, l.timeout)
		}
		return nil, fmt.Errorf("acquire claim %s: %w", externalID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrClaimTimeout, externalID)
	}
	if waited := time.Since(started); waited > retryDelay {
		l.logger.Debug("claim acquired after wait",
			logging.String(logging.FieldProvider, provider),
			logging.String("external_id", externalID),
			logging.Duration("waited", waited),
		)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			l.logger.Warn("failed to release claim",
				logging.String("lock", path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "claim_release_failed"),
				logging.String(logging.FieldErrorHint, "remove the stale lock file if the runner is stopped"),
			)
		}
	}, nil
}
