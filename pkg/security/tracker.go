package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/simplycrm/simplycrm/pkg/kv"
)

// Config holds login protection settings.
type Config struct {
	// MaxAttempts is the number of failures that triggers a lockout.
	MaxAttempts int
	// AttemptWindow is how long the failure counter lives.
	AttemptWindow time.Duration
	// LockoutPeriod is how long a lockout lasts.
	LockoutPeriod time.Duration
	// Salt is mixed into the identity digest.
	Salt string
}

// LoginAttemptTracker tracks login failures for one (username, client) pair.
type LoginAttemptTracker struct {
	store kv.Store
	cfg   Config

	attemptsKey string
	lockKey     string

	now func() time.Time
}

// NewLoginAttemptTracker builds a tracker for the submitted username and the
// requesting client identity. The same username from different clients and
// different usernames from the same client are tracked independently.
func NewLoginAttemptTracker(store kv.Store, cfg Config, username, clientIdentity string) *LoginAttemptTracker {
	digest := sha256.Sum256([]byte(cfg.Salt + ":" + username + ":" + clientIdentity))
	hexDigest := hex.EncodeToString(digest[:])

	return &LoginAttemptTracker{
		store:       store,
		cfg:         cfg,
		attemptsKey: "auth:attempts:" + hexDigest,
		lockKey:     "auth:lock:" + hexDigest,
		now:         time.Now,
	}
}

// IsLocked reports whether the identity is currently locked out and for how
// much longer. A lock whose period has fully elapsed is cleared together with
// the failure counter.
func (t *LoginAttemptTracker) IsLocked(ctx context.Context) (time.Duration, bool, error) {
	val, found, err := t.store.Get(ctx, t.lockKey)
	if err != nil {
		return 0, false, fmt.Errorf("lock lookup failed: %w", err)
	}
	if !found {
		return 0, false, nil
	}

	lockedAt, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// Unreadable marker; drop it rather than locking forever.
		_ = t.store.Delete(ctx, t.lockKey, t.attemptsKey)
		return 0, false, nil
	}

	elapsed := t.now().Sub(time.Unix(lockedAt, 0))
	remaining := t.cfg.LockoutPeriod - elapsed
	if remaining <= 0 {
		if err := t.store.Delete(ctx, t.lockKey, t.attemptsKey); err != nil {
			return 0, false, fmt.Errorf("lock cleanup failed: %w", err)
		}
		return 0, false, nil
	}
	return remaining, true, nil
}

// RegisterFailure records a failed credential check. When this failure
// reaches the threshold the lockout marker is set; the returned flag is true
// and the duration holds the remaining lockout time.
func (t *LoginAttemptTracker) RegisterFailure(ctx context.Context) (time.Duration, bool, error) {
	attempts, err := t.store.Incr(ctx, t.attemptsKey, t.cfg.AttemptWindow)
	if err != nil {
		return 0, false, fmt.Errorf("failure count failed: %w", err)
	}

	if attempts >= int64(t.cfg.MaxAttempts) {
		lockedAt := strconv.FormatInt(t.now().Unix(), 10)
		if err := t.store.SetWithTTL(ctx, t.lockKey, lockedAt, t.cfg.LockoutPeriod); err != nil {
			return 0, false, fmt.Errorf("lock set failed: %w", err)
		}
		return t.IsLocked(ctx)
	}
	return 0, false, nil
}

// Reset clears all tracked state for the identity. Called on successful
// authentication.
func (t *LoginAttemptTracker) Reset(ctx context.Context) error {
	if err := t.store.Delete(ctx, t.attemptsKey, t.lockKey); err != nil {
		return fmt.Errorf("tracker reset failed: %w", err)
	}
	return nil
}
