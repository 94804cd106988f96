package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/simplycrm/simplycrm/pkg/kv"
	"github.com/simplycrm/simplycrm/pkg/observability"
	"github.com/simplycrm/simplycrm/pkg/orgs"
	"github.com/simplycrm/simplycrm/pkg/security"
)

// ErrInvalidCredentials is returned for an unknown username or a wrong
// password. Callers must not distinguish the two.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrAccountDisabled is returned when the credentials are correct but the
// account is deactivated.
var ErrAccountDisabled = errors.New("account disabled")

// LockedError is returned while the identity is locked out.
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked, retry in %d seconds", int(e.Remaining.Seconds()))
}

// AsLocked unwraps err into a LockedError, if it is one.
func AsLocked(err error) (*LockedError, bool) {
	var locked *LockedError
	if errors.As(err, &locked) {
		return locked, true
	}
	return nil, false
}

// Authenticator runs the credential check with lockout protection.
type Authenticator struct {
	dir     orgs.Directory
	store   kv.Store
	cfg     security.Config
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewAuthenticator creates an Authenticator. logger and metrics may be nil.
func NewAuthenticator(dir orgs.Directory, store kv.Store, cfg security.Config, logger *observability.Logger, metrics *observability.Metrics) *Authenticator {
	return &Authenticator{dir: dir, store: store, cfg: cfg, logger: logger, metrics: metrics}
}

// Login verifies the submitted credentials for the client identity. It
// returns the user on success, ErrInvalidCredentials or ErrAccountDisabled
// on failure, and a LockedError while the identity is locked out. Every
// failure counts toward the lockout, including attempts against disabled
// accounts.
func (a *Authenticator) Login(ctx context.Context, username, password, clientIdentity string) (*orgs.User, error) {
	if a.metrics != nil {
		a.metrics.LoginAttemptsTotal.Inc()
	}

	tracker := security.NewLoginAttemptTracker(a.store, a.cfg, username, clientIdentity)

	remaining, locked, err := tracker.IsLocked(ctx)
	if err != nil {
		return nil, fmt.Errorf("lockout check failed: %w", err)
	}
	if locked {
		return nil, &LockedError{Remaining: remaining}
	}

	user, err := a.dir.UserByUsername(ctx, username)
	if err != nil && !orgs.IsNotFound(err) {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}

	if user == nil || !CheckPassword(user.PasswordHash, password) {
		return nil, a.fail(ctx, tracker, username, ErrInvalidCredentials)
	}
	if !user.IsActive {
		return nil, a.fail(ctx, tracker, username, ErrAccountDisabled)
	}

	if err := tracker.Reset(ctx); err != nil && a.logger != nil {
		a.logger.WithError(err).WithField("username", username).
			Warn("failed to reset login tracker after success")
	}
	return user, nil
}

// fail records the failure and upgrades the error to a LockedError when this
// attempt triggered the lockout.
func (a *Authenticator) fail(ctx context.Context, tracker *security.LoginAttemptTracker, username string, cause error) error {
	if a.metrics != nil {
		a.metrics.LoginFailuresTotal.Inc()
	}

	remaining, locked, err := tracker.RegisterFailure(ctx)
	if err != nil {
		if a.logger != nil {
			a.logger.WithError(err).WithField("username", username).
				Error("failed to record login failure")
		}
		return cause
	}
	if locked {
		if a.metrics != nil {
			a.metrics.LoginLockoutsTotal.Inc()
		}
		if a.logger != nil {
			a.logger.WithField("username", username).Warn("login lockout triggered")
		}
		return &LockedError{Remaining: remaining}
	}
	return cause
}
