package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/simplycrm/simplycrm/pkg/kv"
	"github.com/simplycrm/simplycrm/pkg/observability"
)

const sessionKeyPrefix = "session:"

// DefaultCookieName is the session cookie name.
const DefaultCookieName = "simplycrm_session"

// Config controls session issuance.
type Config struct {
	// CookieName is the session cookie name.
	CookieName string
	// TTL is the session lifetime, refreshed on every save.
	TTL time.Duration
	// Secure marks the cookie as HTTPS-only.
	Secure bool
}

// Manager loads, saves, and destroys sessions against the key-value store.
type Manager struct {
	store  kv.Store
	cfg    Config
	logger *observability.Logger
}

// NewManager creates a session manager. logger may be nil.
func NewManager(store kv.Store, cfg Config, logger *observability.Logger) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &Manager{store: store, cfg: cfg, logger: logger}
}

// Load returns the session referenced by the request cookie. A missing
// cookie, unknown session id, or corrupt store entry yields a fresh
// anonymous session rather than an error.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return m.issue(), nil
	}

	raw, found, err := m.store.Get(ctx, sessionKeyPrefix+cookie.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !found {
		return m.issue(), nil
	}

	values := make(map[string]string)
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		if m.logger != nil {
			m.logger.WithError(err).WithField("session_id", cookie.Value).
				Warn("dropping corrupt session entry")
		}
		_ = m.store.Delete(ctx, sessionKeyPrefix+cookie.Value)
		return m.issue(), nil
	}

	return &Session{id: cookie.Value, values: values}, nil
}

// Save persists the session when it has changes and sets the cookie on
// fresh sessions. Saving an unchanged, previously issued session is a no-op.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if !sess.dirty && !sess.fresh {
		return nil
	}
	if sess.fresh && !sess.dirty {
		// Nothing was stored; do not issue a cookie for an empty session.
		return nil
	}

	raw, err := json.Marshal(sess.values)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := m.store.SetWithTTL(ctx, sessionKeyPrefix+sess.id, string(raw), m.cfg.TTL); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if sess.fresh {
		http.SetCookie(w, m.cookie(sess.id, m.cfg.TTL))
		sess.fresh = false
	}
	sess.dirty = false
	return nil
}

// Destroy removes the session from the store and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if err := m.store.Delete(ctx, sessionKeyPrefix+sess.id); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	http.SetCookie(w, m.cookie("", -time.Hour))
	sess.Clear()
	return nil
}

func (m *Manager) issue() *Session {
	return &Session{
		id:     uuid.NewString(),
		values: make(map[string]string),
		fresh:  true,
	}
}

func (m *Manager) cookie(value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
