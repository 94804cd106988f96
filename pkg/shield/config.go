package shield

import (
	"strings"
	"time"
)

// Config defines shield behavior for a single check.
type Config struct {
	// Enabled is the master switch; a disabled shield allows everything.
	Enabled bool
	// Window is the fixed bucket lifetime.
	Window time.Duration
	// BurstLimit is the max requests per window before the penalty applies.
	BurstLimit int
	// Penalty is how long a client is blocked after exceeding the burst.
	Penalty time.Duration
	// SignatureTTL is the duplicate suppression window.
	SignatureTTL time.Duration
	// ProtectedPrefixes lists the path prefixes subject to the shield.
	ProtectedPrefixes []string
}

// DefaultConfig returns the deployment defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		Window:            10 * time.Second,
		BurstLimit:        60,
		Penalty:           60 * time.Second,
		SignatureTTL:      15 * time.Second,
		ProtectedPrefixes: []string{"/api/"},
	}
}

// Protects reports whether path falls under a protected prefix.
func (c Config) Protects(path string) bool {
	for _, prefix := range c.ProtectedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Provider resolves the active configuration. It runs on every check, which
// keeps the shield hot-reloadable.
type Provider func() Config

// StaticProvider returns a Provider that always yields cfg.
func StaticProvider(cfg Config) Provider {
	return func() Config { return cfg }
}
