// Package contextkeys provides centralized context key definitions.
//
// All request-scoped values shared between middleware and handlers are keyed
// here. This prevents typos and makes key usage discoverable.
package contextkeys

import (
	"context"

	"github.com/simplycrm/simplycrm/pkg/orgs"
	"github.com/simplycrm/simplycrm/pkg/session"
)

// Key is the type for context keys to prevent collisions.
type Key string

const (
	// PrincipalKey contains the authenticated *orgs.User.
	// Set by: middleware.Auth
	// Used by: tenant resolution, protected endpoints
	PrincipalKey Key = "principal"

	// SessionKey contains the request's *session.Session.
	// Set by: middleware.Auth
	// Used by: tenant resolution, login and logout handlers
	SessionKey Key = "session"
)

// WithPrincipal adds the authenticated user to the context.
func WithPrincipal(ctx context.Context, user *orgs.User) context.Context {
	return context.WithValue(ctx, PrincipalKey, user)
}

// Principal retrieves the authenticated user, or nil.
func Principal(ctx context.Context) *orgs.User {
	if user, ok := ctx.Value(PrincipalKey).(*orgs.User); ok {
		return user
	}
	return nil
}

// WithSession adds the session to the context.
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, SessionKey, sess)
}

// Session retrieves the session, or nil.
func Session(ctx context.Context) *session.Session {
	if sess, ok := ctx.Value(SessionKey).(*session.Session); ok {
		return sess
	}
	return nil
}
