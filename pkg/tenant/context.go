package tenant

import (
	"context"
	"sync"

	"github.com/simplycrm/simplycrm/pkg/orgs"
)

// scope is the mutable per-request slot holding the active organization.
// One request is handled by one worker, but handlers may still spawn small
// helper goroutines that read the binding, so access is guarded.
type scope struct {
	mu  sync.Mutex
	org *orgs.Organization
}

type scopeKey struct{}

// WithScope installs a fresh, empty binding slot into ctx. The pipeline calls
// this once at request entry; background tasks that want tenant scoping call
// it themselves.
func WithScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeKey{}, &scope{})
}

// HasScope reports whether ctx carries a binding slot.
func HasScope(ctx context.Context) bool {
	_, ok := ctx.Value(scopeKey{}).(*scope)
	return ok
}

// Token captures the binding state before an Activate call so Deactivate can
// restore it exactly.
type Token struct {
	prev     *orgs.Organization
	scope    *scope
	acquired bool
}

// Activate binds org to the current request scope and returns the token for
// the matching Deactivate. Activating on a context without a scope slot is a
// no-op returning an inert token.
func Activate(ctx context.Context, org *orgs.Organization) Token {
	s, ok := ctx.Value(scopeKey{}).(*scope)
	if !ok {
		return Token{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	token := Token{prev: s.org, scope: s, acquired: true}
	s.org = org
	return token
}

// Deactivate restores the binding that was active when token was issued.
func Deactivate(ctx context.Context, token Token) {
	if !token.acquired {
		return
	}

	token.scope.mu.Lock()
	defer token.scope.mu.Unlock()
	token.scope.org = token.prev
}

// Current returns the organization bound to the request, or nil.
func Current(ctx context.Context) *orgs.Organization {
	s, ok := ctx.Value(scopeKey{}).(*scope)
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.org
}

// CurrentOr returns the bound organization, or def when none is bound.
func CurrentOr(ctx context.Context, def *orgs.Organization) *orgs.Organization {
	if org := Current(ctx); org != nil {
		return org
	}
	return def
}

// Scoped runs fn with org bound, guaranteeing teardown on every exit path
// including panics.
func Scoped(ctx context.Context, org *orgs.Organization, fn func(context.Context) error) error {
	if !HasScope(ctx) {
		ctx = WithScope(ctx)
	}
	token := Activate(ctx, org)
	defer Deactivate(ctx, token)
	return fn(ctx)
}
