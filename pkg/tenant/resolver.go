package tenant

import (
	"context"
	"strconv"

	"github.com/simplycrm/simplycrm/pkg/orgs"
)

// Request-facing impersonation signals, strongest first.
const (
	HeaderOrganizationID   = "X-Organization-Id"
	HeaderOrganizationSlug = "X-Organization-Slug"
	QueryOrganizationID    = "organization_id"
	QueryOrganizationSlug  = "organization_slug"
	SessionOverrideKey     = "active_organization_id"
)

// Resolver decides which organization is active for a request.
type Resolver struct {
	dir orgs.Directory
}

// NewResolver creates a Resolver backed by the given directory.
func NewResolver(dir orgs.Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve returns the organization the request may touch and whether that
// organization differs from the principal's home (impersonation).
//
// Precedence: an organization already bound to ctx short-circuits everything.
// Unauthenticated requests resolve to nothing. Otherwise the first non-empty
// signal among header id, header slug, query id, query slug, and the session
// override names a candidate; a candidate that does not resolve, equals the
// home organization, or comes from a non-admin clears the stored override and
// the request falls back to home. Admin candidates are persisted into the
// session override so the impersonation survives header-less requests.
func (r *Resolver) Resolve(ctx context.Context, client ClientContext) (*orgs.Organization, bool) {
	if current := Current(ctx); current != nil {
		return current, false
	}

	principal := client.Principal()
	if principal == nil {
		return nil, false
	}

	home := r.homeOrganization(ctx, principal)

	candidate := r.candidateOrganization(ctx, client)
	if candidate == nil || (home != nil && candidate.ID == home.ID) {
		clearOverride(client)
		return home, false
	}

	if !principal.IsAdmin() {
		clearOverride(client)
		return home, false
	}

	if sess := client.Session(); sess != nil {
		sess.Set(SessionOverrideKey, strconv.FormatInt(candidate.ID, 10))
	}
	return candidate, true
}

// homeOrganization loads the principal's own organization. A dangling or
// missing home is tolerated; downstream layers scope such requests to
// nothing.
func (r *Resolver) homeOrganization(ctx context.Context, principal *orgs.User) *orgs.Organization {
	if principal.OrganizationID == 0 {
		return nil
	}
	org, err := r.dir.OrganizationByID(ctx, principal.OrganizationID)
	if err != nil {
		return nil
	}
	return org
}

// candidateOrganization reads the impersonation signals in precedence order
// and resolves the first non-empty one. A signal that fails to resolve clears
// the session override and yields no candidate; it is never an error.
func (r *Resolver) candidateOrganization(ctx context.Context, client ClientContext) *orgs.Organization {
	type signal struct {
		value string
		byID  bool
	}

	signals := []signal{
		{client.Header(HeaderOrganizationID), true},
		{client.Header(HeaderOrganizationSlug), false},
		{client.QueryParam(QueryOrganizationID), true},
		{client.QueryParam(QueryOrganizationSlug), false},
	}
	if sess := client.Session(); sess != nil {
		if stored, ok := sess.Get(SessionOverrideKey); ok {
			signals = append(signals, signal{stored, true})
		}
	}

	for _, sig := range signals {
		if sig.value == "" {
			continue
		}

		var (
			org *orgs.Organization
			err error
		)
		if sig.byID {
			id, parseErr := strconv.ParseInt(sig.value, 10, 64)
			if parseErr != nil {
				clearOverride(client)
				return nil
			}
			org, err = r.dir.OrganizationByID(ctx, id)
		} else {
			org, err = r.dir.OrganizationBySlug(ctx, sig.value)
		}

		if err != nil {
			clearOverride(client)
			return nil
		}
		return org
	}
	return nil
}

func clearOverride(client ClientContext) {
	if sess := client.Session(); sess != nil {
		sess.Delete(SessionOverrideKey)
	}
}
