package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/simplycrm/simplycrm/pkg/audit"
	"github.com/simplycrm/simplycrm/pkg/contextkeys"
	"github.com/simplycrm/simplycrm/pkg/observability"
	"github.com/simplycrm/simplycrm/pkg/session"
	"github.com/simplycrm/simplycrm/pkg/shield"
	"github.com/simplycrm/simplycrm/pkg/tenant"
)

// sessionData adapts a session to the resolver's view of it.
type sessionData struct {
	s *session.Session
}

func (d sessionData) Get(key string) (string, bool) {
	v := d.s.Get(key)
	return v, v != ""
}

func (d sessionData) Set(key, value string) {
	d.s.Set(key, value)
}

func (d sessionData) Delete(key string) {
	d.s.Delete(key)
}

// Tenant installs a fresh binding slot, resolves the request's organization,
// and binds it for the duration of the handler. An unresolved organization
// leaves the slot empty, which downstream queries treat as match-nothing.
func Tenant(resolver *tenant.Resolver, sessions *session.Manager, recorder audit.Recorder, logger *observability.Logger, metrics *observability.Metrics) mux.MiddlewareFunc {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := tenant.WithScope(r.Context())

			sess := contextkeys.Session(ctx)
			principal := contextkeys.Principal(ctx)

			var sd tenant.SessionData
			if sess != nil {
				sd = sessionData{s: sess}
			}
			client := tenant.NewHTTPClient(r, sd, principal)

			org, impersonated := resolver.Resolve(ctx, client)
			if metrics != nil {
				if impersonated {
					metrics.ImpersonationsTotal.Inc()
				}
				if principal != nil && org == nil {
					metrics.UnresolvedTenantsTotal.Inc()
				}
			}
			if impersonated && principal != nil && org != nil {
				event := &audit.Event{
					Type:           audit.EventImpersonation,
					UserID:         &principal.ID,
					Username:       principal.Username,
					OrganizationID: &org.ID,
					ClientIP:       shield.ClientIdentity(r),
					RequestID:      observability.GetRequestID(ctx),
					Detail:         "request bound to impersonated organization " + org.Slug,
				}
				if err := recorder.Record(ctx, event); err != nil && logger != nil {
					logger.WithError(err).Warn("failed to record impersonation event")
				}
			}
			if principal != nil && org == nil && logger != nil {
				logger.WithField("user_id", principal.ID).
					Warn("authenticated request with no resolvable organization")
			}

			// Resolution may have written the impersonation override; persist
			// it before the handler starts the response.
			if sess != nil && sess.Dirty() {
				if err := sessions.Save(ctx, w, sess); err != nil && logger != nil {
					logger.WithError(err).Error("failed to persist session after tenant resolution")
				}
			}

			if org != nil {
				token := tenant.Activate(ctx, org)
				defer tenant.Deactivate(ctx, token)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
