package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/simplycrm/simplycrm/pkg/auth"
	"github.com/simplycrm/simplycrm/pkg/contextkeys"
	"github.com/simplycrm/simplycrm/pkg/httputil"
	"github.com/simplycrm/simplycrm/pkg/observability"
	"github.com/simplycrm/simplycrm/pkg/orgs"
	"github.com/simplycrm/simplycrm/pkg/session"
)

// SessionUserKey is the session key holding the authenticated user id.
const SessionUserKey = "user_id"

// Auth loads the session and resolves the principal from either a bearer
// token or the session. Requests without credentials proceed anonymously;
// endpoints that need a principal enforce it themselves.
func Auth(sessions *session.Manager, dir orgs.Directory, tokens auth.TokenRegistry, logger *observability.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sess, err := sessions.Load(ctx, r)
			if err != nil {
				if logger != nil {
					logger.WithError(err).Error("session load failed")
				}
				httputil.WriteDetail(w, http.StatusServiceUnavailable, "service unavailable")
				return
			}
			ctx = contextkeys.WithSession(ctx, sess)

			user, ok := resolvePrincipal(w, r, dir, tokens, sess, logger)
			if !ok {
				return
			}
			if user != nil {
				ctx = contextkeys.WithPrincipal(ctx, user)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolvePrincipal returns the authenticated user, or nil for anonymous
// requests. A false second return means the response was already written.
func resolvePrincipal(w http.ResponseWriter, r *http.Request, dir orgs.Directory, tokens auth.TokenRegistry, sess *session.Session, logger *observability.Logger) (*orgs.User, bool) {
	ctx := r.Context()

	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.WriteUnauthorized(w, "invalid authorization header format")
			return nil, false
		}
		token := parts[1]
		if err := auth.ValidateTokenFormat(token); err != nil {
			httputil.WriteUnauthorized(w, "invalid or expired token")
			return nil, false
		}
		if tokens == nil {
			httputil.WriteUnauthorized(w, "invalid or expired token")
			return nil, false
		}

		userID, err := tokens.UserIDByTokenHash(ctx, auth.HashToken(token))
		if err != nil {
			httputil.WriteUnauthorized(w, "invalid or expired token")
			return nil, false
		}
		user, err := dir.UserByID(ctx, userID)
		if err != nil || !user.IsActive {
			httputil.WriteUnauthorized(w, "invalid or expired token")
			return nil, false
		}
		return user, true
	}

	raw := sess.Get(SessionUserKey)
	if raw == "" {
		return nil, true
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		sess.Delete(SessionUserKey)
		return nil, true
	}

	user, err := dir.UserByID(ctx, userID)
	if err != nil {
		if orgs.IsNotFound(err) {
			sess.Delete(SessionUserKey)
			return nil, true
		}
		if logger != nil {
			logger.WithError(err).Error("principal lookup failed")
		}
		httputil.WriteDetail(w, http.StatusServiceUnavailable, "service unavailable")
		return nil, false
	}
	if !user.IsActive {
		// Deactivation takes effect on the next request.
		sess.Delete(SessionUserKey)
		return nil, true
	}
	return user, true
}

// RequirePrincipal rejects anonymous requests with a 401.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contextkeys.Principal(r.Context()) == nil {
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
