package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/simplycrm/simplycrm/pkg/httputil"
	"github.com/simplycrm/simplycrm/pkg/shield"
)

// Shield applies the rate shield to every request. Blocked requests get a
// 429 with Retry-After; duplicate submissions get a 409.
func Shield(s *shield.Shield) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			verdict := s.Check(r.Context(), shield.FromRequest(r))
			switch verdict.Outcome {
			case shield.Blocked:
				httputil.WriteTooManyRequests(w, "request rate exceeded", verdict.RetryAfter)
			case shield.Duplicate:
				httputil.WriteConflict(w, "duplicate request")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
