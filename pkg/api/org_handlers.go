package api

import (
	"net/http"

	"github.com/simplycrm/simplycrm/pkg/httputil"
	"github.com/simplycrm/simplycrm/pkg/tenant"
)

// currentOrganization returns the organization bound to the request, which
// already accounts for any impersonation override.
func (s *Server) currentOrganization(w http.ResponseWriter, r *http.Request) {
	org := tenant.Current(r.Context())
	if org == nil {
		httputil.WriteNotFound(w, "no active organization")
		return
	}
	httputil.WriteSuccess(w, orgPayload{ID: org.ID, Name: org.Name, Slug: org.Slug})
}
