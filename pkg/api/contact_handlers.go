package api

import (
	"net/http"

	"github.com/simplycrm/simplycrm/pkg/contacts"
	"github.com/simplycrm/simplycrm/pkg/httputil"
	"github.com/simplycrm/simplycrm/pkg/tenant"
)

// listContacts returns the active organization's contacts. A request with no
// resolvable organization gets an empty list, never a cross-tenant one.
func (s *Server) listContacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	org := tenant.Current(ctx)
	if org == nil {
		httputil.WriteSuccess(w, []*contacts.Contact{})
		return
	}

	result, err := s.contacts.ListByOrganization(ctx, org.ID)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Error("failed to list contacts")
		}
		httputil.WriteInternalError(w)
		return
	}
	if result == nil {
		result = []*contacts.Contact{}
	}
	httputil.WriteSuccess(w, result)
}

func (s *Server) getContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	org := tenant.Current(ctx)
	if org == nil {
		httputil.WriteNotFound(w, "contact not found")
		return
	}

	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	contact, err := s.contacts.ByID(ctx, org.ID, id)
	if err != nil {
		if contacts.IsNotFound(err) {
			httputil.WriteNotFound(w, "contact not found")
			return
		}
		if s.logger != nil {
			s.logger.WithError(err).Error("failed to get contact")
		}
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteSuccess(w, contact)
}

type createContactRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
}

func (s *Server) createContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	org := tenant.Current(ctx)
	if org == nil {
		httputil.WriteForbidden(w, "no active organization")
		return
	}

	var req createContactRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		httputil.WriteBadRequest(w, "first_name, last_name, and email are required")
		return
	}

	contact := &contacts.Contact{
		OrganizationID: org.ID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		Company:        req.Company,
	}
	if err := s.contacts.Create(ctx, contact); err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Error("failed to create contact")
		}
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteCreated(w, contact)
}
