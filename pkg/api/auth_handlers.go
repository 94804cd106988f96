package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/simplycrm/simplycrm/pkg/audit"
	"github.com/simplycrm/simplycrm/pkg/auth"
	"github.com/simplycrm/simplycrm/pkg/contextkeys"
	"github.com/simplycrm/simplycrm/pkg/httputil"
	"github.com/simplycrm/simplycrm/pkg/middleware"
	"github.com/simplycrm/simplycrm/pkg/observability"
	"github.com/simplycrm/simplycrm/pkg/orgs"
	"github.com/simplycrm/simplycrm/pkg/shield"
	"github.com/simplycrm/simplycrm/pkg/tenant"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email,omitempty"`
	FullName       string `json:"full_name,omitempty"`
	IsStaff        bool   `json:"is_staff"`
	IsSuperuser    bool   `json:"is_superuser"`
	OrganizationID int64  `json:"organization_id,omitempty"`
}

func newUserResponse(user *orgs.User) userResponse {
	return userResponse{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		FullName:       user.FullName,
		IsStaff:        user.IsStaff,
		IsSuperuser:    user.IsSuperuser,
		OrganizationID: user.OrganizationID,
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "username and password are required")
		return
	}

	ctx := r.Context()
	clientIP := shield.ClientIdentity(r)
	user, err := s.authn.Login(ctx, req.Username, req.Password, clientIP)
	if err != nil {
		if locked, ok := auth.AsLocked(err); ok {
			s.recordAuthEvent(r, audit.EventLoginLockout, nil, req.Username, "login rejected by lockout")
			httputil.WriteLocked(w, "too many failed login attempts", locked.Remaining)
			return
		}
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			s.recordAuthEvent(r, audit.EventLoginFailure, nil, req.Username, "invalid credentials")
			httputil.WriteUnauthorized(w, "invalid credentials")
		case errors.Is(err, auth.ErrAccountDisabled):
			s.recordAuthEvent(r, audit.EventLoginFailure, nil, req.Username, "account disabled")
			httputil.WriteForbidden(w, "account disabled")
		default:
			if s.logger != nil {
				s.logger.WithError(err).Error("login failed")
			}
			httputil.WriteInternalError(w)
		}
		return
	}

	sess := contextkeys.Session(ctx)
	sess.Set(middleware.SessionUserKey, strconv.FormatInt(user.ID, 10))
	if err := s.sessions.Save(ctx, w, sess); err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Error("failed to persist session at login")
		}
		httputil.WriteInternalError(w)
		return
	}

	s.recordAuthEvent(r, audit.EventLoginSuccess, &user.ID, user.Username, "login succeeded")
	httputil.WriteSuccess(w, newUserResponse(user))
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := contextkeys.Session(ctx)
	if user := contextkeys.Principal(ctx); user != nil {
		s.recordAuthEvent(r, audit.EventLogout, &user.ID, user.Username, "session destroyed")
	}
	if err := s.sessions.Destroy(ctx, w, sess); err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Error("failed to destroy session at logout")
		}
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteNoContent(w)
}

type meResponse struct {
	User         userResponse `json:"user"`
	Organization *orgPayload  `json:"organization"`
}

type orgPayload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// recordAuthEvent writes an audit event for the request; failures are logged
// and never surface to the client.
func (s *Server) recordAuthEvent(r *http.Request, eventType audit.EventType, userID *int64, username, detail string) {
	event := &audit.Event{
		Type:      eventType,
		UserID:    userID,
		Username:  username,
		ClientIP:  shield.ClientIdentity(r),
		RequestID: observability.GetRequestID(r.Context()),
		Detail:    detail,
	}
	if err := s.audit.Record(r.Context(), event); err != nil && s.logger != nil {
		s.logger.WithError(err).WithField("event", string(eventType)).
			Warn("failed to record audit event")
	}
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := contextkeys.Principal(ctx)

	resp := meResponse{User: newUserResponse(user)}
	if org := tenant.Current(ctx); org != nil {
		resp.Organization = &orgPayload{ID: org.ID, Name: org.Name, Slug: org.Slug}
	}
	httputil.WriteSuccess(w, resp)
}
