package audit

import "time"

// EventType classifies a security event.
type EventType string

const (
	// EventLoginSuccess records a successful credential check.
	EventLoginSuccess EventType = "login.success"
	// EventLoginFailure records a rejected credential check.
	EventLoginFailure EventType = "login.failure"
	// EventLoginLockout records a lockout being triggered or enforced.
	EventLoginLockout EventType = "login.lockout"
	// EventLogout records a session being destroyed by its owner.
	EventLogout EventType = "logout"
	// EventImpersonation records an admin binding a foreign organization.
	EventImpersonation EventType = "tenant.impersonation"
)

// Event is one security event.
type Event struct {
	ID             int64     `json:"id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
	Type           EventType `json:"type"`
	UserID         *int64    `json:"user_id,omitempty"`
	Username       string    `json:"username,omitempty"`
	OrganizationID *int64    `json:"organization_id,omitempty"`
	ClientIP       string    `json:"client_ip,omitempty"`
	RequestID      string    `json:"request_id,omitempty"`
	Detail         string    `json:"detail,omitempty"`
}
