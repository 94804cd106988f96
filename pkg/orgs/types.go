package orgs

import "time"

// Organization represents an isolated customer account. All business data in
// the CRM is partitioned by it.
type Organization struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User represents a CRM user account. Users always belong to exactly one
// organization.
type User struct {
	ID             int64      `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email,omitempty"`
	FullName       string     `json:"full_name,omitempty"`
	PasswordHash   string     `json:"-"` // Never expose hash
	IsActive       bool       `json:"is_active"`
	IsStaff        bool       `json:"is_staff"`
	IsSuperuser    bool       `json:"is_superuser"`
	OrganizationID int64      `json:"organization_id"`
	CreatedAt      time.Time  `json:"created_at"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
}

// IsAdmin reports whether the user may impersonate another organization.
func (u *User) IsAdmin() bool {
	return u.IsStaff || u.IsSuperuser
}
