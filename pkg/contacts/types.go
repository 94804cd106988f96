package contacts

import "time"

// Contact is a CRM contact owned by exactly one organization.
type Contact struct {
	ID             int64     `json:"id"`
	OrganizationID int64     `json:"organization_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	Company        string    `json:"company,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
