package contacts

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no contact matches within the organization.
var ErrNotFound = errors.New("contact not found")

// Repository is the storage interface for contacts. Every method takes the
// owning organization id explicitly; there is no unscoped variant.
type Repository interface {
	ListByOrganization(ctx context.Context, orgID int64) ([]*Contact, error)
	ByID(ctx context.Context, orgID, id int64) (*Contact, error)
	Create(ctx context.Context, contact *Contact) error
}

// IsNotFound reports whether err means the contact does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
