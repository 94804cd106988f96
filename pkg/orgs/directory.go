package orgs

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Directory lookups that match nothing.
var ErrNotFound = errors.New("not found")

// Directory resolves organizations and users. The tenant resolver and the
// authentication layer depend on this interface, not on a concrete backend.
type Directory interface {
	OrganizationByID(ctx context.Context, id int64) (*Organization, error)
	OrganizationBySlug(ctx context.Context, slug string) (*Organization, error)
	UserByID(ctx context.Context, id int64) (*User, error)
	UserByUsername(ctx context.Context, username string) (*User, error)
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
