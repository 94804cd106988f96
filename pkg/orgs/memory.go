package orgs

import (
	"context"
	"sync"
)

// MemoryDirectory is an in-memory Directory used by tests and local
// development.
type MemoryDirectory struct {
	mu    sync.RWMutex
	orgs  map[int64]*Organization
	users map[int64]*User
}

// NewMemoryDirectory creates an empty MemoryDirectory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		orgs:  make(map[int64]*Organization),
		users: make(map[int64]*User),
	}
}

// AddOrganization stores an organization.
func (d *MemoryDirectory) AddOrganization(org *Organization) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.orgs[org.ID] = org
}

// AddUser stores a user.
func (d *MemoryDirectory) AddUser(user *User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[user.ID] = user
}

// OrganizationByID implements Directory.
func (d *MemoryDirectory) OrganizationByID(ctx context.Context, id int64) (*Organization, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if org, ok := d.orgs[id]; ok {
		return org, nil
	}
	return nil, ErrNotFound
}

// OrganizationBySlug implements Directory.
func (d *MemoryDirectory) OrganizationBySlug(ctx context.Context, slug string) (*Organization, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, org := range d.orgs {
		if org.Slug == slug {
			return org, nil
		}
	}
	return nil, ErrNotFound
}

// UserByID implements Directory.
func (d *MemoryDirectory) UserByID(ctx context.Context, id int64) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if user, ok := d.users[id]; ok {
		return user, nil
	}
	return nil, ErrNotFound
}

// UserByUsername implements Directory.
func (d *MemoryDirectory) UserByUsername(ctx context.Context, username string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, user := range d.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, ErrNotFound
}
