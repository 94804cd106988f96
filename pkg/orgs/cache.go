package orgs

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedDirectory wraps another Directory with LRU read-through caches for
// organization lookups. The tenant resolver hits the directory on every
// request carrying an impersonation candidate, so id and slug lookups are the
// hot path. Users are not cached: login and session loads already go through
// the session layer.
type CachedDirectory struct {
	inner  Directory
	byID   *lru.Cache[int64, *Organization]
	bySlug *lru.Cache[string, *Organization]
}

// NewCachedDirectory creates a CachedDirectory holding up to size entries per
// key space.
func NewCachedDirectory(inner Directory, size int) (*CachedDirectory, error) {
	byID, err := lru.New[int64, *Organization](size)
	if err != nil {
		return nil, err
	}
	bySlug, err := lru.New[string, *Organization](size)
	if err != nil {
		return nil, err
	}
	return &CachedDirectory{inner: inner, byID: byID, bySlug: bySlug}, nil
}

// OrganizationByID implements Directory. Misses fall through to the inner
// directory; ErrNotFound is not cached so a just-created organization becomes
// visible immediately.
func (d *CachedDirectory) OrganizationByID(ctx context.Context, id int64) (*Organization, error) {
	if org, ok := d.byID.Get(id); ok {
		return org, nil
	}
	org, err := d.inner.OrganizationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d.byID.Add(org.ID, org)
	d.bySlug.Add(org.Slug, org)
	return org, nil
}

// OrganizationBySlug implements Directory.
func (d *CachedDirectory) OrganizationBySlug(ctx context.Context, slug string) (*Organization, error) {
	if org, ok := d.bySlug.Get(slug); ok {
		return org, nil
	}
	org, err := d.inner.OrganizationBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	d.byID.Add(org.ID, org)
	d.bySlug.Add(org.Slug, org)
	return org, nil
}

// UserByID implements Directory, delegating uncached.
func (d *CachedDirectory) UserByID(ctx context.Context, id int64) (*User, error) {
	return d.inner.UserByID(ctx, id)
}

// UserByUsername implements Directory, delegating uncached.
func (d *CachedDirectory) UserByUsername(ctx context.Context, username string) (*User, error) {
	return d.inner.UserByUsername(ctx, username)
}

// Invalidate drops an organization from both caches.
func (d *CachedDirectory) Invalidate(org *Organization) {
	d.byID.Remove(org.ID)
	d.bySlug.Remove(org.Slug)
}
