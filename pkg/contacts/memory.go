package contacts

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository used by tests and local
// development.
type MemoryRepository struct {
	mu       sync.RWMutex
	nextID   int64
	contacts map[int64]*Contact
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1, contacts: make(map[int64]*Contact)}
}

// ListByOrganization implements Repository.
func (r *MemoryRepository) ListByOrganization(ctx context.Context, orgID int64) ([]*Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Contact
	for _, c := range r.contacts {
		if c.OrganizationID == orgID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].LastName != result[j].LastName {
			return result[i].LastName < result[j].LastName
		}
		return result[i].FirstName < result[j].FirstName
	})
	return result, nil
}

// ByID implements Repository.
func (r *MemoryRepository) ByID(ctx context.Context, orgID, id int64) (*Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.contacts[id]; ok && c.OrganizationID == orgID {
		return c, nil
	}
	return nil, ErrNotFound
}

// Create implements Repository.
func (r *MemoryRepository) Create(ctx context.Context, contact *Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	contact.ID = r.nextID
	r.nextID++
	now := time.Now().UTC()
	contact.CreatedAt = now
	contact.UpdatedAt = now
	r.contacts[contact.ID] = contact
	return nil
}
