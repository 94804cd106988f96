// Package orgs defines the two durable entities the tenant resolver reasons
// about, organizations and users, and the Directory used to look them up.
//
// # Overview
//
// Every user belongs to exactly one organization. Only users carrying a staff
// or superuser flag may impersonate a different organization. The resolver
// in pkg/tenant consumes the Directory interface; the concrete backends are:
//
//   - PostgresDirectory: production lookups against the CRM database
//   - CachedDirectory: LRU read-through cache wrapping another Directory
//   - MemoryDirectory: in-memory fixture used across test suites
//
// Lookups that find nothing return ErrNotFound; callers treat that as "no
// candidate", never as a request failure.
package orgs
