// Package contacts stores CRM contacts. Every query is scoped to one
// organization; callers obtain the organization from the request's tenant
// binding and an unbound request must not reach the repository at all.
package contacts
