// Package session provides redis-backed HTTP sessions keyed by an opaque
// cookie. Session values are flat string pairs serialized as JSON; the
// store entry carries the session TTL and is refreshed on every save.
package session
