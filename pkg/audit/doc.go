// Package audit records security-relevant events: logins, logouts,
// lockouts, and organization impersonation. Events can be persisted to
// Postgres or emitted through the structured logger; recording failures are
// reported to the caller but must never fail the request that caused them.
package audit
