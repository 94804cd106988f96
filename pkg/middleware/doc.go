// Package middleware provides the HTTP request pipeline: request ids,
// panic recovery, instrumentation, the rate shield, authentication, and
// tenant binding.
//
// The intended order, outermost first, is RequestID, Recover, Instrument,
// Shield, Auth, Tenant. The shield runs before authentication so abusive
// clients are rejected without touching the session store, and tenant
// binding runs last because it needs the principal.
package middleware
