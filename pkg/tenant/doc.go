// Package tenant binds the active organization to the executing request and
// decides which organization a request may touch.
//
// # Active organization
//
// The binding lives in a per-request slot installed into the request context
// by the pipeline, so concurrent requests never observe each other's
// activation. Activate returns a token capturing the previous value and
// Deactivate restores exactly that value, which makes nested activations
// (an impersonating admin task calling back into tenant-scoped code) unwind
// correctly. Every Activate is paired with a deferred Deactivate, panic
// paths included.
//
//	ctx = tenant.WithScope(ctx)
//	token := tenant.Activate(ctx, org)
//	defer tenant.Deactivate(ctx, token)
//
// # Resolution
//
// Resolver applies the impersonation precedence: an already-active binding
// wins, then the explicit organization id/slug headers, then the query
// parameters, then the session-stored override. Only staff or superusers may
// impersonate; every invalid or unauthorized signal degrades to the
// principal's home organization and clears the stored override. A request
// that resolves to no organization at all must be scoped to nothing by
// downstream code, never to all tenants.
package tenant
