// Package api wires the HTTP surface: the router, the middleware pipeline,
// and the request handlers for authentication, the active organization, and
// contacts.
package api
