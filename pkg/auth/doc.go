// Package auth implements credential verification, opaque API tokens, and
// the login flow with lockout protection.
//
// Passwords are stored as bcrypt hashes. API tokens are random opaque
// strings; only their SHA-256 digest is kept at rest, so a leaked token
// table cannot be replayed.
package auth
