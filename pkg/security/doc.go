// Package security hardens the authentication path against brute force.
//
// A LoginAttemptTracker counts credential failures per (username, client)
// pair inside a rolling window and locks the pair out once the threshold is
// reached. Identities are salted sha256 digests, so attacker-supplied
// usernames never become literal store keys and key cardinality stays
// bounded.
//
//	tracker := security.NewLoginAttemptTracker(store, cfg, username, clientIP)
//	if remaining, locked, _ := tracker.IsLocked(ctx); locked { ... }
//
// All state lives in the shared key-value store and expires via TTL.
package security
