// Package shield applies burst limiting, penalty escalation, and duplicate
// request suppression per client identity.
//
// # Algorithm
//
// Each check runs, in order:
//
//  1. Penalty box: a client inside its penalty window is rejected before
//     consuming any rate budget or being checked for duplication.
//  2. Duplicate suppression: mutating requests carrying X-Request-Signature
//     are deduplicated with an atomic set-if-absent, so two concurrent
//     submissions of the same signature cannot both pass.
//  3. Fixed-window bucket: the per-client counter increments; exceeding the
//     burst limit creates the penalty entry and blocks the request.
//
// Only requests under the configured path prefixes are shielded. The
// configuration is re-resolved through the Provider on every check, so limits
// and the enabled switch are hot-reloadable.
//
// # Failure policy
//
// When the key-value store is unreachable the penalty check fails closed (a
// client that cannot be cleared against the penalty box is blocked) while the
// duplicate check and bucket increment fail open (legitimate traffic is never
// dropped because counting is down).
package shield
