// Package stores contains the Redis-backed persistence used by the kotatsu
// engine: cookie sets keyed by domain and bearer-token records keyed by
// source.
//
// # Design
//
// Records are encoded in a compact versioned binary layout. Version bumps are
// append-only; decoders reject unknown versions instead of guessing. Backend
// failures are wrapped in per-store sentinel errors so callers can
// distinguish "absent" from "unavailable".
//
// # What this package must NOT do
//
//   - Import the root package.
//   - Interpret cookie or token semantics; expiry policy lives with callers.
package stores
