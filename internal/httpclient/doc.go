// Package httpclient assembles the shared HTTP client used by the kotatsu
// engine: a retrying transport, a persistent cookie jar, and an in-memory
// page cache.
//
// # Design
//
// The round-tripper chain is cache -> user-agent -> retrying base. The jar
// wraps the standard library jar for request matching and mirrors writes to
// the Redis cookie store; when the store is unavailable it degrades to plain
// in-memory behavior and reports the failure through a callback instead of
// failing the request. Cache capacity is an explicit setting or a tier
// derived from the process memory budget.
//
// # What this package must NOT do
//
//   - Fail a request because persistence or caching failed.
//   - Import the root package.
package httpclient
