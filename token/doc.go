// Package token manages per-source bearer tokens for the kotatsu engine.
//
// Sources that authenticate with a bearer token instead of session cookies
// store the token here; [Manager.Authorized] answers the flow's authorization
// predicate from the stored record. When the token is a JWT its expiry is read
// from the exp claim without signature verification: the reader is a client of
// the source's API and holds no verification keys. Opaque tokens are stored
// without an expiry.
//
// # What this package must NOT do
//
//   - Verify or mint tokens.
//   - Import the root package.
package token
