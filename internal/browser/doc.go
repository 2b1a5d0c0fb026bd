// Package browser provides the headless browser used to drive login pages
// when no platform web view is wired in.
//
// # Architecture boundaries
//
// The package renders nothing. It fetches pages with the engine's shared
// HTTP client so every navigation goes through the persistent cookie jar,
// keeps a history stack for back navigation, and reports progress as
// browser events.
//
// # What this package must NOT do
//
//   - execute scripts or follow meta refreshes
//   - inspect cookies or make authorization decisions
//   - cache authentication pages (requests are sent with no-store)
package browser
