// Package kotatsu provides the source authentication engine for the Kotatsu
// reader: it drives web-based login flows for pluggable content sources,
// detects completion by evaluating each source's authorization predicate after
// page loads, and reports a single tagged outcome per flow.
//
// The package is designed for event-driven client workloads: every flow owns
// one goroutine that serializes all state transitions, so browser callbacks
// and cancel requests never race. Engine methods are safe to call from
// multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// kotatsu is the public surface. It exposes [Engine], [Builder], [Config],
// the [Source] and [Authenticator] contracts, the [Browser] collaborator
// interface, and value types (FlowResult, MetricsSnapshot, AuditEvent). All
// internal coordination — flow orchestration, cookie and token persistence,
// HTTP client assembly, the headless browser — lives under internal/ and is
// never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or encoding details in its
//     public API.
//   - Render pages itself; navigation is always delegated to a [Browser]
//     supplied through [Builder.WithBrowserFactory].
//   - Retry or time out a flow on its own; a flow ends only through
//     authorization, an explicit cancel, or caller context cancellation.
package kotatsu
