// Package flows contains the flow state machines run by the kotatsu engine.
//
// # Design
//
// Each flow is a Run* function driven by a flow-local Deps struct of function
// fields. The root engine builds the Deps once per invocation and owns all
// wiring (stores, browser, metrics, audit); flow code holds no references to
// engine internals and is testable with plain closures.
//
// # Architecture boundaries
//
// This package owns state transitions only. It never touches Redis, the
// network, or the audit dispatcher directly.
//
// # What this package must NOT do
//
//   - Import the root package or any sibling package.
//   - Spawn goroutines; the caller decides where the loop runs.
//   - Deliver results; Run* functions return the outcome and the caller
//     publishes it.
package flows
