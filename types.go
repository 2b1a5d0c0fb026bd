package kotatsu

import (
	"context"
	"time"
)

// FlowTagSourceAuth is the fixed correlation tag attached to every
// [FlowResult]. Callers multiplexing several result-producing flows route on
// it; the value is stable and must never change between releases.
const FlowTagSourceAuth = "SourceAuthActivity"

// FlowOutcome is the terminal state of one authentication flow.
//
//	Docs: docs/flow.md
type FlowOutcome uint8

const (
	// OutcomeAuthorized is an exported constant or variable used by the source authentication engine.
	OutcomeAuthorized FlowOutcome = iota + 1
	// OutcomeCancelled is an exported constant or variable used by the source authentication engine.
	OutcomeCancelled
)

// String describes the string operation and its observable behavior.
func (o FlowOutcome) String() string {
	switch o {
	case OutcomeAuthorized:
		return "authorized"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// FlowResult is delivered exactly once per started flow, through
// [AuthFlow.Result]. Tag is always [FlowTagSourceAuth].
//
//	Docs: docs/flow.md
type FlowResult struct {
	Tag      string
	FlowID   string
	SourceID string
	Outcome  FlowOutcome
	At       time.Time
}

// PageTitle is the title/subtitle display pair the flow maintains for UI
// chrome: the source name until the page reports its own title, and a loading
// placeholder until navigation completes.
type PageTitle struct {
	Title    string
	Subtitle string
}

// Source is an immutable descriptor for a content source. Auth is optional:
// a source without the capability is a valid, expected state, and starting a
// flow for it fails with [ErrAuthNotSupported] before any browser is created.
//
//	Docs: docs/sources.md
type Source struct {
	ID    string
	Title string
	Auth  Authenticator
}

// Authenticator is the per-source auth capability: a login URL to navigate to
// and a predicate that reports the current authorization state. IsAuthorized
// may perform I/O (cookie or token lookups) but must not mutate flow state;
// a non-nil error is treated as "not authorized" by the flow.
//
//	Docs: docs/sources.md
type Authenticator interface {
	AuthURL() string
	IsAuthorized(ctx context.Context) (bool, error)
}
