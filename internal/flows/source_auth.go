package flows

import (
	"context"
	"strconv"
	"time"
)

// EventKind discriminates browser events delivered to a flow.
type EventKind uint8

const (
	EventLoading EventKind = iota
	EventTitle
)

// Event is the flow-local browser event model. The root engine converts
// public browser events into this shape before they enter the loop.
type Event struct {
	Kind     EventKind
	Loading  bool
	Title    string
	Subtitle string
}

// Outcome is the terminal state of a source auth flow.
type Outcome uint8

const (
	OutcomeAuthorized Outcome = iota + 1
	OutcomeCancelled
)

// SourceAuthMetrics carries metric IDs needed by the source auth flow.
type SourceAuthMetrics struct {
	PageLoadFinished      int
	AuthCheckAuthorized   int
	AuthCheckUnauthorized int
	AuthCheckError        int
	BackNavigation        int
}

// SourceAuthEvents carries audit event names used by the source auth flow.
type SourceAuthEvents struct {
	PageLoaded     string
	BackNavigation string
}

// SourceAuthDeps captures source auth flow dependencies.
type SourceAuthDeps struct {
	AuthURL string

	IsAuthorized func(context.Context) (bool, error)

	LoadURL     func(string) error
	StopLoading func()
	CanGoBack   func() bool
	GoBack      func() error

	BrowserEvents  <-chan Event
	CancelRequests <-chan struct{}

	SetLoading func(bool)
	SetTitle   func(title, subtitle string)

	Now             func() time.Time
	ObservePageLoad func(time.Duration)
	MetricInc       func(int)
	Emit            func(eventType string, success bool, metadata map[string]string)

	Metrics SourceAuthMetrics
	Events  SourceAuthEvents
}

// RunSourceAuth drives one web-login flow to its single terminal outcome.
//
// The loop is the only owner of flow state. Authorization is evaluated solely
// on loading transitions to false; a predicate error counts as unauthorized
// and the flow keeps waiting. A cancel request becomes back-navigation while
// the browser has history and terminates the flow otherwise. Context
// cancellation terminates as cancelled without the back-navigation
// reinterpretation.
func RunSourceAuth(ctx context.Context, deps SourceAuthDeps) Outcome {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	// Navigation begins immediately; failures surface later as ordinary
	// loading transitions, never as a distinct error path.
	_ = deps.LoadURL(deps.AuthURL)

	loading := true
	loadStart := now()

	for {
		select {
		case <-ctx.Done():
			deps.StopLoading()
			return OutcomeCancelled

		case <-deps.CancelRequests:
			if deps.CanGoBack() {
				deps.MetricInc(deps.Metrics.BackNavigation)
				deps.Emit(deps.Events.BackNavigation, true, nil)
				_ = deps.GoBack()
				continue
			}
			deps.StopLoading()
			return OutcomeCancelled

		case ev, ok := <-deps.BrowserEvents:
			if !ok {
				// Browser went away underneath the flow.
				deps.StopLoading()
				return OutcomeCancelled
			}

			switch ev.Kind {
			case EventTitle:
				deps.SetTitle(ev.Title, ev.Subtitle)

			case EventLoading:
				if ev.Loading {
					if !loading {
						loading = true
						loadStart = now()
					}
					deps.SetLoading(true)
					continue
				}

				// Only a true->false transition counts as a finished page;
				// checking mid-load risks false negatives on partial pages.
				if !loading {
					continue
				}
				loading = false
				deps.SetLoading(false)

				elapsed := now().Sub(loadStart)
				if deps.ObservePageLoad != nil {
					deps.ObservePageLoad(elapsed)
				}
				deps.MetricInc(deps.Metrics.PageLoadFinished)
				deps.Emit(deps.Events.PageLoaded, true, map[string]string{
					"elapsed_ms": formatMillis(elapsed),
				})

				authorized, err := deps.IsAuthorized(ctx)
				if err != nil {
					deps.MetricInc(deps.Metrics.AuthCheckError)
					continue
				}
				if authorized {
					deps.MetricInc(deps.Metrics.AuthCheckAuthorized)
					return OutcomeAuthorized
				}
				deps.MetricInc(deps.Metrics.AuthCheckUnauthorized)
			}
		}
	}
}

func formatMillis(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return strconv.FormatInt(ms, 10)
}
