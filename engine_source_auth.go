package kotatsu

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LanaDelRey07/Kotatsu/internal/flows"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthFlow is the handle for one running source login. The flow owns its
// state in a single goroutine; the handle only exposes snapshots and the
// terminal result channel.
//
//	Docs: docs/flow.md
type AuthFlow struct {
	id       string
	sourceID string

	results chan FlowResult
	cancels chan struct{}
	done    chan struct{}

	mu      sync.Mutex
	title   PageTitle
	loading bool
}

// ID describes the id operation and its observable behavior.
func (f *AuthFlow) ID() string {
	return f.id
}

// SourceID describes the sourceid operation and its observable behavior.
func (f *AuthFlow) SourceID() string {
	return f.sourceID
}

// Result returns the channel carrying the single terminal [FlowResult]. The
// channel is buffered; the result stays readable after the flow is gone.
func (f *AuthFlow) Result() <-chan FlowResult {
	return f.results
}

// Done is closed once the terminal result has been delivered.
func (f *AuthFlow) Done() <-chan struct{} {
	return f.done
}

// Cancel requests dismissal. While the browser has history the flow
// reinterprets the request as back navigation; otherwise it terminates as
// cancelled. Cancel never blocks and is a no-op after the flow terminated.
func (f *AuthFlow) Cancel() {
	select {
	case <-f.done:
	case f.cancels <- struct{}{}:
	default:
	}
}

// Title returns the current display pair.
func (f *AuthFlow) Title() PageTitle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.title
}

// Loading reports whether a page load is in progress.
func (f *AuthFlow) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

func (f *AuthFlow) setTitle(title, subtitle string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if title != "" {
		f.title.Title = title
	}
	if subtitle != "" {
		f.title.Subtitle = subtitle
	}
}

func (f *AuthFlow) setLoading(loading bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = loading
}

// StartSourceAuth describes the startsourceauth operation and its observable behavior.
//
// The returned flow runs until the source reports authorized after a page
// load, the caller cancels, or ctx is done. Exactly one [FlowResult] tagged
// [FlowTagSourceAuth] is delivered on [AuthFlow.Result]. A source without
// auth capability fails fast with [ErrAuthNotSupported] and no flow handle.
//
// StartSourceAuth may return an error when input validation, dependency calls, or security checks fail.
// StartSourceAuth does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) StartSourceAuth(ctx context.Context, sourceID string) (*AuthFlow, error) {
	if e == nil || e.registry == nil {
		return nil, ErrEngineNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	src, err := e.Source(sourceID)
	if err != nil {
		e.metricInc(MetricFlowUnsupported)
		e.emitAudit(ctx, auditEventFlowUnsupported, false, "", sourceID, "", err, nil)
		return nil, err
	}
	if src.Auth == nil {
		e.metricInc(MetricFlowUnsupported)
		e.emitAudit(ctx, auditEventFlowUnsupported, false, "", sourceID, "", ErrAuthNotSupported, nil)
		return nil, ErrAuthNotSupported
	}

	authURL := src.Auth.AuthURL()
	if authURL == "" {
		e.metricInc(MetricFlowUnsupported)
		e.emitAudit(ctx, auditEventFlowUnsupported, false, "", sourceID, "", ErrAuthURLMissing, nil)
		return nil, ErrAuthURLMissing
	}

	if e.browserFactory == nil {
		e.metricInc(MetricFlowUnsupported)
		e.emitAudit(ctx, auditEventFlowUnsupported, false, "", sourceID, authURL, ErrBrowserUnavailable, nil)
		return nil, ErrBrowserUnavailable
	}
	browser, err := e.browserFactory(ctx, src)
	if err != nil {
		e.metricInc(MetricFlowUnsupported)
		e.emitAudit(ctx, auditEventFlowUnsupported, false, "", sourceID, authURL, ErrBrowserUnavailable, nil)
		return nil, fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
	}

	title := src.Title
	if title == "" {
		title = src.ID
	}

	flow := &AuthFlow{
		id:       uuid.NewString(),
		sourceID: src.ID,
		results:  make(chan FlowResult, 1),
		cancels:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		title: PageTitle{
			Title:    title,
			Subtitle: e.config.Flow.LoadingSubtitle,
		},
		loading: true,
	}

	e.metricInc(MetricFlowStarted)
	e.emitAudit(ctx, auditEventFlowStarted, true, flow.id, src.ID, authURL, nil, func() map[string]string {
		metadata := map[string]string{}
		if userAgent := UserAgentFromContext(ctx); userAgent != "" {
			metadata["user_agent"] = userAgent
		}
		return metadata
	})
	e.logger.Debug("authorization flow started",
		zap.String("flow_id", flow.id),
		zap.String("source_id", src.ID),
	)

	buffer := e.config.Flow.EventBuffer
	if buffer <= 0 {
		buffer = 1
	}
	events := make(chan flows.Event, buffer)

	// Pump browser events into the flow loop. Once the flow terminated the
	// pump keeps draining so browser shutdown never blocks on a full channel.
	go func() {
		defer close(events)
		for ev := range browser.Events() {
			select {
			case events <- toFlowEvent(ev):
			case <-flow.done:
			}
		}
	}()

	deps := flows.SourceAuthDeps{
		AuthURL: authURL,

		IsAuthorized: src.Auth.IsAuthorized,

		LoadURL:     browser.LoadURL,
		StopLoading: browser.StopLoading,
		CanGoBack:   browser.CanGoBack,
		GoBack:      browser.GoBack,

		BrowserEvents:  events,
		CancelRequests: flow.cancels,

		SetLoading: flow.setLoading,
		SetTitle:   flow.setTitle,

		ObservePageLoad: func(d time.Duration) { e.metricObserve(MetricPageLoadLatency, d) },
		MetricInc:       func(id int) { e.metricInc(MetricID(id)) },
		Emit: func(eventType string, success bool, metadata map[string]string) {
			e.emitAudit(ctx, eventType, success, flow.id, src.ID, authURL, nil, func() map[string]string {
				return metadata
			})
		},

		Metrics: flows.SourceAuthMetrics{
			PageLoadFinished:      int(MetricPageLoadFinished),
			AuthCheckAuthorized:   int(MetricAuthCheckAuthorized),
			AuthCheckUnauthorized: int(MetricAuthCheckUnauthorized),
			AuthCheckError:        int(MetricAuthCheckError),
			BackNavigation:        int(MetricFlowBackNavigation),
		},
		Events: flows.SourceAuthEvents{
			PageLoaded:     auditEventPageLoaded,
			BackNavigation: auditEventBackNavigation,
		},
	}

	go func() {
		outcome := flows.RunSourceAuth(ctx, deps)

		result := FlowResult{
			Tag:      FlowTagSourceAuth,
			FlowID:   flow.id,
			SourceID: src.ID,
			At:       time.Now().UTC(),
		}
		switch outcome {
		case flows.OutcomeAuthorized:
			result.Outcome = OutcomeAuthorized
			e.metricInc(MetricFlowAuthorized)
			e.emitAudit(ctx, auditEventFlowAuthorized, true, flow.id, src.ID, authURL, nil, nil)
		default:
			result.Outcome = OutcomeCancelled
			e.metricInc(MetricFlowCancelled)
			e.emitAudit(ctx, auditEventFlowCancelled, false, flow.id, src.ID, authURL, nil, nil)
		}
		e.logger.Info("authorization flow finished",
			zap.String("flow_id", flow.id),
			zap.String("source_id", src.ID),
			zap.String("outcome", result.Outcome.String()),
		)

		flow.results <- result
		close(flow.done)
		_ = browser.Close()
	}()

	return flow, nil
}

func toFlowEvent(ev BrowserEvent) flows.Event {
	switch ev.Kind {
	case BrowserEventTitle:
		return flows.Event{
			Kind:     flows.EventTitle,
			Title:    ev.Title,
			Subtitle: ev.Subtitle,
		}
	default:
		return flows.Event{
			Kind:    flows.EventLoading,
			Loading: ev.Loading,
		}
	}
}
