package flows

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type harness struct {
	events  chan Event
	cancels chan struct{}

	mu      sync.Mutex
	loaded  []string
	backs   int
	stopped bool
	canBack bool
	titles  []string
	loading []bool
	emits   []string
	metrics map[int]int
}

func newHarness(canBack bool) *harness {
	return &harness{
		events:  make(chan Event, 16),
		cancels: make(chan struct{}, 1),
		canBack: canBack,
		metrics: make(map[int]int),
	}
}

const (
	metricPageLoad = iota
	metricAuthOK
	metricAuthNo
	metricAuthErr
	metricBack
)

func (h *harness) deps(isAuthorized func(context.Context) (bool, error)) SourceAuthDeps {
	return SourceAuthDeps{
		AuthURL:      "https://example.com/login",
		IsAuthorized: isAuthorized,
		LoadURL: func(url string) error {
			h.mu.Lock()
			h.loaded = append(h.loaded, url)
			h.mu.Unlock()
			return nil
		},
		StopLoading: func() {
			h.mu.Lock()
			h.stopped = true
			h.mu.Unlock()
		},
		CanGoBack: func() bool {
			h.mu.Lock()
			defer h.mu.Unlock()
			return h.canBack
		},
		GoBack: func() error {
			h.mu.Lock()
			h.backs++
			h.mu.Unlock()
			return nil
		},
		BrowserEvents:  h.events,
		CancelRequests: h.cancels,
		SetLoading: func(v bool) {
			h.mu.Lock()
			h.loading = append(h.loading, v)
			h.mu.Unlock()
		},
		SetTitle: func(title, _ string) {
			h.mu.Lock()
			h.titles = append(h.titles, title)
			h.mu.Unlock()
		},
		MetricInc: func(id int) {
			h.mu.Lock()
			h.metrics[id]++
			h.mu.Unlock()
		},
		Emit: func(eventType string, _ bool, _ map[string]string) {
			h.mu.Lock()
			h.emits = append(h.emits, eventType)
			h.mu.Unlock()
		},
		Metrics: SourceAuthMetrics{
			PageLoadFinished:      metricPageLoad,
			AuthCheckAuthorized:   metricAuthOK,
			AuthCheckUnauthorized: metricAuthNo,
			AuthCheckError:        metricAuthErr,
			BackNavigation:        metricBack,
		},
		Events: SourceAuthEvents{
			PageLoaded:     "page_loaded",
			BackNavigation: "back_navigation",
		},
	}
}

func (h *harness) metric(id int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.metrics[id]
}

func runFlow(t *testing.T, ctx context.Context, deps SourceAuthDeps) <-chan Outcome {
	t.Helper()

	out := make(chan Outcome, 1)
	go func() {
		out <- RunSourceAuth(ctx, deps)
	}()
	return out
}

func expectOutcome(t *testing.T, out <-chan Outcome, want Outcome) {
	t.Helper()

	select {
	case got := <-out:
		if got != want {
			t.Fatalf("expected outcome %d, got %d", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for flow outcome")
	}
}

func expectRunning(t *testing.T, out <-chan Outcome) {
	t.Helper()

	select {
	case got := <-out:
		t.Fatalf("flow terminated early with outcome %d", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRunSourceAuthNavigatesToAuthURL(t *testing.T) {
	h := newHarness(false)
	out := runFlow(t, context.Background(), h.deps(func(context.Context) (bool, error) {
		return true, nil
	}))

	h.events <- Event{Kind: EventLoading, Loading: false}
	expectOutcome(t, out, OutcomeAuthorized)

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.loaded) != 1 || h.loaded[0] != "https://example.com/login" {
		t.Fatalf("expected initial navigation to auth url, got %v", h.loaded)
	}
}

func TestRunSourceAuthChecksOnlyOnFinishTransition(t *testing.T) {
	var calls int
	var mu sync.Mutex

	h := newHarness(false)
	out := runFlow(t, context.Background(), h.deps(func(context.Context) (bool, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return false, nil
	}))

	h.events <- Event{Kind: EventLoading, Loading: false}
	h.events <- Event{Kind: EventLoading, Loading: false}
	h.events <- Event{Kind: EventLoading, Loading: true}
	h.events <- Event{Kind: EventLoading, Loading: true}
	h.events <- Event{Kind: EventLoading, Loading: false}

	expectRunning(t, out)

	mu.Lock()
	got := calls
	mu.Unlock()
	if got != 2 {
		t.Fatalf("expected 2 checks for 2 finish transitions, got %d", got)
	}
	if h.metric(metricPageLoad) != 2 {
		t.Fatalf("expected 2 page load metrics, got %d", h.metric(metricPageLoad))
	}

	h.cancels <- struct{}{}
	expectOutcome(t, out, OutcomeCancelled)
}

func TestRunSourceAuthErrorCountsAsUnauthorized(t *testing.T) {
	answers := []func() (bool, error){
		func() (bool, error) { return false, errors.New("backend down") },
		func() (bool, error) { return true, nil },
	}
	var i int
	var mu sync.Mutex

	h := newHarness(false)
	out := runFlow(t, context.Background(), h.deps(func(context.Context) (bool, error) {
		mu.Lock()
		f := answers[i]
		if i < len(answers)-1 {
			i++
		}
		mu.Unlock()
		return f()
	}))

	h.events <- Event{Kind: EventLoading, Loading: false}
	expectRunning(t, out)

	h.events <- Event{Kind: EventLoading, Loading: true}
	h.events <- Event{Kind: EventLoading, Loading: false}
	expectOutcome(t, out, OutcomeAuthorized)

	if h.metric(metricAuthErr) != 1 {
		t.Fatalf("expected 1 predicate error metric, got %d", h.metric(metricAuthErr))
	}
	if h.metric(metricAuthOK) != 1 {
		t.Fatalf("expected 1 authorized metric, got %d", h.metric(metricAuthOK))
	}
}

func TestRunSourceAuthCancelBecomesBackNavigation(t *testing.T) {
	h := newHarness(true)
	out := runFlow(t, context.Background(), h.deps(func(context.Context) (bool, error) {
		return false, nil
	}))

	h.cancels <- struct{}{}
	expectRunning(t, out)

	h.mu.Lock()
	backs := h.backs
	h.mu.Unlock()
	if backs != 1 {
		t.Fatalf("expected 1 back navigation, got %d", backs)
	}
	if h.metric(metricBack) != 1 {
		t.Fatalf("expected back navigation metric, got %d", h.metric(metricBack))
	}

	// Without history the next cancel terminates.
	h.mu.Lock()
	h.canBack = false
	h.mu.Unlock()

	h.cancels <- struct{}{}
	expectOutcome(t, out, OutcomeCancelled)

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stopped {
		t.Fatal("expected StopLoading on cancellation")
	}
}

func TestRunSourceAuthContextCancelSkipsBackNavigation(t *testing.T) {
	h := newHarness(true)
	ctx, cancel := context.WithCancel(context.Background())
	out := runFlow(t, ctx, h.deps(func(context.Context) (bool, error) {
		return false, nil
	}))

	cancel()
	expectOutcome(t, out, OutcomeCancelled)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.backs != 0 {
		t.Fatal("context cancellation must not navigate back")
	}
}

func TestRunSourceAuthClosedEventsTerminates(t *testing.T) {
	h := newHarness(false)
	out := runFlow(t, context.Background(), h.deps(func(context.Context) (bool, error) {
		return false, nil
	}))

	close(h.events)
	expectOutcome(t, out, OutcomeCancelled)
}

func TestRunSourceAuthTitleEventsUpdateDisplay(t *testing.T) {
	h := newHarness(false)
	out := runFlow(t, context.Background(), h.deps(func(context.Context) (bool, error) {
		return false, nil
	}))

	h.events <- Event{Kind: EventTitle, Title: "Login", Subtitle: "example.com"}
	h.events <- Event{Kind: EventTitle, Title: "Two-Factor", Subtitle: "example.com"}
	expectRunning(t, out)

	h.mu.Lock()
	titles := append([]string(nil), h.titles...)
	h.mu.Unlock()
	if len(titles) != 2 || titles[0] != "Login" || titles[1] != "Two-Factor" {
		t.Fatalf("unexpected title updates: %v", titles)
	}

	h.cancels <- struct{}{}
	expectOutcome(t, out, OutcomeCancelled)
}

func TestRunSourceAuthEmitsPageLoadedWithElapsed(t *testing.T) {
	h := newHarness(false)
	deps := h.deps(func(context.Context) (bool, error) { return true, nil })

	var elapsed map[string]string
	var mu sync.Mutex
	deps.Emit = func(eventType string, _ bool, metadata map[string]string) {
		mu.Lock()
		if eventType == "page_loaded" {
			elapsed = metadata
		}
		mu.Unlock()
	}

	out := runFlow(t, context.Background(), deps)
	h.events <- Event{Kind: EventLoading, Loading: false}
	expectOutcome(t, out, OutcomeAuthorized)

	mu.Lock()
	defer mu.Unlock()
	if elapsed == nil {
		t.Fatal("expected page_loaded emit")
	}
	if _, ok := elapsed["elapsed_ms"]; !ok {
		t.Fatal("expected elapsed_ms metadata")
	}
}
