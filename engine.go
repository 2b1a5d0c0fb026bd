package kotatsu

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/LanaDelRey07/Kotatsu/internal/httpclient"
	"github.com/LanaDelRey07/Kotatsu/internal/stores"
	"github.com/LanaDelRey07/Kotatsu/token"
	"go.uber.org/zap"
)

// Engine defines a public type used by kotatsu APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config         Config
	registry       *sourceRegistry
	browserFactory BrowserFactory
	httpClient     *http.Client
	jar            *httpclient.Jar
	cookieStore    *stores.CookieStore
	pageCache      *httpclient.PageCache
	tokens         *token.Manager
	audit          *auditDispatcher
	metrics        *Metrics
	logger         *zap.Logger
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}

// HTTPClient returns the shared client sources use for API calls. Requests
// made through it carry the persistent cookie jar, so a completed web login
// is immediately visible to source fetches.
//
// HTTPClient does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) HTTPClient() *http.Client {
	if e == nil {
		return nil
	}
	return e.httpClient
}

// Tokens returns the token manager backing token-based authenticators.
//
// Tokens does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Tokens() *token.Manager {
	if e == nil {
		return nil
	}
	return e.tokens
}

// SetBrowserFactory installs the browser factory after Build. Browser
// implementations usually need the engine's HTTP client, which does not exist
// until Build returns. Call before the first StartSourceAuth; the factory is
// not swapped under running flows.
func (e *Engine) SetBrowserFactory(factory BrowserFactory) {
	if e == nil {
		return
	}
	e.browserFactory = factory
}

// ForgetCookies drops every cookie held for a domain, in memory and in the
// backend. Sources call it to log a reader out of a cookie-based source.
//
// ForgetCookies may return an error when input validation, dependency calls, or security checks fail.
// ForgetCookies does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ForgetCookies(ctx context.Context, domain string) error {
	if e == nil || e.jar == nil {
		return ErrEngineNotReady
	}
	if err := e.jar.Forget(ctx, domain); err != nil {
		if errors.Is(err, stores.ErrCookieBackend) {
			return fmt.Errorf("%w: %v", ErrCookieBackend, err)
		}
		return err
	}
	return nil
}
