package kotatsu

import (
	"errors"
	"net/http"
	"time"

	"github.com/LanaDelRey07/Kotatsu/internal/httpclient"
	"github.com/LanaDelRey07/Kotatsu/internal/logger"
	"github.com/LanaDelRey07/Kotatsu/internal/stores"
	"github.com/LanaDelRey07/Kotatsu/token"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Tokens persisted without an explicit JWT expiry still expire a hair before
// typical source session windows.
const tokenExpiryLeeway = 30 * time.Second

// Builder defines a public type used by kotatsu APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	sources        []Source
	browserFactory BrowserFactory
	auditSink      AuditSink
	httpClient     *http.Client
	log            *zap.Logger

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// A nil client is allowed: cookies then live only in process memory and
// tokens fall back to the in-memory store.
//
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSources describes the withsources operation and its observable behavior.
//
// WithSources does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithSources(sources ...Source) *Builder {
	b.sources = append(b.sources, sources...)
	return b
}

// WithBrowserFactory describes the withbrowserfactory operation and its observable behavior.
//
// WithBrowserFactory does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithBrowserFactory(factory BrowserFactory) *Builder {
	b.browserFactory = factory
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithHTTPClient overrides the assembled client. The caller then owns cookie
// persistence; the engine jar is still built for authenticator lookups.
//
// WithHTTPClient does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
//
// WithLogger does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLogger(log *zap.Logger) *Builder {
	b.log = log
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := b.log
	if log == nil {
		log = logger.Named("kotatsu")
	}

	engine := &Engine{
		config:         cfg,
		registry:       newSourceRegistry(),
		browserFactory: b.browserFactory,
		logger:         log,
	}
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	// -------- COOKIE STORE + JAR --------
	if b.redis != nil {
		engine.cookieStore = stores.NewCookieStore(b.redis, cfg.Cookies.RedisPrefix)
	}
	jar, err := httpclient.NewJar(engine.cookieStore, cfg.Cookies.TTL, func(op string, jarErr error) {
		switch op {
		case "persist":
			engine.metricInc(MetricCookiePersistFailure)
		case "restore":
			engine.metricInc(MetricCookieRestoreFailure)
		}
		log.Warn("cookie store degraded to memory-only",
			zap.String("op", op),
			zap.Error(jarErr),
		)
	})
	if err != nil {
		return nil, err
	}
	engine.jar = jar

	// -------- PAGE CACHE --------
	if cfg.Cache.Enabled {
		engine.pageCache = httpclient.NewPageCache(
			cfg.Cache.MaxEntries,
			cfg.Cache.TTL,
			cfg.Cache.CleanupInterval,
			func() { engine.metricInc(MetricPageCacheHit) },
			func() { engine.metricInc(MetricPageCacheMiss) },
		)
	}

	// -------- HTTP CLIENT --------
	if b.httpClient != nil {
		engine.httpClient = b.httpClient
	} else {
		engine.httpClient = httpclient.New(httpclient.Config{
			UserAgent:    cfg.HTTP.UserAgent,
			Timeout:      cfg.HTTP.Timeout,
			RetryMax:     cfg.HTTP.RetryMax,
			RetryWaitMin: cfg.HTTP.RetryWaitMin,
			RetryWaitMax: cfg.HTTP.RetryWaitMax,
		}, jar, engine.pageCache, log.Named("http"))
	}

	// -------- TOKEN MANAGER --------
	var tokenStore token.Store
	if b.redis != nil {
		tokenStore = stores.NewTokenStore(b.redis, "kt")
	} else {
		tokenStore = token.NewMemoryStore()
	}
	manager, err := token.NewManager(tokenStore, tokenExpiryLeeway)
	if err != nil {
		return nil, err
	}
	engine.tokens = manager

	// -------- SOURCES --------
	for _, src := range b.sources {
		if err := engine.RegisterSource(src); err != nil {
			return nil, err
		}
	}

	b.built = true

	return engine, nil
}
