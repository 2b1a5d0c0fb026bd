package kotatsu

import (
	"errors"
	"strings"
	"time"
)

// Config defines a public type used by kotatsu APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Flow    FlowConfig
	HTTP    HTTPConfig
	Cookies CookieConfig
	Cache   CacheConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
FLOW CONFIG
====================================
*/

// FlowConfig defines a public type used by kotatsu APIs.
//
// FlowConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type FlowConfig struct {
	// EventBuffer sizes the per-flow channel that serializes browser events
	// into the flow goroutine.
	EventBuffer int
	// LoadingSubtitle is the placeholder shown as the display subtitle until
	// navigation completes or the page reports its own title.
	LoadingSubtitle string
}

/*
====================================
HTTP CONFIG
====================================
*/

// HTTPConfig defines a public type used by kotatsu APIs.
//
// HTTPConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HTTPConfig struct {
	UserAgent    string
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig defines a public type used by kotatsu APIs.
//
// CookieConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CookieConfig struct {
	RedisPrefix string
	// TTL bounds how long persisted cookie sets live in the backend.
	// Zero means no backend expiry; per-cookie Expires still applies.
	TTL time.Duration
}

/*
====================================
CACHE CONFIG
====================================
*/

// CacheConfig defines a public type used by kotatsu APIs.
//
// CacheConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CacheConfig struct {
	Enabled bool
	// MaxEntries caps the in-memory page cache. Zero derives a tier from the
	// process memory budget at Build time.
	MaxEntries      int
	TTL             time.Duration
	CleanupInterval time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by kotatsu APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by kotatsu APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration [New] starts from. Callers tweak
// the returned value and pass it to [Builder.WithConfig].
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Flow: FlowConfig{
			EventBuffer:     16,
			LoadingSubtitle: "loading",
		},
		HTTP: HTTPConfig{
			UserAgent:    "Kotatsu/1.0",
			Timeout:      30 * time.Second,
			RetryMax:     2,
			RetryWaitMin: 500 * time.Millisecond,
			RetryWaitMax: 4 * time.Second,
		},
		Cookies: CookieConfig{
			RedisPrefix: "kc",
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             5 * time.Minute,
			CleanupInterval: 10 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are value types; a shallow copy is a full copy.
	return cfg
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c Config) Validate() error {
	if c.Flow.EventBuffer < 0 {
		return errors.New("flow event buffer must not be negative")
	}
	if c.HTTP.Timeout < 0 {
		return errors.New("http timeout must not be negative")
	}
	if c.HTTP.RetryMax < 0 {
		return errors.New("http retry max must not be negative")
	}
	if c.HTTP.RetryWaitMin < 0 || c.HTTP.RetryWaitMax < 0 {
		return errors.New("http retry waits must not be negative")
	}
	if c.HTTP.RetryWaitMax > 0 && c.HTTP.RetryWaitMin > c.HTTP.RetryWaitMax {
		return errors.New("http retry wait min exceeds max")
	}
	if strings.ContainsAny(c.Cookies.RedisPrefix, " \t\n") {
		return errors.New("cookie redis prefix must not contain whitespace")
	}
	if c.Cookies.TTL < 0 {
		return errors.New("cookie ttl must not be negative")
	}
	if c.Cache.MaxEntries < 0 {
		return errors.New("cache max entries must not be negative")
	}
	if c.Cache.TTL < 0 || c.Cache.CleanupInterval < 0 {
		return errors.New("cache durations must not be negative")
	}
	if c.Audit.BufferSize < 0 {
		return errors.New("audit buffer size must not be negative")
	}
	return nil
}
