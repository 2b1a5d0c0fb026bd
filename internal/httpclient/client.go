package httpclient

import (
	"net/http"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// Config carries the client assembly knobs.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// New assembles the shared client: retrying base transport, user-agent
// stamping, optional response cache, and the given jar.
func New(cfg Config, jar http.CookieJar, cache *PageCache, logger *zap.Logger) *http.Client {
	retry := retryablehttp.NewClient()
	retry.RetryMax = cfg.RetryMax
	if cfg.RetryWaitMin > 0 {
		retry.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		retry.RetryWaitMax = cfg.RetryWaitMax
	}
	retry.Logger = nil
	if logger != nil {
		retry.Logger = leveledLogger{sugar: logger.Sugar()}
	}

	var transport http.RoundTripper = &userAgentTransport{
		base:  retry.StandardClient().Transport,
		agent: cfg.UserAgent,
	}
	if cache != nil {
		transport = &cachingTransport{base: transport, cache: cache}
	}

	return &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   cfg.Timeout,
	}
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger.
type leveledLogger struct {
	sugar *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}
