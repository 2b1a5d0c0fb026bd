package kotatsu

import "context"

type userAgentContextKey struct{}
type localeContextKey struct{}

// WithUserAgent attaches a per-request User-Agent override to ctx. Flows
// record it in audit events; browser factories may read it to configure the
// page fetcher.
//
//	Docs: docs/flow.md
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentContextKey{}, userAgent)
}

// WithLocale attaches the reader's locale to ctx. Sources whose login pages
// are localized can read it; the engine records it in audit events.
//
//	Docs: docs/flow.md
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeContextKey{}, locale)
}

// UserAgentFromContext returns the User-Agent override set by
// [WithUserAgent], or empty.
func UserAgentFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	userAgent, _ := ctx.Value(userAgentContextKey{}).(string)
	return userAgent
}

func localeFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	locale, _ := ctx.Value(localeContextKey{}).(string)
	return locale
}
