package kotatsu

import (
	"context"

	"github.com/LanaDelRey07/Kotatsu/internal/httpclient"
	"github.com/LanaDelRey07/Kotatsu/token"
)

// cookieAuthenticator treats the presence of a non-empty session cookie as
// proof of authorization. The jar is shared with the HTTP client, so cookies
// captured during the web login are visible here immediately.
type cookieAuthenticator struct {
	jar        *httpclient.Jar
	loginURL   string
	domain     string
	cookieName string
}

func (a *cookieAuthenticator) AuthURL() string {
	return a.loginURL
}

func (a *cookieAuthenticator) IsAuthorized(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	cookie, ok := a.jar.Named(a.domain, a.cookieName)
	return ok && cookie.Value != "", nil
}

// NewCookieAuthenticator builds the authenticator used by sources whose login
// sets a session cookie. The predicate checks the engine jar for a non-empty
// cookie of the given name on the given domain.
//
// NewCookieAuthenticator does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) NewCookieAuthenticator(loginURL, domain, cookieName string) Authenticator {
	return &cookieAuthenticator{
		jar:        e.jar,
		loginURL:   loginURL,
		domain:     domain,
		cookieName: cookieName,
	}
}

// tokenAuthenticator delegates to the token manager: authorized means an
// unexpired bearer token is stored for the source.
type tokenAuthenticator struct {
	tokens   *token.Manager
	loginURL string
	sourceID string
}

func (a *tokenAuthenticator) AuthURL() string {
	return a.loginURL
}

func (a *tokenAuthenticator) IsAuthorized(ctx context.Context) (bool, error) {
	return a.tokens.Authorized(ctx, a.sourceID)
}

// NewTokenAuthenticator builds the authenticator used by sources that hand
// out bearer tokens. The login page (or an out-of-band step) stores the token
// through [Engine.Tokens]; the predicate then reports it until expiry.
//
// NewTokenAuthenticator does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) NewTokenAuthenticator(loginURL, sourceID string) Authenticator {
	return &tokenAuthenticator{
		tokens:   e.tokens,
		loginURL: loginURL,
		sourceID: sourceID,
	}
}
