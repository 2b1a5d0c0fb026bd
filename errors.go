package kotatsu

import "errors"

var (
	// ErrEngineNotReady is an exported constant or variable used by the source authentication engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrSourceNotFound is an exported constant or variable used by the source authentication engine.
	ErrSourceNotFound = errors.New("source not found")
	// ErrSourceExists is an exported constant or variable used by the source authentication engine.
	ErrSourceExists = errors.New("source already registered")
	// ErrSourceInvalid is an exported constant or variable used by the source authentication engine.
	ErrSourceInvalid = errors.New("source descriptor invalid")
	// ErrAuthNotSupported is an exported constant or variable used by the source authentication engine.
	ErrAuthNotSupported = errors.New("authentication not supported for this source")
	// ErrAuthURLMissing is an exported constant or variable used by the source authentication engine.
	ErrAuthURLMissing = errors.New("authenticator returned an empty login url")
	// ErrBrowserUnavailable is an exported constant or variable used by the source authentication engine.
	ErrBrowserUnavailable = errors.New("no browser factory configured")
	// ErrFlowTerminated is an exported constant or variable used by the source authentication engine.
	ErrFlowTerminated = errors.New("auth flow already terminated")
	// ErrCookieBackend is an exported constant or variable used by the source authentication engine.
	ErrCookieBackend = errors.New("cookie store backend unavailable")
	// ErrTokenBackend is an exported constant or variable used by the source authentication engine.
	ErrTokenBackend = errors.New("token store backend unavailable")
)
