package kotatsu

import "context"

// BrowserEventKind discriminates [BrowserEvent] payloads.
type BrowserEventKind uint8

const (
	// BrowserEventLoading is an exported constant or variable used by the source authentication engine.
	BrowserEventLoading BrowserEventKind = iota
	// BrowserEventTitle is an exported constant or variable used by the source authentication engine.
	BrowserEventTitle
)

// BrowserEvent is one navigation callback from the embedded browser
// collaborator: either a loading-state change or a title/subtitle update.
type BrowserEvent struct {
	Kind     BrowserEventKind
	Loading  bool
	Title    string
	Subtitle string
}

// Browser is the embedded web-rendering collaborator consumed by auth flows.
// The engine only ever calls LoadURL, StopLoading, CanGoBack, GoBack and
// reads Events; rendering, redirects, and cookie capture are the
// implementation's concern. Implementations must keep Events open for the
// lifetime of the browser; a closed channel is interpreted as the browser
// going away and cancels the flow.
//
//	Docs: docs/browser.md
type Browser interface {
	LoadURL(url string) error
	StopLoading()
	CanGoBack() bool
	GoBack() error
	Events() <-chan BrowserEvent
	Close() error
}

// BrowserFactory constructs one [Browser] per started flow. The source is
// passed so factories can vary configuration per source (user agent,
// proxies). Factories must not block on navigation.
type BrowserFactory func(ctx context.Context, src Source) (Browser, error)
