package browser

import (
	"context"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"

	kotatsu "github.com/LanaDelRey07/Kotatsu"
)

var titlePattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

// Headless drives login pages over plain HTTP. Each LoadURL pushes onto a
// history stack; GoBack pops and refetches. Events are emitted in page
// order: loading true, an optional title, loading false.
type Headless struct {
	client *http.Client
	events chan kotatsu.BrowserEvent
	done   chan struct{}

	mu      sync.Mutex
	history []string
	cancel  context.CancelFunc

	fetches   sync.WaitGroup
	closeOnce sync.Once
}

// Options tunes headless behavior.
type Options struct {
	// EventBuffer sizes the event channel. Zero means a small default.
	EventBuffer int
}

// NewHeadless builds a browser over the given client. The client must carry
// the engine's cookie jar or logins will not persist.
func NewHeadless(client *http.Client, opts Options) *Headless {
	buffer := opts.EventBuffer
	if buffer <= 0 {
		buffer = 16
	}
	return &Headless{
		client: client,
		events: make(chan kotatsu.BrowserEvent, buffer),
		done:   make(chan struct{}),
	}
}

// Factory adapts NewHeadless to the engine's browser factory signature.
func Factory(client *http.Client, opts Options) kotatsu.BrowserFactory {
	return func(ctx context.Context, src kotatsu.Source) (kotatsu.Browser, error) {
		return NewHeadless(client, opts), nil
	}
}

// LoadURL implements kotatsu.Browser. The fetch runs asynchronously; progress
// arrives on Events.
func (b *Headless) LoadURL(url string) error {
	ctx := b.beginNavigation(url, true)
	b.fetches.Add(1)
	go b.fetch(ctx, url)
	return nil
}

// StopLoading implements kotatsu.Browser.
func (b *Headless) StopLoading() {
	b.mu.Lock()
	cancel := b.cancel
	b.cancel = nil
	b.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// CanGoBack implements kotatsu.Browser.
func (b *Headless) CanGoBack() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.history) > 1
}

// GoBack implements kotatsu.Browser. The previous page is refetched so its
// title and session state are current.
func (b *Headless) GoBack() error {
	b.mu.Lock()
	if len(b.history) < 2 {
		b.mu.Unlock()
		return nil
	}
	b.history = b.history[:len(b.history)-1]
	target := b.history[len(b.history)-1]
	b.mu.Unlock()

	ctx := b.beginNavigation(target, false)
	b.fetches.Add(1)
	go b.fetch(ctx, target)
	return nil
}

// Events implements kotatsu.Browser.
func (b *Headless) Events() <-chan kotatsu.BrowserEvent {
	return b.events
}

// Close implements kotatsu.Browser. Pending fetches are cancelled and the
// event channel is closed once they have drained.
func (b *Headless) Close() error {
	b.closeOnce.Do(func() {
		b.StopLoading()
		close(b.done)
		b.fetches.Wait()
		close(b.events)
	})
	return nil
}

func (b *Headless) beginNavigation(url string, push bool) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	b.mu.Lock()
	if b.cancel != nil {
		b.cancel()
	}
	b.cancel = cancel
	if push {
		b.history = append(b.history, url)
	}
	b.mu.Unlock()

	return ctx
}

func (b *Headless) fetch(ctx context.Context, url string) {
	defer b.fetches.Done()

	b.emit(kotatsu.BrowserEvent{Kind: kotatsu.BrowserEventLoading, Loading: true})

	body, host, err := b.get(ctx, url)
	if err == nil {
		if title := extractTitle(body); title != "" {
			b.emit(kotatsu.BrowserEvent{
				Kind:     kotatsu.BrowserEventTitle,
				Title:    title,
				Subtitle: host,
			})
		}
	}

	// The loading=false transition is emitted even when the fetch failed;
	// the flow decides what a finished page means.
	b.emit(kotatsu.BrowserEvent{Kind: kotatsu.BrowserEventLoading, Loading: false})
}

func (b *Headless) get(ctx context.Context, url string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", err
	}
	// Login pages carry per-session state and must bypass the page cache.
	req.Header.Set("Cache-Control", "no-store")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", "", err
	}
	return string(body), req.URL.Hostname(), nil
}

func (b *Headless) emit(event kotatsu.BrowserEvent) {
	select {
	case <-b.done:
	case b.events <- event:
	}
}

func extractTitle(body string) string {
	match := titlePattern.FindStringSubmatch(body)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strings.Join(strings.Fields(match[1]), " ")))
}
