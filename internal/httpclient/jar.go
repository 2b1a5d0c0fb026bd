package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/LanaDelRey07/Kotatsu/internal/stores"
)

// Jar is a persistent http.CookieJar. Request matching is delegated to the
// standard library jar; every write is mirrored to the cookie store so login
// sessions survive restarts. Store failures degrade the jar to memory-only
// behavior for the affected domain.
type Jar struct {
	inner   *cookiejar.Jar
	store   *stores.CookieStore
	ttl     time.Duration
	onError func(op string, err error)

	mu      sync.Mutex
	primed  map[string]bool
	records map[string]map[string]stores.CookieRecord

	now func() time.Time
}

// NewJar builds a jar over an optional cookie store. A nil store yields a
// purely in-memory jar; onError receives "persist" and "restore" failures.
func NewJar(store *stores.CookieStore, ttl time.Duration, onError func(op string, err error)) (*Jar, error) {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if onError == nil {
		onError = func(string, error) {}
	}
	return &Jar{
		inner:   inner,
		store:   store,
		ttl:     ttl,
		onError: onError,
		primed:  make(map[string]bool),
		records: make(map[string]map[string]stores.CookieRecord),
		now:     time.Now,
	}, nil
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	host := u.Hostname()

	j.mu.Lock()
	j.prime(host)

	domain := j.records[host]
	if domain == nil {
		domain = make(map[string]stores.CookieRecord)
		j.records[host] = domain
	}
	for _, cookie := range cookies {
		if cookie.MaxAge < 0 || (!cookie.Expires.IsZero() && cookie.Expires.Before(j.now())) {
			delete(domain, cookie.Name)
			continue
		}
		record := stores.CookieRecord{
			Name:     cookie.Name,
			Value:    cookie.Value,
			Domain:   host,
			Path:     cookie.Path,
			Secure:   cookie.Secure,
			HTTPOnly: cookie.HttpOnly,
		}
		if !cookie.Expires.IsZero() {
			record.Expires = cookie.Expires.Unix()
		} else if cookie.MaxAge > 0 {
			record.Expires = j.now().Add(time.Duration(cookie.MaxAge) * time.Second).Unix()
		}
		domain[cookie.Name] = record
	}
	flattened := flattenRecords(domain)
	j.mu.Unlock()

	j.inner.SetCookies(u, cookies)

	if j.store != nil {
		if err := j.store.Save(context.Background(), host, flattened, j.ttl); err != nil {
			j.onError("persist", err)
		}
	}
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	j.prime(u.Hostname())
	j.mu.Unlock()

	return j.inner.Cookies(u)
}

// Named returns the current value of one cookie for a domain, independent of
// any request. Expired cookies are never returned.
func (j *Jar) Named(domain, name string) (*http.Cookie, bool) {
	j.mu.Lock()
	j.prime(domain)
	record, ok := j.records[domain][name]
	j.mu.Unlock()

	if ok {
		if record.Expires > 0 && j.now().Unix() >= record.Expires {
			return nil, false
		}
		return recordToCookie(record), true
	}

	// Memory-only sessions (no store, cookies set by the inner jar alone)
	// are looked up through request matching.
	for _, cookie := range j.inner.Cookies(hostURL(domain)) {
		if cookie.Name == name {
			return cookie, true
		}
	}
	return nil, false
}

// Forget drops every cookie for a domain, in memory and in the store.
func (j *Jar) Forget(ctx context.Context, domain string) error {
	j.mu.Lock()
	j.prime(domain)
	names := make([]string, 0, len(j.records[domain]))
	for name := range j.records[domain] {
		names = append(names, name)
	}
	delete(j.records, domain)
	j.mu.Unlock()

	if len(names) == 0 {
		for _, cookie := range j.inner.Cookies(hostURL(domain)) {
			names = append(names, cookie.Name)
		}
	}
	expired := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		expired = append(expired, &http.Cookie{Name: name, MaxAge: -1, Path: "/"})
	}
	if len(expired) > 0 {
		j.inner.SetCookies(hostURL(domain), expired)
	}

	if j.store == nil {
		return nil
	}
	if _, err := j.store.Delete(ctx, domain); err != nil {
		return err
	}
	return nil
}

// prime loads the persisted cookie set for a domain exactly once. Restore
// failures mark the domain primed anyway: the jar falls back to memory-only
// behavior rather than retrying the backend on every request.
func (j *Jar) prime(domain string) {
	if j.store == nil || j.primed[domain] {
		return
	}
	j.primed[domain] = true

	records, err := j.store.Get(context.Background(), domain)
	if err != nil {
		if !errors.Is(err, stores.ErrCookiesNotFound) {
			j.onError("restore", err)
		}
		return
	}

	domainRecords := make(map[string]stores.CookieRecord, len(records))
	restored := make([]*http.Cookie, 0, len(records))
	for _, record := range records {
		if record.Expires > 0 && j.now().Unix() >= record.Expires {
			continue
		}
		domainRecords[record.Name] = record
		restored = append(restored, recordToCookie(record))
	}
	j.records[domain] = domainRecords
	if len(restored) > 0 {
		j.inner.SetCookies(hostURL(domain), restored)
	}
}

func flattenRecords(domain map[string]stores.CookieRecord) []stores.CookieRecord {
	out := make([]stores.CookieRecord, 0, len(domain))
	for _, record := range domain {
		out = append(out, record)
	}
	return out
}

func recordToCookie(record stores.CookieRecord) *http.Cookie {
	cookie := &http.Cookie{
		Name:     record.Name,
		Value:    record.Value,
		Path:     record.Path,
		Secure:   record.Secure,
		HttpOnly: record.HTTPOnly,
	}
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	if record.Expires > 0 {
		cookie.Expires = time.Unix(record.Expires, 0)
	}
	return cookie
}

func hostURL(domain string) *url.URL {
	return &url.URL{Scheme: "https", Host: domain, Path: "/"}
}
