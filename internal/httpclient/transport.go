package httpclient

import (
	"bytes"
	"io"
	"net/http"
	"strings"
)

// Responses above this size are served but never cached.
const maxCachedBodyBytes = 1 << 20

type userAgentTransport struct {
	base  http.RoundTripper
	agent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.agent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.agent)
	}
	return t.base.RoundTrip(req)
}

type cachingTransport struct {
	base  http.RoundTripper
	cache *PageCache
}

func (t *cachingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.cache == nil || req.Method != http.MethodGet || noStore(req.Header) {
		return t.base.RoundTrip(req)
	}

	key := req.URL.String()
	if entry, ok := t.cache.Get(key); ok {
		return synthesizeResponse(req, entry), nil
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK || noStore(resp.Header) {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	closeErr := resp.Body.Close()
	if err != nil {
		return nil, err
	}
	if closeErr != nil {
		return nil, closeErr
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	if len(body) <= maxCachedBodyBytes {
		t.cache.Put(key, CachedResponse{
			Status: resp.StatusCode,
			Header: resp.Header.Clone(),
			Body:   body,
		})
	}
	return resp, nil
}

func noStore(h http.Header) bool {
	return strings.Contains(strings.ToLower(h.Get("Cache-Control")), "no-store")
}

func synthesizeResponse(req *http.Request, entry CachedResponse) *http.Response {
	return &http.Response{
		Status:        http.StatusText(entry.Status),
		StatusCode:    entry.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        entry.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(entry.Body)),
		ContentLength: int64(len(entry.Body)),
		Request:       req,
	}
}
