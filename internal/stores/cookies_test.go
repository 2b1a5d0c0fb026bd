package stores

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis failed to start: %v", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func TestCookieStoreSaveGetRoundTrip(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewCookieStore(client, "kc")

	records := []CookieRecord{
		{Name: "session", Value: "abc", Domain: "example.com", Path: "/", Expires: time.Now().Add(time.Hour).Unix(), Secure: true, HTTPOnly: true},
		{Name: "theme", Value: "dark", Domain: "example.com", Path: "/settings"},
	}

	if err := store.Save(context.Background(), "example.com", records, 0); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0] != records[0] || got[1] != records[1] {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, records)
	}
}

func TestCookieStoreGetMissing(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewCookieStore(client, "kc")

	if _, err := store.Get(context.Background(), "nowhere.example"); !errors.Is(err, ErrCookiesNotFound) {
		t.Fatalf("expected ErrCookiesNotFound, got %v", err)
	}
}

func TestCookieStoreEmptySaveDeletes(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewCookieStore(client, "kc")

	seed := []CookieRecord{{Name: "session", Value: "abc", Domain: "example.com"}}
	if err := store.Save(context.Background(), "example.com", seed, 0); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(context.Background(), "example.com", nil, 0); err != nil {
		t.Fatalf("empty Save failed: %v", err)
	}
	if _, err := store.Get(context.Background(), "example.com"); !errors.Is(err, ErrCookiesNotFound) {
		t.Fatalf("expected key to be deleted, got %v", err)
	}
}

func TestCookieStoreDelete(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewCookieStore(client, "kc")

	seed := []CookieRecord{{Name: "session", Value: "abc", Domain: "example.com"}}
	if err := store.Save(context.Background(), "example.com", seed, 0); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	deleted, err := store.Delete(context.Background(), "example.com")
	if err != nil || !deleted {
		t.Fatalf("expected deletion, got %v %v", deleted, err)
	}
	deleted, err = store.Delete(context.Background(), "example.com")
	if err != nil || deleted {
		t.Fatalf("expected idempotent delete, got %v %v", deleted, err)
	}
}

func TestCookieStoreTTLExpires(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewCookieStore(client, "kc")

	seed := []CookieRecord{{Name: "session", Value: "abc", Domain: "example.com"}}
	if err := store.Save(context.Background(), "example.com", seed, time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := store.Get(context.Background(), "example.com"); !errors.Is(err, ErrCookiesNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestCookieStoreDomains(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewCookieStore(client, "kc")

	for _, domain := range []string{"a.example", "b.example"} {
		seed := []CookieRecord{{Name: "session", Value: "x", Domain: domain}}
		if err := store.Save(context.Background(), domain, seed, 0); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	domains, err := store.Domains(context.Background())
	if err != nil {
		t.Fatalf("Domains failed: %v", err)
	}
	if len(domains) != 2 {
		t.Fatalf("expected 2 domains, got %v", domains)
	}
}

func TestCookieStoreBackendDownWrapsError(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewCookieStore(client, "kc")
	mr.Close()

	seed := []CookieRecord{{Name: "session", Value: "abc", Domain: "example.com"}}
	if err := store.Save(context.Background(), "example.com", seed, 0); !errors.Is(err, ErrCookieBackend) {
		t.Fatalf("expected ErrCookieBackend, got %v", err)
	}
	if _, err := store.Get(context.Background(), "example.com"); !errors.Is(err, ErrCookieBackend) {
		t.Fatalf("expected ErrCookieBackend, got %v", err)
	}
}

func TestCookieRecordDecodeRejectsGarbage(t *testing.T) {
	if _, err := decodeCookieRecords([]byte{}); !errors.Is(err, ErrCookieEncoding) {
		t.Fatalf("expected ErrCookieEncoding for empty payload, got %v", err)
	}
	if _, err := decodeCookieRecords([]byte{99, 0, 1}); !errors.Is(err, ErrCookieEncoding) {
		t.Fatalf("expected ErrCookieEncoding for unknown version, got %v", err)
	}

	valid, err := encodeCookieRecords([]CookieRecord{{Name: "a", Value: "b"}})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if _, err := decodeCookieRecords(append(valid, 0xFF)); !errors.Is(err, ErrCookieEncoding) {
		t.Fatalf("expected ErrCookieEncoding for trailing bytes, got %v", err)
	}
	if _, err := decodeCookieRecords(valid[:len(valid)-2]); !errors.Is(err, ErrCookieEncoding) {
		t.Fatalf("expected ErrCookieEncoding for truncated payload, got %v", err)
	}
}
