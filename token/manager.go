package token

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNotFound is an exported constant or variable used by the source authentication engine.
	ErrNotFound = errors.New("token not found")
	// ErrEmptyToken is an exported constant or variable used by the source authentication engine.
	ErrEmptyToken = errors.New("empty token")
	// ErrExpired is an exported constant or variable used by the source authentication engine.
	ErrExpired = errors.New("token already expired")
	// ErrBackend is an exported constant or variable used by the source authentication engine.
	ErrBackend = errors.New("token backend unavailable")
)

// Record is one stored bearer token. ExpiresAt is zero for opaque tokens.
type Record struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Store persists token records keyed by source ID.
type Store interface {
	Save(ctx context.Context, sourceID string, record Record, ttl time.Duration) error
	Get(ctx context.Context, sourceID string) (Record, error)
	Delete(ctx context.Context, sourceID string) (bool, error)
}

// Manager defines a public type used by kotatsu APIs.
//
// Manager instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Manager struct {
	store  Store
	leeway time.Duration
	now    func() time.Time
}

// NewManager describes the newmanager operation and its observable behavior.
//
// NewManager may return an error when input validation, dependency calls, or security checks fail.
func NewManager(store Store, leeway time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("nil token store")
	}
	if leeway < 0 || leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Manager{
		store:  store,
		leeway: leeway,
		now:    time.Now,
	}, nil
}

// Put stores a bearer token for a source. JWTs contribute their exp claim as
// the record expiry and are rejected when already expired; anything that does
// not parse as a JWT is kept as an opaque token without expiry.
//
// Put may return an error when input validation, dependency calls, or security checks fail.
func (m *Manager) Put(ctx context.Context, sourceID, accessToken string) error {
	if m == nil || m.store == nil {
		return ErrBackend
	}
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return ErrEmptyToken
	}

	record := Record{AccessToken: accessToken}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err == nil {
		if claims.ExpiresAt != nil {
			record.ExpiresAt = claims.ExpiresAt.Time
		}
	}

	var ttl time.Duration
	if !record.ExpiresAt.IsZero() {
		ttl = record.ExpiresAt.Sub(m.now())
		if ttl <= 0 {
			return ErrExpired
		}
	}

	return m.store.Save(ctx, sourceID, record, ttl)
}

// Authorized reports whether the source holds an unexpired token. A missing
// record is not an error; backend failures are.
//
// Authorized may return an error when input validation, dependency calls, or security checks fail.
func (m *Manager) Authorized(ctx context.Context, sourceID string) (bool, error) {
	if m == nil || m.store == nil {
		return false, ErrBackend
	}

	record, err := m.store.Get(ctx, sourceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if record.AccessToken == "" {
		return false, nil
	}
	if !record.ExpiresAt.IsZero() && !m.now().Add(m.leeway).Before(record.ExpiresAt) {
		return false, nil
	}
	return true, nil
}

// Token returns the stored record for a source.
//
// Token may return an error when input validation, dependency calls, or security checks fail.
func (m *Manager) Token(ctx context.Context, sourceID string) (Record, error) {
	if m == nil || m.store == nil {
		return Record{}, ErrBackend
	}
	return m.store.Get(ctx, sourceID)
}

// Forget removes the stored token for a source. Removing an absent token is
// not an error.
//
// Forget may return an error when input validation, dependency calls, or security checks fail.
func (m *Manager) Forget(ctx context.Context, sourceID string) error {
	if m == nil || m.store == nil {
		return ErrBackend
	}
	_, err := m.store.Delete(ctx, sourceID)
	return err
}
