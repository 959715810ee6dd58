// Package auth holds the bearer token used by the gateway. The token is
// cached in memory and persisted in the metadata table so a restarted client
// stays logged in.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fieldsync/fieldsync/internal/client/repositories/metadata"
	"github.com/fieldsync/fieldsync/internal/common"
	"github.com/fieldsync/fieldsync/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

// persistTimeout bounds metadata writes triggered from the credential
// callbacks, which carry no context of their own.
const persistTimeout = 5 * time.Second

type TokenStore struct {
	mu    sync.RWMutex
	token string
	meta  metadata.Repository
	log   logging.Logger
	now   func() time.Time
}

func NewTokenStore(meta metadata.Repository, log logging.Logger) *TokenStore {
	return &TokenStore{meta: meta, log: log.With("component", "auth"), now: time.Now}
}

// Load reads the persisted token into memory. A missing token is not an
// error.
func (s *TokenStore) Load(ctx context.Context) error {
	raw, err := s.meta.Get(ctx, metadata.KeyAuthToken)
	if err != nil {
		return fmt.Errorf("failed to load token: %w", err)
	}
	s.mu.Lock()
	s.token = string(raw)
	s.mu.Unlock()
	return nil
}

// Token returns the stored token unless it is a JWT whose exp has passed.
func (s *TokenStore) Token() (string, bool) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	if token == "" {
		return "", false
	}
	if err := CheckExpiry(token, s.now()); err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return "", false
		}
	}
	return token, true
}

func (s *TokenStore) OnTokenChanged(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.meta.Set(ctx, metadata.KeyAuthToken, []byte(token)); err != nil {
		s.log.Warn(ctx, "failed to persist token", "error", err)
	}
}

func (s *TokenStore) ClearToken() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.meta.Delete(ctx, metadata.KeyAuthToken); err != nil {
		s.log.Warn(ctx, "failed to delete token", "error", err)
	}
}

// ExpiresAt reports the exp claim of the current token, if it has one.
func (s *TokenStore) ExpiresAt() (time.Time, bool) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	return expiry(token)
}

// CheckExpiry returns ErrTokenExpired for a JWT whose exp is before now.
// Opaque tokens and JWTs without exp are accepted; the signature is not
// verified, the server does that.
func CheckExpiry(token string, now time.Time) error {
	exp, ok := expiry(token)
	if !ok {
		return nil
	}
	if exp.Before(now) {
		return fmt.Errorf("%w: expired at %s", common.ErrTokenExpired, exp.UTC().Format(time.RFC3339))
	}
	return nil
}

func expiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
