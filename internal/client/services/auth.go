// Package services contains the application services of the fieldsync
// client: the cache-aside read path, the survey data-access API, the sync
// engine and authentication.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fieldsync/fieldsync/internal/client/gateway"
	"github.com/fieldsync/fieldsync/internal/client/models"
	"github.com/fieldsync/fieldsync/internal/common"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: exchange username/password for a bearer token.
//   - ExchangeToken: trade a token from an external identity provider for an
//     API token.
//   - Logout: forget the token locally.
//
// Acquired tokens are handed to the CredentialProvider, which the gateway
// reads on every request.
type AuthService interface {
	Login(ctx context.Context, username string, password []byte) error
	ExchangeToken(ctx context.Context, externalToken string) error
	Logout(ctx context.Context)
	LoggedIn() bool
}

type authService struct {
	remote Remote
	creds  gateway.CredentialProvider
}

func NewAuthService(remote Remote, creds gateway.CredentialProvider) AuthService {
	return &authService{remote: remote, creds: creds}
}

func (a *authService) Login(ctx context.Context, username string, password []byte) error {
	body := map[string]string{"username": username, "password": string(password)}
	return a.acquire(ctx, "/auth/login", body)
}

func (a *authService) ExchangeToken(ctx context.Context, externalToken string) error {
	return a.acquire(ctx, "/auth/token-exchange", map[string]string{"token": externalToken})
}

func (a *authService) Logout(ctx context.Context) {
	a.creds.ClearToken()
}

func (a *authService) LoggedIn() bool {
	_, ok := a.creds.Token()
	return ok
}

func (a *authService) acquire(ctx context.Context, path string, body any) error {
	env := a.remote.Request(ctx, http.MethodPost, path, body)
	if !env.Success {
		return fmt.Errorf("login error: %w", env.Err())
	}
	token, err := tokenFrom(env)
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}
	a.creds.OnTokenChanged(token)
	return nil
}

// tokenFrom reads the token field, which servers have named token,
// accessToken or access_token, optionally inside a data wrapper.
func tokenFrom(env models.Envelope) (string, error) {
	var resp struct {
		Token       string `json:"token"`
		AccessToken string `json:"accessToken"`
		Access      string `json:"access_token"`
		Data        *struct {
			Token       string `json:"token"`
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorIncorrectPayload, err)
	}
	candidates := []string{resp.Token, resp.AccessToken, resp.Access}
	if resp.Data != nil {
		candidates = append(candidates, resp.Data.Token, resp.Data.AccessToken)
	}
	for _, c := range candidates {
		if c != "" {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: no token in response", common.ErrInvalidToken)
}
