package services

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/fieldsync/fieldsync/internal/client/gateway"
	"github.com/fieldsync/fieldsync/internal/client/models"
	"github.com/fieldsync/fieldsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Login(t *testing.T) {
	remote := &fakeRemote{handle: func(c call) models.Envelope { return ok(`{"accessToken":"abc"}`) }}
	creds := gateway.NewStaticToken("")
	svc := NewAuthService(remote, creds)

	require.False(t, svc.LoggedIn())
	require.NoError(t, svc.Login(context.Background(), "surveyor1", []byte("s3cret")))

	tok, ok := creds.Token()
	require.True(t, ok)
	assert.Equal(t, "abc", tok)
	assert.True(t, svc.LoggedIn())

	calls := remote.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, "/auth/login", calls[0].Path)
	var body map[string]string
	require.NoError(t, json.Unmarshal(calls[0].Body, &body))
	assert.Equal(t, map[string]string{"username": "surveyor1", "password": "s3cret"}, body)

	svc.Logout(context.Background())
	assert.False(t, svc.LoggedIn())
}

func TestAuthService_ExchangeToken(t *testing.T) {
	remote := &fakeRemote{handle: func(c call) models.Envelope { return ok(`{"data":{"token":"api-tok"}}`) }}
	creds := gateway.NewStaticToken("")
	svc := NewAuthService(remote, creds)

	require.NoError(t, svc.ExchangeToken(context.Background(), "idp-token"))

	tok, _ := creds.Token()
	assert.Equal(t, "api-tok", tok)
	assert.Equal(t, "/auth/token-exchange", remote.Calls()[0].Path)
	assert.JSONEq(t, `{"token":"idp-token"}`, string(remote.Calls()[0].Body))
}

func TestAuthService_Failures(t *testing.T) {
	t.Run("rejected", func(t *testing.T) {
		remote := &fakeRemote{handle: func(c call) models.Envelope {
			return models.Fail(models.KindAuth, 401, "bad credentials")
		}}
		creds := gateway.NewStaticToken("old")
		err := NewAuthService(remote, creds).Login(context.Background(), "u", []byte("p"))

		assert.ErrorIs(t, err, common.ErrUnauthorized)
		tok, _ := creds.Token()
		assert.Equal(t, "old", tok)
	})

	t.Run("no token in response", func(t *testing.T) {
		remote := &fakeRemote{handle: func(c call) models.Envelope { return ok(`{"user":"u"}`) }}
		err := NewAuthService(remote, gateway.NewStaticToken("")).Login(context.Background(), "u", []byte("p"))
		assert.ErrorIs(t, err, common.ErrInvalidToken)
	})

	t.Run("offline", func(t *testing.T) {
		remote := &fakeRemote{handle: func(c call) models.Envelope {
			return models.Fail(models.KindTransport, 0, "network error")
		}}
		err := NewAuthService(remote, gateway.NewStaticToken("")).Login(context.Background(), "u", []byte("p"))
		assert.ErrorIs(t, err, common.ErrUnavailable)
	})
}
