// Package common defines shared constants and sentinel errors used across
// the store, gateway and sync layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Payload errors.
	ErrorIncorrectPayload = errors.New("incorrect payload")

	// Remote failures, as classified by the gateway.
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrServer       = errors.New("server error")

	// Local failures.
	ErrLocalDataNotAvailable = errors.New("local data unavailable")
	ErrOffline               = errors.New("offline")
	ErrAlreadySyncing        = errors.New("already syncing")
	ErrInternal              = errors.New("internal error")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
