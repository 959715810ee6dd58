// Package metadata is a small key/value table for client bookkeeping: the
// last full sync time and the persisted bearer token.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyLastFullSync = "last_full_sync"
	KeyAuthToken    = "auth_token"
)

// Repository is a byte-valued key/value store. Get returns (nil, nil) when
// the key is absent; Delete of an absent key is not an error.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
