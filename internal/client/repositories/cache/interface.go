package cache

import (
	"context"

	"github.com/fieldsync/fieldsync/internal/client/models"
)

// Repository describes storage operations for cached responses.
type Repository interface {
	// Upsert writes the entry, replacing any previous value for its key.
	Upsert(ctx context.Context, entry *models.CacheEntry) error

	// Get returns the entry for key, or common.ErrorNotFound.
	Get(ctx context.Context, key string) (*models.CacheEntry, error)

	// Keys lists every stored key.
	Keys(ctx context.Context) ([]string, error)

	// DeleteKeys removes the given keys and reports how many rows went away.
	DeleteKeys(ctx context.Context, keys []string) (int, error)
}
