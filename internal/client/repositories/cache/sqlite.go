package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fieldsync/fieldsync/internal/client/models"
	"github.com/fieldsync/fieldsync/internal/common"
	"github.com/fieldsync/fieldsync/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Upsert stores the entry; stored_at is kept as unix milliseconds.
func (r *SQLiteRepository) Upsert(ctx context.Context, e *models.CacheEntry) error {
	query := `INSERT INTO cache_entries (key, payload, stored_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, stored_at = excluded.stored_at`
	_, err := r.db.ExecContext(ctx, query, e.Key, []byte(e.Payload), e.StoredAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to upsert cache entry[%s]: %w", e.Key, err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	var (
		payload  []byte
		storedAt int64
	)
	err := r.db.QueryRowContext(ctx, `SELECT payload, stored_at FROM cache_entries WHERE key = ?`, key).
		Scan(&payload, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry[%s]: %w", key, err)
	}
	return &models.CacheEntry{Key: key, Payload: payload, StoredAt: time.UnixMilli(storedAt).UTC()}, nil
}

func (r *SQLiteRepository) Keys(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key FROM cache_entries ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan cache key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cache keys: %w", err)
	}
	return keys, nil
}

func (r *SQLiteRepository) DeleteKeys(ctx context.Context, keys []string) (int, error) {
	removed := 0
	for _, k := range keys {
		res, err := r.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, k)
		if err != nil {
			return removed, fmt.Errorf("failed to delete cache entry[%s]: %w", k, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return removed, fmt.Errorf("failed to get rows affected: %w", err)
		}
		removed += int(n)
	}
	return removed, nil
}
