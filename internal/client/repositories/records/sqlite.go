package records

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

// CreateOrUpdate upserts a record by id. created_at is kept from the first insert.
func (r *SQLiteRepository) CreateOrUpdate(ctx context.Context, rec *models.PendingRecord) error {
	query := `INSERT INTO pending_records (id, resource, remote_id, body, needs_sync, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET resource = excluded.resource,
				remote_id = excluded.remote_id,
				body = excluded.body,
				needs_sync = excluded.needs_sync,
				updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Resource, rec.RemoteID, []byte(rec.Body), rec.NeedsSync,
		rec.CreatedAt.UnixMilli(), rec.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.PendingRecord, error) {
	query := `SELECT id, resource, remote_id, body, needs_sync, created_at, updated_at
			FROM pending_records WHERE id = ?`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) GetAllPending(ctx context.Context) ([]*models.PendingRecord, error) {
	query := `SELECT id, resource, remote_id, body, needs_sync, created_at, updated_at
			FROM pending_records WHERE needs_sync = 1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending records: %w", err)
	}
	defer rows.Close()

	var pending []*models.PendingRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		pending = append(pending, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pending, nil
}

func (r *SQLiteRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_records WHERE needs_sync = 1`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pending records: %w", err)
	}
	return n, nil
}

// MarkSynced expects exactly one row to be affected.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id, remoteID string, body []byte) error {
	query := `UPDATE pending_records SET needs_sync = 0, remote_id = ?, body = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, remoteID, body, time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to mark record synced: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.PendingRecord, error) {
	var (
		rec                  models.PendingRecord
		body                 []byte
		created, updatedUnix int64
	)
	if err := s.Scan(&rec.ID, &rec.Resource, &rec.RemoteID, &body, &rec.NeedsSync, &created, &updatedUnix); err != nil {
		return nil, err
	}
	rec.Body = body
	rec.CreatedAt = time.UnixMilli(created).UTC()
	rec.UpdatedAt = time.UnixMilli(updatedUnix).UTC()
	return &rec, nil
}
