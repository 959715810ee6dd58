package attachments

import (
	"context"
	"fmt"

	"github.com/fieldsync/fieldsync/internal/client/models"
	"github.com/fieldsync/fieldsync/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateOrUpdate(ctx context.Context, a *models.Attachment) error {
	query := `INSERT INTO attachments (id, record_id, position, local_path, file_name, content_type, remote_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET record_id = excluded.record_id,
				position = excluded.position,
				local_path = excluded.local_path,
				file_name = excluded.file_name,
				content_type = excluded.content_type,
				remote_id = excluded.remote_id
	`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.RecordID, a.Position, a.LocalPath, a.FileName, a.ContentType, a.RemoteID)
	if err != nil {
		return fmt.Errorf("failed to upsert attachment: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListByRecord(ctx context.Context, recordID string) ([]models.Attachment, error) {
	query := `SELECT id, record_id, position, local_path, file_name, content_type, remote_id
			FROM attachments WHERE record_id = ? ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("error selecting attachments: %w", err)
	}
	defer rows.Close()

	var result []models.Attachment
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.RecordID, &a.Position, &a.LocalPath, &a.FileName, &a.ContentType, &a.RemoteID); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) MarkUploaded(ctx context.Context, id, remoteID string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE attachments SET remote_id = ? WHERE id = ?`, remoteID, id)
	if err != nil {
		return fmt.Errorf("failed to mark attachment uploaded: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected != 1 {
		return fmt.Errorf("wrong rows affected count: %d", rowsAffected)
	}
	return nil
}
