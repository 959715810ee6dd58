package attachments

import (
	"context"

	"github.com/fieldsync/fieldsync/internal/client/models"
)

// Repository describes CRUD and workflow operations for Attachment rows.
type Repository interface {
	// CreateOrUpdate inserts or updates an attachment by ID.
	CreateOrUpdate(ctx context.Context, a *models.Attachment) error

	// ListByRecord returns the attachments of a record ordered by position.
	ListByRecord(ctx context.Context, recordID string) ([]models.Attachment, error)

	// MarkUploaded stores the remote file id for the attachment.
	MarkUploaded(ctx context.Context, id, remoteID string) error
}
