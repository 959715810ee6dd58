package records

import (
	"context"

	"github.com/fieldsync/fieldsync/internal/client/models"
)

// Repository describes queue operations for PendingRecord rows. Attachments
// are stored separately (see package attachments).
type Repository interface {
	// CreateOrUpdate inserts a record or replaces body/remote id/flag by ID.
	CreateOrUpdate(ctx context.Context, r *models.PendingRecord) error

	// GetByID returns a record or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.PendingRecord, error)

	// GetAllPending returns records flagged needs_sync=1, oldest first.
	GetAllPending(ctx context.Context) ([]*models.PendingRecord, error)

	// CountPending returns the size of the pending set.
	CountPending(ctx context.Context) (int, error)

	// MarkSynced clears the pending flag and stores the server id and final body.
	MarkSynced(ctx context.Context, id, remoteID string, body []byte) error
}
