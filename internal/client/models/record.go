package models

import (
	"encoding/json"
	"time"
)

// PendingRecord is a locally created or modified domain record that the
// server has not confirmed yet.
type PendingRecord struct {
	// ID is the local identifier; it stays the same across edits.
	ID string

	// Resource is the collection the record belongs to, e.g. "surveys".
	Resource string

	// RemoteID is the server-side id, empty until the first successful submit.
	RemoteID string

	// Body is the domain record as JSON, including its needsSync flag.
	Body json.RawMessage

	// Attachments are submitted before the body, in order.
	Attachments []Attachment

	NeedsSync bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PendingAttachments returns the attachments that still have no remote id.
func (r *PendingRecord) PendingAttachments() []Attachment {
	var out []Attachment
	for _, a := range r.Attachments {
		if a.RemoteID == "" {
			out = append(out, a)
		}
	}
	return out
}

// AttachmentRemoteIDs lists the remote ids of uploaded attachments in order.
func (r *PendingRecord) AttachmentRemoteIDs() []string {
	ids := make([]string, 0, len(r.Attachments))
	for _, a := range r.Attachments {
		if a.RemoteID != "" {
			ids = append(ids, a.RemoteID)
		}
	}
	return ids
}

// Attachment is a locally captured file belonging to a PendingRecord.
type Attachment struct {
	ID          string
	RecordID    string
	Position    int
	LocalPath   string
	FileName    string
	ContentType string

	// RemoteID replaces LocalPath as the reference once the upload succeeded.
	RemoteID string
}
