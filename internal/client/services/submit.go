package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fieldsync/fieldsync/internal/client/models"
	"github.com/fieldsync/fieldsync/internal/client/store"
	"github.com/fieldsync/fieldsync/internal/client/uploads"
	"github.com/fieldsync/fieldsync/internal/common"
	"github.com/fieldsync/fieldsync/internal/logging"
)

// submitter pushes one pending record (attachments first, then the body) to
// the server and clears its pending flag on success.
type submitter struct {
	remote   Remote
	uploader uploads.Uploader
	store    *store.Store
	log      logging.Logger
}

// submit returns the record outcome and, for failures, the failure kind so
// callers can tell a lost connection from a rejected record.
func (s *submitter) submit(ctx context.Context, rec *models.PendingRecord) (models.RecordOutcome, models.FailureKind) {
	out := models.RecordOutcome{RecordID: rec.ID}

	for _, att := range rec.PendingAttachments() {
		remoteID, err := s.uploader.Upload(ctx, att, surveyRef(rec))
		if err != nil {
			out.Message = fmt.Sprintf("attachment %s: %v", att.ID, err)
			return out, kindOf(err)
		}
		if err := s.store.SetAttachmentRemoteID(ctx, att.ID, remoteID); err != nil {
			out.Message = fmt.Sprintf("attachment %s: %v", att.ID, err)
			return out, models.KindInternal
		}
		for i := range rec.Attachments {
			if rec.Attachments[i].ID == att.ID {
				rec.Attachments[i].RemoteID = remoteID
			}
		}
	}

	body, err := store.SetField(rec.Body, "needsSync", false)
	if err == nil && len(rec.Attachments) > 0 {
		body, err = store.SetField(body, "attachmentIds", rec.AttachmentRemoteIDs())
	}
	if err != nil {
		out.Message = err.Error()
		return out, models.KindInternal
	}

	method, path := http.MethodPost, "/"+rec.Resource
	if rec.RemoteID != "" {
		method, path = http.MethodPut, "/"+rec.Resource+"/"+url.PathEscape(rec.RemoteID)
	}
	env := s.remote.Request(ctx, method, path, body)
	if !env.Success {
		out.Message = env.Message
		return out, env.Kind
	}

	remoteID := idOf(env.Data)
	if remoteID == "" {
		remoteID = rec.RemoteID
	}
	if err := s.store.MarkSynced(ctx, rec.ID, remoteID, body); err != nil {
		out.Message = err.Error()
		return out, models.KindInternal
	}
	out.Success = true
	out.RemoteID = remoteID
	return out, models.KindNone
}

// surveyRef is the id attachments are filed under: the server id when known.
func surveyRef(rec *models.PendingRecord) string {
	if rec.RemoteID != "" {
		return rec.RemoteID
	}
	return rec.ID
}

func kindOf(err error) models.FailureKind {
	switch {
	case errors.Is(err, common.ErrUnavailable):
		return models.KindTransport
	case errors.Is(err, common.ErrUnauthorized):
		return models.KindAuth
	case errors.Is(err, common.ErrServer):
		return models.KindServer
	default:
		return models.KindInternal
	}
}
