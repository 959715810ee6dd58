// Package uploads moves attachment files to remote storage ahead of the
// record that references them. Backends: the REST server's multipart
// endpoint, server-issued presigned URLs, and direct S3-compatible object
// storage.
package uploads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/fieldsync/fieldsync/internal/client/models"
	"github.com/fieldsync/fieldsync/internal/common"
)

// Uploader stores one attachment and returns its remote id. Errors wrap the
// sentinels in common, so a lost connection matches ErrUnavailable.
type Uploader interface {
	Upload(ctx context.Context, att models.Attachment, surveyID string) (string, error)
}

// MultipartSender is the part of gateway.Gateway used by GatewayUploader.
type MultipartSender interface {
	Upload(ctx context.Context, path string, file io.Reader, fileName, surveyID string) models.Envelope
}

// UploadPath is the server endpoint accepting attachment files.
const UploadPath = "/uploads"

type GatewayUploader struct {
	sender MultipartSender
}

func NewGatewayUploader(sender MultipartSender) *GatewayUploader {
	return &GatewayUploader{sender: sender}
}

func (u *GatewayUploader) Upload(ctx context.Context, att models.Attachment, surveyID string) (string, error) {
	f, err := os.Open(att.LocalPath)
	if err != nil {
		return "", fmt.Errorf("failed to open attachment %s: %w", att.ID, err)
	}
	defer f.Close()

	env := u.sender.Upload(ctx, UploadPath, f, fileName(att), surveyID)
	if !env.Success {
		return "", fmt.Errorf("failed to upload attachment %s: %w", att.ID, env.Err())
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &resp); err != nil || resp.ID == "" {
		return "", fmt.Errorf("upload of %s returned no id: %w", att.ID, common.ErrorIncorrectPayload)
	}
	return resp.ID, nil
}

func fileName(att models.Attachment) string {
	if att.FileName != "" {
		return att.FileName
	}
	return filepath.Base(att.LocalPath)
}

func contentType(att models.Attachment, head []byte) string {
	if att.ContentType != "" {
		return att.ContentType
	}
	return http.DetectContentType(head)
}
