package uploads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fieldsync/fieldsync/internal/client/models"
	"github.com/fieldsync/fieldsync/internal/common"
	"github.com/fieldsync/fieldsync/internal/netx"
)

// PresignPath is the server endpoint that hands out presigned PUT URLs.
const PresignPath = "/uploads/presign"

// Requester is the part of gateway.Gateway used by PresignedUploader.
type Requester interface {
	Request(ctx context.Context, method, path string, body any) models.Envelope
}

// PresignedUploader asks the server for a presigned object URL, then PUTs
// the file there directly. The server-issued id becomes the remote id.
type PresignedUploader struct {
	remote Requester
	client *http.Client
}

func NewPresignedUploader(remote Requester, client *http.Client) *PresignedUploader {
	return &PresignedUploader{remote: remote, client: client}
}

type presignRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SurveyID    string `json:"surveyId,omitempty"`
}

type presignResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (u *PresignedUploader) Upload(ctx context.Context, att models.Attachment, surveyID string) (string, error) {
	f, err := os.Open(att.LocalPath)
	if err != nil {
		return "", fmt.Errorf("failed to open attachment %s: %w", att.ID, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat attachment %s: %w", att.ID, err)
	}
	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind attachment %s: %w", att.ID, err)
	}
	ct := contentType(att, head[:n])

	env := u.remote.Request(ctx, http.MethodPost, PresignPath, presignRequest{
		FileName:    fileName(att),
		ContentType: ct,
		SurveyID:    surveyID,
	})
	if !env.Success {
		return "", fmt.Errorf("failed to presign attachment %s: %w", att.ID, env.Err())
	}
	var resp presignResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil || resp.ID == "" || resp.URL == "" {
		return "", fmt.Errorf("presign of %s returned no url: %w", att.ID, common.ErrorIncorrectPayload)
	}

	if err := netx.PutPresigned(ctx, u.client, resp.URL, f, st.Size(), ct); err != nil {
		return "", fmt.Errorf("failed to upload attachment %s: %w", att.ID, err)
	}
	return resp.ID, nil
}
