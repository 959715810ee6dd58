// Package netx holds small HTTP helpers shared by the upload backends.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/fieldsync/fieldsync/internal/common"
)

// maxErrorBody caps how much of a failed response is quoted in the error.
const maxErrorBody = 512

// PutPresigned uploads body to a presigned object-storage URL. size may be
// -1 when unknown. Transport failures wrap common.ErrUnavailable; a non-2xx
// answer wraps common.ErrServer.
func PutPresigned(ctx context.Context, client *http.Client, url string, body io.Reader, size int64, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	if size >= 0 {
		req.ContentLength = size
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: upload: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: upload failed: %s; body: %s", common.ErrServer, resp.Status, string(b))
	}
	return nil
}
