package uploads

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/fieldsync/fieldsync/internal/client/models"
	"github.com/fieldsync/fieldsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

type fakeSender struct {
	env      models.Envelope
	path     string
	fileName string
	surveyID string
	body     string
}

func (f *fakeSender) Upload(ctx context.Context, path string, file io.Reader, fileName, surveyID string) models.Envelope {
	b, _ := io.ReadAll(file)
	f.path, f.fileName, f.surveyID, f.body = path, fileName, surveyID, string(b)
	return f.env
}

func TestGatewayUploader_Success(t *testing.T) {
	p := writeFile(t, "IMG_001.jpg", "pixels")
	s := &fakeSender{env: models.OK(json.RawMessage(`{"id":"f-1"}`), 201)}
	u := NewGatewayUploader(s)

	id, err := u.Upload(context.Background(), models.Attachment{ID: "a1", LocalPath: p}, "s-1")

	require.NoError(t, err)
	assert.Equal(t, "f-1", id)
	assert.Equal(t, UploadPath, s.path)
	assert.Equal(t, "IMG_001.jpg", s.fileName)
	assert.Equal(t, "s-1", s.surveyID)
	assert.Equal(t, "pixels", s.body)
}

func TestGatewayUploader_Failures(t *testing.T) {
	p := writeFile(t, "x.png", "x")

	t.Run("transport", func(t *testing.T) {
		u := NewGatewayUploader(&fakeSender{env: models.Fail(models.KindTransport, 0, "network error")})
		_, err := u.Upload(context.Background(), models.Attachment{ID: "a1", LocalPath: p}, "s")
		assert.ErrorIs(t, err, common.ErrUnavailable)
	})

	t.Run("no id in response", func(t *testing.T) {
		u := NewGatewayUploader(&fakeSender{env: models.OK(json.RawMessage(`{}`), 200)})
		_, err := u.Upload(context.Background(), models.Attachment{ID: "a1", LocalPath: p}, "s")
		assert.ErrorIs(t, err, common.ErrorIncorrectPayload)
	})

	t.Run("missing file", func(t *testing.T) {
		s := &fakeSender{}
		u := NewGatewayUploader(s)
		_, err := u.Upload(context.Background(), models.Attachment{ID: "a1", LocalPath: filepath.Join(t.TempDir(), "nope")}, "s")
		assert.Error(t, err)
		assert.Empty(t, s.path)
	})
}

type fakePutter struct {
	in   *s3.PutObjectInput
	body string
	err  error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Uploader_Upload(t *testing.T) {
	p := writeFile(t, "Roof.JPG", "\xff\xd8\xff\xe0jpeg")
	api := &fakePutter{}
	u := newS3Uploader(api, S3Config{Bucket: "field", Prefix: "/tenant-a/"})
	u.now = func() time.Time { return time.Date(2026, 5, 4, 23, 0, 0, 0, time.UTC) }

	key, err := u.Upload(context.Background(), models.Attachment{ID: "a1", LocalPath: p}, "s-9")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "tenant-a/surveys/s-9/2026/05/04/"), key)
	assert.True(t, strings.HasSuffix(key, ".jpg"), key)
	assert.Equal(t, "field", aws.ToString(api.in.Bucket))
	assert.Equal(t, key, aws.ToString(api.in.Key))
	assert.Equal(t, "image/jpeg", aws.ToString(api.in.ContentType))
	assert.Equal(t, int64(len("\xff\xd8\xff\xe0jpeg")), aws.ToInt64(api.in.ContentLength))
	assert.Equal(t, "s-9", api.in.Metadata["survey-id"])
	assert.Equal(t, "\xff\xd8\xff\xe0jpeg", api.body)
}

func TestS3Uploader_ExplicitContentTypeAndError(t *testing.T) {
	p := writeFile(t, "note", "text")
	api := &fakePutter{err: errors.New("connection reset")}
	u := newS3Uploader(api, S3Config{Bucket: "b"})

	_, err := u.Upload(context.Background(), models.Attachment{ID: "a2", LocalPath: p, ContentType: "text/markdown"}, "")

	assert.ErrorIs(t, err, common.ErrUnavailable)
	assert.Equal(t, "text/markdown", aws.ToString(api.in.ContentType))
	assert.True(t, strings.HasPrefix(aws.ToString(api.in.Key), "surveys/unassigned/"))
}

func TestNewS3Uploader(t *testing.T) {
	_, err := NewS3Uploader(context.Background(), S3Config{})
	assert.Error(t, err)

	u, err := NewS3Uploader(context.Background(), S3Config{
		Bucket:    "b",
		Region:    "us-east-1",
		Endpoint:  "http://localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
	})
	require.NoError(t, err)
	assert.NotNil(t, u.api)
}
