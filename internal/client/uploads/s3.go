package uploads

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/fieldsync/fieldsync/internal/client/models"
	"github.com/fieldsync/fieldsync/internal/common"
	"github.com/google/uuid"
)

// S3Config locates the bucket. Endpoint and static keys are optional; when
// the keys are empty the default AWS credential chain is used.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	Prefix    string
	AccessKey string
	SecretKey string
}

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var loadDefaultAWSConfig = config.LoadDefaultConfig

// S3Uploader writes attachments straight to object storage. The object key
// becomes the attachment's remote id.
type S3Uploader struct {
	api    putObjectAPI
	bucket string
	prefix string
	now    func() time.Time
}

func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is not configured")
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// MinIO and most self-hosted stores only do path-style addressing
			o.UsePathStyle = true
		}
	})
	return newS3Uploader(client, cfg), nil
}

func newS3Uploader(api putObjectAPI, cfg S3Config) *S3Uploader {
	return &S3Uploader{api: api, bucket: cfg.Bucket, prefix: strings.Trim(cfg.Prefix, "/"), now: time.Now}
}

func (u *S3Uploader) Upload(ctx context.Context, att models.Attachment, surveyID string) (string, error) {
	data, err := os.ReadFile(att.LocalPath)
	if err != nil {
		return "", fmt.Errorf("failed to read attachment %s: %w", att.ID, err)
	}

	key := u.objectKey(att, surveyID)
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	_, err = u.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType(att, head)),
		Metadata: map[string]string{
			"survey-id":     surveyID,
			"attachment-id": att.ID,
			"file-name":     fileName(att),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w: %v", key, common.ErrUnavailable, err)
	}
	return key, nil
}

// objectKey is [prefix/]surveys/<survey>/<yyyy>/<mm>/<dd>/<uuid><ext>.
func (u *S3Uploader) objectKey(att models.Attachment, surveyID string) string {
	if surveyID == "" {
		surveyID = "unassigned"
	}
	day := u.now().UTC().Format("2006/01/02")
	name := uuid.NewString() + strings.ToLower(filepath.Ext(fileName(att)))
	return path.Join(u.prefix, "surveys", surveyID, day, name)
}
