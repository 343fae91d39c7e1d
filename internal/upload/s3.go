package upload

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"application-intake-go/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type objectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Replicator mirrors stored uploads into a bucket under a key prefix.
type S3Replicator struct {
	client objectStore
	bucket string
	prefix string
}

// NewS3ReplicatorFromConfig returns nil when UPLOAD_S3_BUCKET is unset.
func NewS3ReplicatorFromConfig(ctx context.Context, cfg config.Config) (*S3Replicator, error) {
	bucket := strings.TrimSpace(cfg.UploadS3Bucket)
	if bucket == "" {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return &S3Replicator{client: s3.NewFromConfig(awsCfg), bucket: bucket, prefix: cfg.UploadS3Prefix}, nil
}

func (r *S3Replicator) Key(name string) string {
	prefix := strings.TrimLeft(strings.TrimSpace(r.prefix), "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + name
}

func (r *S3Replicator) Replicate(ctx context.Context, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.Key(name)),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to s3: %w", name, err)
	}
	return nil
}

func (r *S3Replicator) Remove(ctx context.Context, name string) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.Key(name)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s from s3: %w", name, err)
	}
	return nil
}
