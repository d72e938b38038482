package storage

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/ajitpratap0/oraexport/pkg/errors"
)

const (
	defaultUploadPartSize = 5 * 1024 * 1024 // 5MB minimum S3 part
	defaultMaxConcurrency = 10
)

// uploader is the part of manager.Uploader the store uses
type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Store uploads objects with the multipart upload manager
type S3Store struct {
	bucket   string
	uploader uploader
	logger   *zap.Logger
}

// NewS3Store creates a store for bucket using the default AWS credential chain
func NewS3Store(ctx context.Context, bucket string, cfg Config, logger *zap.Logger) (*S3Store, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.S3Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to load AWS config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	partSize := cfg.S3PartSize
	if partSize < defaultUploadPartSize {
		partSize = defaultUploadPartSize
	}
	concurrency := cfg.S3Concurrency
	if concurrency <= 0 {
		concurrency = defaultMaxConcurrency
	}
	up := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = partSize
		u.Concurrency = concurrency
	})

	return newS3Store(bucket, up, logger), nil
}

func newS3Store(bucket string, up uploader, logger *zap.Logger) *S3Store {
	return &S3Store{
		bucket:   bucket,
		uploader: up,
		logger:   logger.With(zap.String("component", "s3_store"), zap.String("bucket", bucket)),
	}
}

// Put implements Store
func (s *S3Store) Put(ctx context.Context, key string, body io.Reader, meta Metadata) error {
	input := &s3.PutObjectInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		Body:     body,
		Metadata: meta.Attributes,
	}
	if meta.ContentType != "" {
		input.ContentType = aws.String(meta.ContentType)
	}

	out, err := s.uploader.Upload(ctx, input)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to upload to S3").
			WithDetail("bucket", s.bucket).
			WithDetail("key", key)
	}

	s.logger.Info("object uploaded", zap.String("key", key), zap.String("location", out.Location))
	return nil
}

// Close implements Store
func (s *S3Store) Close() error {
	return nil
}
