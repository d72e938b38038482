package storage

import (
	"context"
	"io"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/oraexport/pkg/errors"
)

// objectWriterFunc opens a writer for one object
type objectWriterFunc func(ctx context.Context, key string, meta Metadata) io.WriteCloser

// GCSStore writes objects to a Cloud Storage bucket
type GCSStore struct {
	bucket    string
	client    *gcs.Client
	newWriter objectWriterFunc
	logger    *zap.Logger
}

// NewGCSStore creates a store for bucket. Without a credentials file the
// application default credentials are used.
func NewGCSStore(ctx context.Context, bucket string, cfg Config, logger *zap.Logger) (*GCSStore, error) {
	var opts []option.ClientOption
	if cfg.GCSCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCSCredentialsFile))
	}
	if cfg.GCSEndpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.GCSEndpoint), option.WithoutAuthentication())
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create GCS client")
	}

	handle := client.Bucket(bucket)
	s := newGCSStore(bucket, func(ctx context.Context, key string, meta Metadata) io.WriteCloser {
		w := handle.Object(key).NewWriter(ctx)
		w.ContentType = meta.ContentType
		w.Metadata = meta.Attributes
		return w
	}, logger)
	s.client = client
	return s, nil
}

func newGCSStore(bucket string, fn objectWriterFunc, logger *zap.Logger) *GCSStore {
	return &GCSStore{
		bucket:    bucket,
		newWriter: fn,
		logger:    logger.With(zap.String("component", "gcs_store"), zap.String("bucket", bucket)),
	}
}

// Put implements Store. The object only becomes visible once the writer
// closes cleanly.
func (s *GCSStore) Put(ctx context.Context, key string, body io.Reader, meta Metadata) error {
	// cancelling ctx aborts the upload
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.newWriter(ctx, key, meta)
	n, err := io.Copy(w, body)
	if err != nil {
		cancel()
		_ = w.Close()
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to write to GCS").
			WithDetail("bucket", s.bucket).
			WithDetail("key", key)
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to finalize GCS object").
			WithDetail("bucket", s.bucket).
			WithDetail("key", key)
	}

	s.logger.Info("object uploaded", zap.String("key", key), zap.Int64("bytes", n))
	return nil
}

// Close implements Store
func (s *GCSStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
