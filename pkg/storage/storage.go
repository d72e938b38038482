// Package storage puts finished export files on a local filesystem, Amazon S3
// or Google Cloud Storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/oraexport/pkg/errors"
)

// Scheme identifies a storage backend
type Scheme string

const (
	// SchemeFile is the local filesystem
	SchemeFile Scheme = "file"
	// SchemeS3 is Amazon S3 or an S3 compatible service
	SchemeS3 Scheme = "s3"
	// SchemeGCS is Google Cloud Storage
	SchemeGCS Scheme = "gs"
)

// Metadata travels with an uploaded object
type Metadata struct {
	ContentType string
	Attributes  map[string]string
}

// Store writes objects
type Store interface {
	// Put stores the whole of body under key
	Put(ctx context.Context, key string, body io.Reader, meta Metadata) error
	// Close releases clients held by the store
	Close() error
}

// Location is a parsed output URI
type Location struct {
	Scheme Scheme
	Bucket string
	// Key is the object key, or the file path for SchemeFile
	Key string
}

// String renders the location back as a URI
func (l Location) String() string {
	if l.Scheme == SchemeFile {
		return l.Key
	}
	return fmt.Sprintf("%s://%s/%s", l.Scheme, l.Bucket, l.Key)
}

// ParseURI splits an output destination. Plain paths and file:// URIs are
// local; s3://bucket/key and gs://bucket/key address object stores.
func ParseURI(uri string) (Location, error) {
	if uri == "" {
		return Location{}, errors.New(errors.ErrorTypeValidation, "output location is empty")
	}
	if !strings.Contains(uri, "://") {
		return Location{Scheme: SchemeFile, Key: uri}, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return Location{}, errors.Wrap(err, errors.ErrorTypeValidation, "invalid output URI")
	}

	switch Scheme(u.Scheme) {
	case SchemeFile:
		return Location{Scheme: SchemeFile, Key: u.Path}, nil
	case SchemeS3, SchemeGCS:
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Location{}, errors.Newf(errors.ErrorTypeValidation, "output URI %q needs a bucket and a key", uri)
		}
		return Location{Scheme: Scheme(u.Scheme), Bucket: u.Host, Key: key}, nil
	default:
		return Location{}, errors.Newf(errors.ErrorTypeValidation, "unsupported output scheme %q", u.Scheme)
	}
}

// Config holds backend settings
type Config struct {
	S3Region      string `mapstructure:"s3_region" yaml:"s3_region"`
	S3Endpoint    string `mapstructure:"s3_endpoint" yaml:"s3_endpoint"`
	S3PartSize    int64  `mapstructure:"s3_part_size" yaml:"s3_part_size"`
	S3Concurrency int    `mapstructure:"s3_concurrency" yaml:"s3_concurrency"`

	GCSCredentialsFile string `mapstructure:"gcs_credentials_file" yaml:"gcs_credentials_file"`
	GCSEndpoint        string `mapstructure:"gcs_endpoint" yaml:"gcs_endpoint"`
}

// Open creates the store for loc
func Open(ctx context.Context, loc Location, cfg Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch loc.Scheme {
	case SchemeFile:
		return NewLocalStore(logger), nil
	case SchemeS3:
		s, err := NewS3Store(ctx, loc.Bucket, cfg, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case SchemeGCS:
		s, err := NewGCSStore(ctx, loc.Bucket, cfg, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "no store for scheme %q", loc.Scheme)
	}
}
