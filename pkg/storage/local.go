package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ajitpratap0/oraexport/pkg/errors"
)

// LocalStore writes files atomically: data goes to a temporary file in the
// target directory which is renamed into place once complete.
type LocalStore struct {
	logger *zap.Logger
}

// NewLocalStore creates a local filesystem store
func NewLocalStore(logger *zap.Logger) *LocalStore {
	return &LocalStore{logger: logger.With(zap.String("component", "local_store"))}
}

// Put implements Store. Metadata is ignored.
func (s *LocalStore) Put(ctx context.Context, path string, body io.Reader, _ Metadata) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create output directory").
			WithDetail("dir", dir)
	}

	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return errors.Newf(errors.ErrorTypeFile, "output path %s is a directory", path)
		}
		s.logger.Warn("output file exists and will be overwritten", zap.String("path", path))
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create temporary file")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	n, err := io.Copy(tmp, &contextReader{ctx: ctx, r: body})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write output file").
			WithDetail("path", path)
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to sync output file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close output file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to move output file into place")
	}
	committed = true

	s.logger.Info("output written", zap.String("path", path), zap.Int64("bytes", n))
	return nil
}

// Close implements Store
func (s *LocalStore) Close() error {
	return nil
}

// contextReader stops a copy once ctx is done
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
