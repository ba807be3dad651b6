// Package archive keeps copies of processed statement files in Google Cloud
// Storage.
package archive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// UploadTimeout bounds a single upload.
const UploadTimeout = 2 * time.Minute

// Archiver stores a local file under key.
type Archiver interface {
	Archive(ctx context.Context, localPath, key string) error
}

// ObjectOpener returns a writer for a new object. The object is committed when
// the writer is closed, and abandoned when ctx is canceled first.
type ObjectOpener func(ctx context.Context, object string) io.WriteCloser

// GCS uploads statements to a bucket.
type GCS struct {
	bucket string
	open   ObjectOpener
	close  func() error
	logger *slog.Logger
}

// NewGCS creates a storage client with Application Default Credentials.
func NewGCS(ctx context.Context, bucket string, logger *slog.Logger, opts ...option.ClientOption) (*GCS, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	bkt := client.Bucket(bucket)
	g := NewWithOpener(bucket, func(ctx context.Context, object string) io.WriteCloser {
		w := bkt.Object(object).NewWriter(ctx)
		w.ContentType = contentType(object)
		return w
	}, logger)
	g.close = client.Close
	return g, nil
}

// NewWithOpener returns an archiver over an existing opener.
func NewWithOpener(bucket string, open ObjectOpener, logger *slog.Logger) *GCS {
	if logger == nil {
		logger = slog.Default()
	}
	return &GCS{bucket: bucket, open: open, logger: logger}
}

// Archive uploads localPath to key.
func (g *GCS) Archive(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open file %q: %w", localPath, err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	w := g.open(ctx, key)
	n, err := io.Copy(w, f)
	if err != nil {
		cancel()
		_ = w.Close()
		return fmt.Errorf("copying %s to gs://%s/%s: %w", localPath, g.bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing gs://%s/%s: %w", g.bucket, key, err)
	}

	g.logger.Info("archived statement", "file", localPath, "object", "gs://"+g.bucket+"/"+key, "bytes", n)
	return nil
}

// Close releases the storage client.
func (g *GCS) Close() error {
	if g.close == nil {
		return nil
	}
	return g.close()
}

// Key returns the object name for a statement: institution/YYYY/MM/file.
func Key(institution, localPath string, at time.Time) string {
	return path.Join(institution, at.Format("2006/01"), filepath.Base(localPath))
}

func contentType(object string) string {
	ext := strings.ToLower(path.Ext(object))
	if ext == ".txt" {
		return "text/plain; charset=utf-8"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
