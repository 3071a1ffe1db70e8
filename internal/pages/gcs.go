package pages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// ParseGCSURI splits "gs://bucket/some/path" into bucket and object path.
// The object path may be empty when the URI names only a bucket.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no bucket): %s", uri)
	}
	if len(parts) == 1 {
		return parts[0], "", nil
	}
	return parts[0], strings.Trim(parts[1], "/"), nil
}

// GCSSource serves snapshots stored under a prefix in a Cloud Storage bucket.
// Object names follow SnapshotName.
type GCSSource struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSSource opens a source for snapshots under prefixURI, e.g.
// "gs://my-bucket/snapshots/2024-02-18". Application Default Credentials are used.
func NewGCSSource(ctx context.Context, prefixURI string) (*GCSSource, error) {
	bucket, prefix, err := ParseGCSURI(prefixURI)
	if err != nil {
		return nil, err
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSSource: creating storage client: %w", err)
	}
	return &GCSSource{client: client, bucket: bucket, prefix: prefix}, nil
}

// Close releases the storage client.
func (g *GCSSource) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *GCSSource) Fetch(ctx context.Context, pageURL string) (string, error) {
	name, err := SnapshotName(pageURL)
	if err != nil {
		return "", err
	}
	object := path.Join(g.prefix, name)

	r, err := g.client.Bucket(g.bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return "", fmt.Errorf("GCSSource: no snapshot gs://%s/%s", g.bucket, object)
		}
		return "", fmt.Errorf("GCSSource: open gs://%s/%s: %w", g.bucket, object, err)
	}
	defer r.Close()

	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("GCSSource: read gs://%s/%s: %w", g.bucket, object, err)
	}
	return string(b), nil
}

// UploadSnapshot copies a local snapshot file into the bucket under the name
// SnapshotName gives pageURL, below prefixURI. It returns the object's URI.
func UploadSnapshot(ctx context.Context, prefixURI, pageURL, filePath string) (string, error) {
	bucket, prefix, err := ParseGCSURI(prefixURI)
	if err != nil {
		return "", err
	}
	name, err := SnapshotName(pageURL)
	if err != nil {
		return "", err
	}
	object := path.Join(prefix, name)

	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open file %q: %w", filePath, err)
	}
	defer f.Close()

	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = "text/html; charset=utf-8"

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("copy file to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", bucket, object), nil
}
