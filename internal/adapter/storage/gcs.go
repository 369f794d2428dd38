package storage

import (
	"context"
	"fmt"
	"path"

	"cloud.google.com/go/storage"
)

// GCSSink uploads artifacts to a Cloud Storage bucket under an optional prefix.
type GCSSink struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSSink opens a client with application default credentials.
func NewGCSSink(ctx context.Context, bucket, prefix string) (*GCSSink, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSSink{client: client, bucket: bucket, prefix: prefix}, nil
}

func (g *GCSSink) objectName(name string) string {
	if g.prefix == "" {
		return name
	}
	return path.Join(g.prefix, name)
}

// Put uploads data as one object. The upload is committed only when the
// writer closes cleanly.
func (g *GCSSink) Put(ctx context.Context, name string, data []byte) error {
	clean, err := cleanName(name)
	if err != nil {
		return err
	}
	w := g.client.Bucket(g.bucket).Object(g.objectName(clean)).NewWriter(ctx)
	w.ContentType = ContentType(clean)
	w.Metadata = map[string]string{"artifact": clean}

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gcs object %s: %w", g.Location(clean), err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize gcs object %s: %w", g.Location(clean), err)
	}
	return nil
}

func (g *GCSSink) Location(name string) string {
	return "gs://" + g.bucket + "/" + g.objectName(name)
}

func (g *GCSSink) Close() error {
	return g.client.Close()
}
