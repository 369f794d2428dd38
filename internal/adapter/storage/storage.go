// Package storage writes run artifacts to a local directory or a GCS bucket.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/couchcryptid/climate-trend-etl/internal/config"
)

// Sink stores named output artifacts. Names are slash-separated and relative.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) error
	// Location is a human-readable address of name, for logs and the manifest.
	Location(name string) string
	Close() error
}

// New returns a GCS sink when a bucket is configured and a local sink otherwise.
func New(ctx context.Context, cfg *config.Config) (Sink, error) {
	if cfg.GCSBucket != "" {
		s, err := NewGCSSink(ctx, cfg.GCSBucket, cfg.GCSPrefix)
		if err != nil {
			return nil, fmt.Errorf("initialize gcs sink: %w", err)
		}
		return s, nil
	}
	s, err := NewLocalSink(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("initialize local sink: %w", err)
	}
	return s, nil
}

// ContentType maps an artifact name to its MIME type.
func ContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return "text/csv"
	case ".geojson":
		return "application/geo+json"
	case ".json":
		return "application/json"
	case ".yaml", ".yml":
		return "application/yaml"
	case ".png":
		return "image/png"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

func cleanName(name string) (string, error) {
	clean := path.Clean("/" + name)[1:]
	if clean == "" || clean != strings.TrimPrefix(name, "./") {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	return clean, nil
}
