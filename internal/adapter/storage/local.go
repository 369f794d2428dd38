package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalSink writes artifacts under a base directory.
type LocalSink struct {
	baseDir string
}

// NewLocalSink creates baseDir if needed.
func NewLocalSink(baseDir string) (*LocalSink, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", baseDir, err)
	}
	return &LocalSink{baseDir: baseDir}, nil
}

// Put writes data to a temp file and renames it into place, so readers never
// see a partially written artifact.
func (l *LocalSink) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := cleanName(name)
	if err != nil {
		return err
	}
	dst := filepath.Join(l.baseDir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", name, err)
	}

	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

func (l *LocalSink) Location(name string) string {
	return filepath.Join(l.baseDir, filepath.FromSlash(name))
}

// Close is a no-op; it satisfies Sink.
func (l *LocalSink) Close() error {
	return nil
}
