// Package storage holds the blob-store adapters behind the service
// layer's ByteStorage collaborator. This engine owns metadata only;
// content lives wherever the adapter points.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DiskStorage deletes file content from a local directory, keyed by
// the opaque storage key recorded at registration time.
type DiskStorage struct {
	root string
}

// NewDiskStorage creates a disk-backed byte store rooted at dir
func NewDiskStorage(dir string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &DiskStorage{root: dir}, nil
}

// DeleteBytes removes the content blob for a storage key. A missing
// blob is not an error: metadata purges must stay idempotent even when
// content was never uploaded or is already gone.
func (s *DiskStorage) DeleteBytes(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return nil
	}

	path, err := s.resolve(storageKey)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("delete blob %s: %w", storageKey, err)
	}
	return nil
}

// resolve maps a storage key to a path under the root, rejecting keys
// that would escape it
func (s *DiskStorage) resolve(storageKey string) (string, error) {
	path := filepath.Join(s.root, filepath.FromSlash(storageKey))
	if path != s.root && !strings.HasPrefix(path, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage key %q", storageKey)
	}
	return path, nil
}
