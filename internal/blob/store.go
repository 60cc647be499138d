// Package blob holds the attachment storage contract consumed by the
// ticket services and a local filesystem implementation.
package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store persists attachment blobs and hands back stable URLs.
type Store interface {
	// Save writes the content under a collision-free name and returns the
	// public URL.
	Save(ctx context.Context, content []byte, filename string) (string, error)
	// Delete removes the blob behind the URL. It reports false when the
	// blob was not found; failures here are treated as non-fatal by callers.
	Delete(ctx context.Context, url string) (bool, error)
}

// LocalStore writes blobs to a directory served under BaseURL.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates the directory if needed.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Save(ctx context.Context, content []byte, filename string) (string, error) {
	name := uuid.NewString() + "_" + filepath.Base(filename)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return s.baseURL + "/" + name, nil
}

func (s *LocalStore) Delete(ctx context.Context, url string) (bool, error) {
	name := filepath.Base(url)
	if name == "." || name == "/" || name == "" {
		return false, fmt.Errorf("malformed blob url %q", url)
	}
	path := filepath.Join(s.dir, name)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
