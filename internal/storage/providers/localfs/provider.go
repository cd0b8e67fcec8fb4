// Package localfs implements storage.Adapter on a local directory tree.
// Keys map to files under the configured root; parent directories are
// created on write so thumbnail keys like "thumbs/THUMB_x.jpg" work
// without any setup.
package localfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/assetpipe/assetpipe/internal/storage"
)

// Provider stores assets as plain files under a root directory.
type Provider struct {
	root string
	name string
}

// New creates a local filesystem adapter rooted at root. The identifier
// name is recorded on ingested assets as their storage_adapter.
func New(root, name string) (*Provider, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if strings.TrimSpace(name) == "" {
		name = "local"
	}
	return &Provider{root: abs, name: name}, nil
}

// Has reports whether a key exists under the root.
func (p *Provider) Has(_ context.Context, key string) (bool, error) {
	dest, err := p.path(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(dest); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", key, err)
	}
	return true, nil
}

// Read returns the content stored under key.
func (p *Provider) Read(_ context.Context, key string) ([]byte, error) {
	dest, err := p.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Write stores data under key, creating parent directories as needed.
func (p *Provider) Write(_ context.Context, key string, data []byte) error {
	dest, err := p.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Delete removes the file at key. A missing file is not an error.
func (p *Provider) Delete(_ context.Context, key string) error {
	dest, err := p.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Rename moves oldKey to newKey, creating the destination's parents.
func (p *Provider) Rename(_ context.Context, oldKey, newKey string) error {
	src, err := p.path(oldKey)
	if err != nil {
		return err
	}
	dest, err := p.path(newKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	if err := os.Rename(src, dest); err != nil {
		return fmt.Errorf("rename %s to %s: %w", oldKey, newKey, err)
	}
	return nil
}

// RootPath returns the absolute root directory.
func (p *Provider) RootPath() string {
	return p.root
}

// Name returns the adapter identifier.
func (p *Provider) Name() string {
	return p.name
}

// path converts a storage key into an absolute file path, rejecting keys
// that would escape the root.
func (p *Provider) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.TrimSpace(clean) == "" {
		return "", fmt.Errorf("empty storage key")
	}
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("absolute key is forbidden: %s", key)
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal is forbidden: %s", key)
	}
	joined := filepath.Join(p.root, clean)
	if !strings.HasPrefix(joined, p.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes storage root: %s", key)
	}
	return joined, nil
}
