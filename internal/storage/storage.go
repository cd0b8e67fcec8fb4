// Package storage abstracts the key-addressable blob store that holds
// primary assets and their thumbnails.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested key does not exist in the adapter.
var ErrNotFound = errors.New("storage key not found")

// Adapter is a key-addressable blob store. Keys are path-like strings
// relative to the adapter root. All errors returned by an adapter are
// storage faults and must propagate to the caller verbatim.
type Adapter interface {
	// Has reports whether a key exists.
	Has(ctx context.Context, key string) (bool, error)
	// Read returns the full content stored under key.
	Read(ctx context.Context, key string) ([]byte, error)
	// Write stores data under key, replacing any existing content.
	Write(ctx context.Context, key string, data []byte) error
	// Delete removes the object at key. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error
	// Rename moves the object at oldKey to newKey.
	Rename(ctx context.Context, oldKey, newKey string) error
	// RootPath returns the adapter's root location, for callers that
	// need to address stored objects outside the adapter.
	RootPath() string
	// Name identifies the adapter; recorded on every ingested asset.
	Name() string
}
