// Package store implements the raw object storage layer beneath the
// object database.
//
// The Store interface is a key-value abstraction over framed object
// bytes keyed by their hex content hash, plus a small ref namespace
// mapping names to hashes. It knows nothing about object kinds; decoding
// happens a layer up.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an object or ref is absent.
var ErrNotFound = errors.New("store: not found")

// Store handles raw object and ref storage.
type Store interface {
	// Get retrieves an object's framed bytes by hex hash.
	Get(ctx context.Context, hash string) ([]byte, error)

	// Put stores framed object bytes and returns their hex hash.
	Put(ctx context.Context, data []byte) (hash string, err error)

	// Has checks if an object exists.
	Has(ctx context.Context, hash string) (bool, error)

	// GetMulti retrieves multiple objects in parallel.
	GetMulti(ctx context.Context, hashes []string) (map[string][]byte, error)

	// PutMulti stores multiple objects in parallel.
	PutMulti(ctx context.Context, objects map[string][]byte) error

	// GetRef resolves a ref name (e.g. "heads/main") to a hex hash.
	GetRef(name string) (string, error)

	// PutRef stores a ref.
	PutRef(name, hash string) error

	// ListRefs returns all refs as a name → hash map.
	ListRefs() (map[string]string, error)

	// Evict removes an object from the in-memory cache (not from disk).
	Evict(hash string)

	// Close releases resources held by the store.
	Close() error
}
