package storage

import (
	"context"
	"errors"
)

// Well-known keys of the persisted layout.
const (
	KeySearchHistory = "searchHistory"
	KeySearchProfile = "searchProfile"
)

// DefaultQuotaBytes mirrors the usual per-origin browser storage quota.
const DefaultQuotaBytes int64 = 5 << 20

var (
	// ErrStorageUnavailable means the medium could not be read or written.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrQuotaExceeded means a write would exceed the storage capacity.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrCorruptState means a stored value could not be decoded or validated.
	ErrCorruptState = errors.New("corrupt stored state")
)

// KV is a synchronous key to string store over a persistent medium.
type KV interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set replaces the value for key. It fails with ErrQuotaExceeded when
	// the write would exhaust the capacity.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Removing an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Stats holds aggregate usage of a KV backend.
type Stats struct {
	Keys       int64
	UsedBytes  int64
	QuotaBytes int64
	KeySizes   []KeySize
}

// KeySize pairs a key with the bytes it occupies (key plus value).
type KeySize struct {
	Key   string
	Bytes int64
}

// entrySize is the accounting unit for the quota.
func entrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}
