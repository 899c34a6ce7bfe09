package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryKV is a volatile KV holding values in a process local map. It
// enforces the same quota accounting as SQLiteKV, which makes it a drop-in
// fake for tests and for throwaway sessions.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
	quota  int64
}

// NewMemoryKV constructs an empty MemoryKV. A non-positive quota selects
// DefaultQuotaBytes.
func NewMemoryKV(quotaBytes int64) *MemoryKV {
	if quotaBytes <= 0 {
		quotaBytes = DefaultQuotaBytes
	}
	return &MemoryKV{values: make(map[string]string), quota: quotaBytes}
}

// Get returns the value for key.
func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set replaces the value for key, failing with ErrQuotaExceeded when the new
// total would exceed the quota.
func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var used int64
	for k, v := range m.values {
		if k != key {
			used += entrySize(k, v)
		}
	}
	size := entrySize(key, value)
	if used+size > m.quota {
		return fmt.Errorf("set %s (%d bytes, %d of %d in use): %w", key, size, used, m.quota, ErrQuotaExceeded)
	}
	m.values[key] = value
	return nil
}

// Delete removes key.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Stats reports usage in the same shape as SQLiteKV.Stats.
func (m *MemoryKV) Stats(_ context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Stats{Keys: int64(len(m.values)), QuotaBytes: m.quota}
	for k, v := range m.values {
		size := entrySize(k, v)
		stats.UsedBytes += size
		stats.KeySizes = append(stats.KeySizes, KeySize{Key: k, Bytes: size})
	}
	sort.Slice(stats.KeySizes, func(i, j int) bool {
		if stats.KeySizes[i].Bytes != stats.KeySizes[j].Bytes {
			return stats.KeySizes[i].Bytes > stats.KeySizes[j].Bytes
		}
		return stats.KeySizes[i].Key < stats.KeySizes[j].Key
	})
	return stats, nil
}
