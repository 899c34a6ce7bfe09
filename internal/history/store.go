// Package history keeps the bounded, newest-first log of past searches.
//
// The log lives under a single key of a storage.KV and is replaced as a whole
// on every write. Reads never fail: a missing, unreadable or corrupt log is
// reported through the logger and treated as empty, and the next successful
// save overwrites whatever was there.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/runnerr0/recall/internal/model"
	"github.com/runnerr0/recall/internal/storage"
)

const (
	// DefaultCapacity is the maximum number of records kept.
	DefaultCapacity = 50
	// DefaultEvictRatio is the share of the stored log dropped when the
	// medium runs out of quota.
	DefaultEvictRatio = 0.5

	// maxAttempts bounds Save to the first write plus one retry after eviction.
	maxAttempts = 2

	// TimestampLayout matches the ISO-8601 form produced by browsers.
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// ErrInvalidInput marks a save request that was dropped because the query is
// empty or the results are not a sequence.
var ErrInvalidInput = errors.New("invalid search input")

// Store owns the persisted search history.
type Store struct {
	kv         storage.KV
	key        string
	capacity   int
	evictRatio float64
	now        func() time.Time
	logger     *slog.Logger
}

// Option customises a Store.
type Option func(*Store)

// WithCapacity overrides DefaultCapacity. Non-positive values are ignored.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithEvictRatio overrides DefaultEvictRatio. Values outside (0, 1] are ignored.
func WithEvictRatio(r float64) Option {
	return func(s *Store) {
		if r > 0 && r <= 1 {
			s.evictRatio = r
		}
	}
}

// WithClock sets the time source used for record timestamps.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.logger = l } }

// New creates a Store persisting under storage.KeySearchHistory.
func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:         kv,
		key:        storage.KeySearchHistory,
		capacity:   DefaultCapacity,
		evictRatio: DefaultEvictRatio,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load returns the stored log, or an empty log when nothing usable is stored.
func (s *Store) Load(ctx context.Context) model.HistoryLog {
	log, err := s.read(ctx)
	if err != nil {
		level := slog.LevelError
		if errors.Is(err, storage.ErrCorruptState) {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "search history unreadable, using empty log", "key", s.key, "err", err)
		return model.HistoryLog{}
	}
	return log
}

func (s *Store) read(ctx context.Context) (model.HistoryLog, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return model.HistoryLog{}, nil
	}

	var log model.HistoryLog
	if err := json.Unmarshal([]byte(raw), &log); err != nil {
		return nil, fmt.Errorf("decode %s: %w: %w", s.key, storage.ErrCorruptState, err)
	}
	if log == nil {
		return nil, fmt.Errorf("decode %s: %w: not an array", s.key, storage.ErrCorruptState)
	}
	for i, rec := range log {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("decode %s[%d]: %w: %w", s.key, i, storage.ErrCorruptState, err)
		}
	}
	return log, nil
}

// Save prepends a record for query and results and returns the updated log.
//
// Invalid input is dropped without an error. When the medium reports
// ErrQuotaExceeded the oldest part of the stored log is evicted and the save
// is retried once; if that retry fails too the quota error is returned.
// Other write failures are logged and dropped.
func (s *Store) Save(ctx context.Context, query string, results []model.ResultEntry) (model.HistoryLog, error) {
	if query == "" || results == nil {
		s.logger.Debug("search not saved to history", "query", query, "err", ErrInvalidInput)
		return s.Load(ctx), nil
	}

	rec := model.SearchRecord{
		ID:        uuid.NewString(),
		Query:     query,
		Results:   results,
		Timestamp: s.now().UTC().Format(TimestampLayout),
	}

	for attempt := 1; ; attempt++ {
		log, err := s.prepend(ctx, rec)
		if err == nil {
			return log, nil
		}
		if !errors.Is(err, storage.ErrQuotaExceeded) {
			s.logger.Error("search history write dropped", "query", query, "err", err)
			return s.Load(ctx), nil
		}
		if attempt == maxAttempts {
			return nil, fmt.Errorf("save %q after eviction: %w", query, err)
		}

		s.logger.Warn("search history over quota, evicting oldest entries", "query", query, "err", err)
		if err := s.evict(ctx); err != nil {
			if errors.Is(err, storage.ErrQuotaExceeded) {
				return nil, fmt.Errorf("save %q: %w", query, err)
			}
			s.logger.Error("search history eviction dropped", "err", err)
			return s.Load(ctx), nil
		}
	}
}

// prepend writes rec in front of the stored log, truncated to capacity.
func (s *Store) prepend(ctx context.Context, rec model.SearchRecord) (model.HistoryLog, error) {
	stored := s.Load(ctx)

	log := make(model.HistoryLog, 0, len(stored)+1)
	log = append(log, rec)
	log = append(log, stored...)
	if len(log) > s.capacity {
		log = log[:s.capacity]
	}

	if err := s.write(ctx, log); err != nil {
		return nil, err
	}
	return log, nil
}

// evict drops the oldest max(1, floor(ratio*n)) records of the stored log and
// persists the remainder.
func (s *Store) evict(ctx context.Context) error {
	stored := s.Load(ctx)

	remove := EvictCount(len(stored), s.evictRatio)
	shrunk := stored[:len(stored)-remove]

	s.logger.Info("evicting search history", "stored", len(stored), "removed", remove)
	return s.write(ctx, shrunk)
}

// EvictCount returns how many of n records an eviction removes.
func EvictCount(n int, ratio float64) int {
	remove := int(math.Floor(float64(n) * ratio))
	if remove < 1 {
		remove = 1
	}
	if remove > n {
		remove = n
	}
	return remove
}

func (s *Store) write(ctx context.Context, log model.HistoryLog) error {
	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key, err)
	}
	return s.kv.Set(ctx, s.key, string(data))
}

// Clear removes the stored log. Calling it on an empty history is a no-op.
func (s *Store) Clear(ctx context.Context) {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		s.logger.Error("search history not cleared", "key", s.key, "err", err)
	}
}
