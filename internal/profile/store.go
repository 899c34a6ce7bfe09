// Package profile maintains the implicit keyword-affinity profile built from
// result clicks.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/runnerr0/recall/internal/model"
	"github.com/runnerr0/recall/internal/storage"
)

const (
	// DefaultMaxKeywords is the number of ranked keywords kept.
	DefaultMaxKeywords = 10
	// DefaultKeywordsPerClick is how many of a clicked result's keywords
	// feed the profile.
	DefaultKeywordsPerClick = 5
)

// Store owns the persisted profile.
type Store struct {
	kv               storage.KV
	key              string
	maxKeywords      int
	keywordsPerClick int
	now              func() time.Time
	logger           *slog.Logger
}

// Option customises a Store.
type Option func(*Store)

// WithMaxKeywords overrides DefaultMaxKeywords. Non-positive values are ignored.
func WithMaxKeywords(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxKeywords = n
		}
	}
}

// WithKeywordsPerClick overrides DefaultKeywordsPerClick. Non-positive values are ignored.
func WithKeywordsPerClick(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.keywordsPerClick = n
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.logger = l } }

// New creates a Store persisting under storage.KeySearchProfile.
func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:               kv,
		key:              storage.KeySearchProfile,
		maxKeywords:      DefaultMaxKeywords,
		keywordsPerClick: DefaultKeywordsPerClick,
		now:              time.Now,
		logger:           slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}

// Load returns the stored profile. A missing or unusable profile yields an
// empty one stamped with the current time.
func (s *Store) Load(ctx context.Context) model.Profile {
	p, err := s.read(ctx)
	if err != nil {
		level := slog.LevelError
		if errors.Is(err, storage.ErrCorruptState) {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "search profile unreadable, using empty profile", "key", s.key, "err", err)
		return s.empty()
	}
	return p
}

func (s *Store) empty() model.Profile {
	return model.Profile{Keywords: []model.KeywordAffinity{}, LastUpdated: s.nowMillis()}
}

func (s *Store) read(ctx context.Context) (model.Profile, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return model.Profile{}, err
	}
	if !ok {
		return s.empty(), nil
	}

	var p model.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return model.Profile{}, fmt.Errorf("decode %s: %w: %w", s.key, storage.ErrCorruptState, err)
	}
	if err := p.Validate(); err != nil {
		return model.Profile{}, fmt.Errorf("decode %s: %w: %w", s.key, storage.ErrCorruptState, err)
	}
	return p, nil
}

// RecordClick folds the leading keywords of a clicked result into the
// profile and persists it. Results without keyword data are ignored.
//
// An existing keyword gains one point per click. Its lastUrl and lastUpdated
// only move when the new count equals the frequency the result reports for
// that keyword; this quirk is intentional and covered by tests.
func (s *Store) RecordClick(ctx context.Context, entry model.ResultEntry) (model.Profile, error) {
	if entry.KeywordsWithFrequency == nil {
		return s.Load(ctx), nil
	}

	p := s.Load(ctx)
	now := s.nowMillis()

	top := entry.KeywordsWithFrequency
	if len(top) > s.keywordsPerClick {
		top = top[:s.keywordsPerClick]
	}

	keywords := make([]model.KeywordAffinity, 0, len(p.Keywords)+len(top))
	keywords = append(keywords, p.Keywords...)
	for _, kw := range top {
		i := indexOf(keywords, kw.Keyword)
		if i < 0 {
			keywords = append(keywords, model.KeywordAffinity{
				Keyword:     kw.Keyword,
				Frequency:   1,
				LastURL:     entry.URL,
				LastUpdated: now,
			})
			continue
		}
		keywords[i].Frequency++
		if keywords[i].Frequency == kw.Frequency {
			keywords[i].LastURL = entry.URL
			keywords[i].LastUpdated = now
		}
	}

	Rank(keywords)
	if len(keywords) > s.maxKeywords {
		keywords = keywords[:s.maxKeywords]
	}

	updated := model.Profile{Keywords: keywords, LastUpdated: now}
	if err := s.write(ctx, updated); err != nil {
		if errors.Is(err, storage.ErrQuotaExceeded) {
			return p, fmt.Errorf("record click on %s: %w", entry.URL, err)
		}
		s.logger.Error("search profile write dropped", "url", entry.URL, "err", err)
		return p, nil
	}

	s.logger.Debug("profile updated from click", "url", entry.URL, "keywords", len(top))
	return updated, nil
}

// Rank orders keywords by frequency, then by most recent update. Equal
// entries keep their relative order.
func Rank(keywords []model.KeywordAffinity) {
	sort.SliceStable(keywords, func(i, j int) bool {
		if keywords[i].Frequency != keywords[j].Frequency {
			return keywords[i].Frequency > keywords[j].Frequency
		}
		return keywords[i].LastUpdated > keywords[j].LastUpdated
	})
}

func indexOf(keywords []model.KeywordAffinity, keyword string) int {
	for i, kw := range keywords {
		if kw.Keyword == keyword {
			return i
		}
	}
	return -1
}

func (s *Store) write(ctx context.Context, p model.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key, err)
	}
	return s.kv.Set(ctx, s.key, string(data))
}

// Clear removes the stored profile.
func (s *Store) Clear(ctx context.Context) {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		s.logger.Error("search profile not cleared", "key", s.key, "err", err)
	}
}
