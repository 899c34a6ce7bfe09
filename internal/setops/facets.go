package setops

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/runnerr0/recall/internal/model"
)

// Date ranges accepted by Facets.DateRange.
const (
	RangeAll    = "all"
	RangeDay    = "day"
	RangeWeek   = "week"
	RangeMonth  = "month"
	RangeYear   = "year"
	Range2Years = "2years"
)

// Facets narrows a displayed result set. Zero values disable a facet.
// Results missing the field a facet looks at are kept, except for the link
// facets which require a non-empty list.
type Facets struct {
	MinSize        int64
	MaxSize        int64
	DateRange      string
	MinScore       *float64
	HasParentLinks bool
	HasChildLinks  bool
	Keyword        string
}

// Validate rejects an unknown date range.
func (f Facets) Validate() error {
	switch f.DateRange {
	case "", RangeAll, RangeDay, RangeWeek, RangeMonth, RangeYear, Range2Years:
		return nil
	}
	return fmt.Errorf("date range must be one of all, day, week, month, year, 2years; got %q", f.DateRange)
}

// Active reports whether any facet is set.
func (f Facets) Active() bool {
	return f.MinSize != 0 || f.MaxSize != 0 ||
		(f.DateRange != "" && f.DateRange != RangeAll) ||
		f.MinScore != nil || f.HasParentLinks || f.HasChildLinks ||
		f.Keyword != ""
}

// Apply returns v with only the results passing every facet, order kept.
// now anchors the date range cutoff.
func (f Facets) Apply(v model.View, now time.Time) model.View {
	if !f.Active() {
		return v
	}

	cutoff, dated := f.cutoff(now)
	needle := strings.ToLower(f.Keyword)

	kept := []model.ResultEntry{}
	for _, r := range v.Results {
		if r.Size != nil {
			if f.MinSize != 0 && *r.Size < f.MinSize {
				continue
			}
			if f.MaxSize != 0 && *r.Size > f.MaxSize {
				continue
			}
		}
		if dated {
			if t, ok := ParseLastModified(r.LastModified); ok && t.Before(cutoff) {
				continue
			}
		}
		if f.MinScore != nil && r.Score != nil && *r.Score < *f.MinScore {
			continue
		}
		if f.HasParentLinks && len(r.ParentLinks) == 0 {
			continue
		}
		if f.HasChildLinks && len(r.ChildLinks) == 0 {
			continue
		}
		if needle != "" && !matches(r, needle) {
			continue
		}
		kept = append(kept, r)
	}

	v.Results = kept
	return v
}

func (f Facets) cutoff(now time.Time) (time.Time, bool) {
	switch f.DateRange {
	case RangeDay:
		return now.AddDate(0, 0, -1), true
	case RangeWeek:
		return now.AddDate(0, 0, -7), true
	case RangeMonth:
		return now.AddDate(0, -1, 0), true
	case RangeYear:
		return now.AddDate(-1, 0, 0), true
	case Range2Years:
		return now.AddDate(-2, 0, 0), true
	}
	return time.Time{}, false
}

// ParseLastModified reads an epoch-millisecond number or a date string. An
// explicit null is the epoch; anything else unreadable reports false.
func ParseLastModified(raw json.RawMessage) (time.Time, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return time.Time{}, false
	}
	if bytes.Equal(raw, []byte("null")) {
		return time.UnixMilli(0), true
	}

	var ms float64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(int64(ms)), true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000-0700", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
