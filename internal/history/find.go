package history

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/runnerr0/recall/internal/model"
)

// ErrNotFound is returned when a record reference matches nothing.
var ErrNotFound = errors.New("history record not found")

// Find resolves ref against log. ref is either a 1-based position in the
// newest-first log or a prefix of a record ID. An ambiguous prefix is an error.
func Find(log model.HistoryLog, ref string) (model.SearchRecord, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.SearchRecord{}, fmt.Errorf("empty record reference: %w", ErrNotFound)
	}

	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(log) {
			return model.SearchRecord{}, fmt.Errorf("index %d out of range 1..%d: %w", n, len(log), ErrNotFound)
		}
		return log[n-1], nil
	}

	var match *model.SearchRecord
	for i := range log {
		if log[i].ID == "" || !strings.HasPrefix(log[i].ID, ref) {
			continue
		}
		if match != nil {
			return model.SearchRecord{}, fmt.Errorf("record id prefix %q is ambiguous", ref)
		}
		match = &log[i]
	}
	if match == nil {
		return model.SearchRecord{}, fmt.Errorf("record %q: %w", ref, ErrNotFound)
	}
	return *match, nil
}

// FindAll resolves every ref in order.
func FindAll(log model.HistoryLog, refs []string) ([]model.SearchRecord, error) {
	records := make([]model.SearchRecord, 0, len(refs))
	for _, ref := range refs {
		rec, err := Find(log, ref)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
