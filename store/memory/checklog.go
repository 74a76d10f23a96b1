package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/xraph/depot/checklog"
)

var _ checklog.Store = (*Store)(nil)

// ──────────────────────────────────────────────────
// Check log Store
// ──────────────────────────────────────────────────

func (s *Store) CreateCheckLog(_ context.Context, e *checklog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now()
	}
	cp := *e
	s.logs = append(s.logs, &cp)
	return nil
}

func (s *Store) ListCheckLogs(_ context.Context, filter *checklog.QueryFilter) ([]*checklog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*checklog.Entry
	for _, e := range s.logs {
		if filter.Matches(e) {
			cp := *e
			result = append(result, &cp)
		}
	}
	slices.SortFunc(result, func(a, b *checklog.Entry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID.String(), a.ID.String())
	})

	if filter != nil {
		if filter.Offset > 0 {
			if filter.Offset >= len(result) {
				return []*checklog.Entry{}, nil
			}
			result = result[filter.Offset:]
		}
		if filter.Limit > 0 && filter.Limit < len(result) {
			result = result[:filter.Limit]
		}
	}
	if result == nil {
		result = []*checklog.Entry{}
	}
	return result, nil
}

func (s *Store) CountCheckLogs(_ context.Context, filter *checklog.QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, e := range s.logs {
		if filter.Matches(e) {
			n++
		}
	}
	return n, nil
}

func (s *Store) PurgeCheckLogs(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.logs[:0]
	var n int64
	for _, e := range s.logs {
		if e.CreatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	clear(s.logs[len(kept):])
	s.logs = kept
	return n, nil
}
