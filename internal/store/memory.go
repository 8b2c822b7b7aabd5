package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/AngelCh415/GSC_GO/internal/models"
)

type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]models.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]models.Record)}
}

func (s *MemoryStore) Upsert(_ context.Context, records []models.Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := 0
	for _, r := range records {
		r = clean(r)
		k := r.Key()
		if _, ok := s.rows[k]; !ok {
			added++
		}
		s.rows[k] = r
	}
	return added, nil
}

func (s *MemoryStore) Table(_ context.Context) (models.Table, error) {
	return models.NewTable(Columns, s.collect(nil)), nil
}

func (s *MemoryStore) Query(_ context.Context, from, to time.Time) ([]models.Record, error) {
	p := models.Period{Start: from, End: to}
	return s.collect(func(r models.Record) bool { return p.Contains(r.Date) }), nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) collect(f func(models.Record) bool) []models.Record {
	s.mu.RLock()
	out := make([]models.Record, 0, len(s.rows))
	for _, r := range s.rows {
		if f == nil || f(r) {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	// orden determinista
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}
