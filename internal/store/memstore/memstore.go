// Package memstore keeps permission records in process memory. It
// backs tests and the ephemeral "memory" store backend; nothing
// survives a restart.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/astaXmjy/s3BucMg/internal/access"
	"github.com/astaXmjy/s3BucMg/internal/store"
)

type Store struct {
	mu      sync.RWMutex
	records map[string]*access.Record
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{records: make(map[string]*access.Record)}
}

func (s *Store) GetRecord(_ context.Context, username string) (*access.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *Store) PutRecord(_ context.Context, rec *access.Record) error {
	if rec == nil {
		return access.ErrNoRecord
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Clone on the way in so later caller mutations don't bleed into
	// the stored copy.
	s.records[rec.Username] = rec.Clone()
	return nil
}

func (s *Store) DeleteRecord(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[username]; !ok {
		return store.ErrNotFound
	}
	delete(s.records, username)
	return nil
}

func (s *Store) ListRecords(_ context.Context) ([]*access.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*access.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Store) Close() error { return nil }
