package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/skycast-ai/skycast/internal/records"
)

// MemoryStore is a concurrency-safe in-memory implementation of the record
// store, used in tests and when no database path is configured.
type MemoryStore struct {
	mu sync.RWMutex

	data   map[int64]records.WeatherRecord
	nextID int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:   make(map[int64]records.WeatherRecord),
		nextID: 1,
	}
}

func (s *MemoryStore) Insert(_ context.Context, rec *records.WeatherRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	rec.ID = s.nextID
	s.nextID++
	s.data[rec.ID] = *rec
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (*records.WeatherRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[id]
	if !ok {
		return nil, records.ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) List(_ context.Context) ([]records.WeatherRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := s.snapshot()
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// SortedByTemp returns all records ordered by temperature ascending.
func (s *MemoryStore) SortedByTemp(_ context.Context) ([]records.WeatherRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := s.snapshot()
	sort.Slice(result, func(i, j int) bool {
		if result[i].Temp == result[j].Temp {
			return result[i].ID < result[j].ID
		}
		return result[i].Temp < result[j].Temp
	})
	return result, nil
}

func (s *MemoryStore) UpdateDesc(_ context.Context, id int64, desc string) (*records.WeatherRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data[id]
	if !ok {
		return nil, records.ErrNotFound
	}

	rec.Desc = desc
	s.data[id] = rec
	return &rec, nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[id]; !ok {
		return false, nil
	}
	delete(s.data, id)
	return true, nil
}

// DeleteMany removes every existing id under one lock; the in-memory store
// has no commit step that can fail.
func (s *MemoryStore) DeleteMany(_ context.Context, ids []int64) (deleted, missing []int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if _, ok := s.data[id]; !ok {
			missing = append(missing, id)
			continue
		}
		delete(s.data, id)
		deleted = append(deleted, id)
	}
	return deleted, missing, nil
}

// snapshot copies all records; callers hold at least the read lock.
func (s *MemoryStore) snapshot() []records.WeatherRecord {
	result := make([]records.WeatherRecord, 0, len(s.data))
	for _, rec := range s.data {
		result = append(result, rec)
	}
	return result
}
