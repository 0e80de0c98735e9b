// Package inmemory provides an in-memory implementation of catalog.Store.
//
// Records live in a map keyed by composite id behind a read-write mutex. The
// driver is the local-dev and test story; the sqlite driver is the durable
// one. Both enforce the same embedding invariant.
package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/marqueeco/marquee/pkg/catalog"
	"github.com/marqueeco/marquee/pkg/embeddings"
)

// Store implements catalog.Store using an in-memory map.
type Store struct {
	// mu guards records.
	mu sync.RWMutex

	// records maps composite id -> film record.
	records map[string]catalog.FilmRecord
}

// NewStore creates an empty in-memory catalog store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]catalog.FilmRecord),
	}
}

// Find returns all records matching the filter in ascending composite id
// order.
func (s *Store) Find(_ context.Context, filter catalog.Filter) ([]catalog.FilmRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cinemaSet map[string]bool
	if len(filter.CinemaIDs) > 0 {
		cinemaSet = make(map[string]bool, len(filter.CinemaIDs))
		for _, id := range filter.CinemaIDs {
			cinemaSet[id] = true
		}
	}

	var result []catalog.FilmRecord
	for _, rec := range s.records {
		if cinemaSet != nil && !cinemaSet[rec.CinemaID] {
			continue
		}
		if filter.WeekNumber != 0 && rec.WeekNumber != filter.WeekNumber {
			continue
		}
		result = append(result, rec)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CompositeID < result[j].CompositeID
	})

	return result, nil
}

// Get retrieves a record by composite id.
func (s *Store) Get(_ context.Context, compositeID string) (*catalog.FilmRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[compositeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalog.ErrNotFound, compositeID)
	}

	return &rec, nil
}

// BulkUpsert writes records keyed by composite id. Invalid records are
// rejected individually; valid records in the same batch still land.
func (s *Store) BulkUpsert(_ context.Context, records []catalog.FilmRecord) (catalog.UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result catalog.UpsertResult
	var errs []error

	for _, rec := range records {
		if err := validate(rec); err != nil {
			errs = append(errs, err)
			continue
		}

		// Composite id is derived state, recomputed on every write.
		rec.CompositeID = catalog.CompositeID(rec.FilmID, rec.CinemaID)

		if _, exists := s.records[rec.CompositeID]; exists {
			result.Updated++
		} else {
			result.Created++
		}
		s.records[rec.CompositeID] = rec
	}

	return result, errors.Join(errs...)
}

// DeleteStale removes records more than 2 weeks behind currentWeek.
func (s *Store) DeleteStale(_ context.Context, currentWeek int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := catalog.StaleBefore(currentWeek)
	deleted := 0
	for id, rec := range s.records {
		if rec.WeekNumber < cutoff {
			delete(s.records, id)
			deleted++
		}
	}

	return deleted, nil
}

// DeleteAll removes every record.
func (s *Store) DeleteAll(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := len(s.records)
	s.records = make(map[string]catalog.FilmRecord)

	return deleted, nil
}

// Count returns the total number of records.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records), nil
}

// Stats returns per-cinema and per-week record counts.
func (s *Store) Stats(_ context.Context) (catalog.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := catalog.Stats{
		TotalFilms:    len(s.records),
		FilmsByCinema: make(map[string]int),
		FilmsByWeek:   make(map[int]int),
	}
	for _, rec := range s.records {
		stats.FilmsByCinema[rec.CinemaID]++
		stats.FilmsByWeek[rec.WeekNumber]++
	}

	return stats, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// validate enforces the embedding invariant before anything is persisted.
func validate(rec catalog.FilmRecord) error {
	if len(rec.Embedding) != embeddings.Dimensions {
		return fmt.Errorf("%w: record %s has %d components, want %d",
			catalog.ErrInvalidEmbedding, catalog.CompositeID(rec.FilmID, rec.CinemaID),
			len(rec.Embedding), embeddings.Dimensions)
	}
	return nil
}

// Ensure Store implements catalog.Store
var _ catalog.Store = (*Store)(nil)
