package catalog

import "context"

// Filter restricts a Find scan. Zero-valued fields do not filter.
type Filter struct {
	// CinemaIDs restricts results to records belonging to these cinemas.
	CinemaIDs []string

	// WeekNumber restricts results to records tagged with this week.
	WeekNumber int
}

// UpsertResult reports the outcome of a BulkUpsert.
type UpsertResult struct {
	// Created is the number of records that did not exist before.
	Created int `json:"created"`

	// Updated is the number of records that were overwritten in place.
	Updated int `json:"updated"`
}

// Stats summarizes catalog contents for inspection endpoints.
type Stats struct {
	TotalFilms    int            `json:"total_films"`
	FilmsByCinema map[string]int `json:"films_by_cinema"`
	FilmsByWeek   map[int]int    `json:"films_by_week"`
}

// Store is the durable collection of film records keyed by composite id.
type Store interface {
	// Find returns all records matching the filter, in stable catalog order
	// (ascending composite id).
	Find(ctx context.Context, filter Filter) ([]FilmRecord, error)

	// Get retrieves a single record by composite id.
	Get(ctx context.Context, compositeID string) (*FilmRecord, error)

	// BulkUpsert writes records keyed by composite id. The operation is
	// unordered: one record's failure does not block the others. Records
	// whose embedding is not exactly 1024 components are rejected with
	// ErrInvalidEmbedding before anything is persisted for them.
	BulkUpsert(ctx context.Context, records []FilmRecord) (UpsertResult, error)

	// DeleteStale removes records whose week number is more than 2 weeks
	// behind currentWeek and returns the number deleted. Records exactly
	// 2 weeks behind are retained.
	DeleteStale(ctx context.Context, currentWeek int) (int, error)

	// DeleteAll removes every record and returns the number deleted.
	DeleteAll(ctx context.Context) (int, error)

	// Count returns the total number of records.
	Count(ctx context.Context) (int, error)

	// Stats returns per-cinema and per-week record counts.
	Stats(ctx context.Context) (Stats, error)

	// Close releases any resources held by the store.
	Close() error
}
