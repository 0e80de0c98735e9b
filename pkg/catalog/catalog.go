// Package catalog provides the film catalog data model and storage contract.
//
// A FilmRecord describes one film showing at one cinema, keyed by a composite
// identifier derived from the film and cinema ids. Records are produced by the
// ingestion pipeline and are read-only to the retrieval side. Every persisted
// record carries a full embedding vector; stores reject anything else.
package catalog

import (
	"fmt"
	"time"
)

// Slot is a single showtime slot within a day.
type Slot struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Version string `json:"version,omitempty"`
}

// Showtime groups the slots for one date.
type Showtime struct {
	Date  string `json:"date"`
	Slots []Slot `json:"slots"`
}

// FilmRecord is one film showing at one cinema.
type FilmRecord struct {
	// CompositeID is "{filmID}_{cinemaID}". It is always recomputed via
	// CompositeID, never hand-edited.
	CompositeID string `json:"composite_id"`

	CinemaID   string `json:"cinema_id"`
	CinemaName string `json:"cinema_name,omitempty"`
	FilmID     string `json:"film_id"`

	Title           string   `json:"title"`
	Genre           string   `json:"genre,omitempty"`
	GenresArray     []string `json:"genres_array,omitempty"`
	DurationMinutes int      `json:"duration_minutes,omitempty"`
	DurationDisplay string   `json:"duration_display,omitempty"`
	Director        string   `json:"director,omitempty"`
	Actors          []string `json:"actors,omitempty"`
	Rating          float64  `json:"rating,omitempty"`
	ReleaseDate     string   `json:"release_date,omitempty"`

	Showtimes []Showtime `json:"showtimes,omitempty"`

	// Embedding is the 1024-component vector for the record. Stores must
	// reject any other length before persisting.
	Embedding []float32 `json:"embedding,omitempty"`

	// WeekNumber is the YYYYWW tag of the ingestion run that produced or
	// refreshed this record. Records more than 2 weeks behind the current
	// run are pruned.
	WeekNumber int `json:"week_number"`

	ScrapedAt time.Time `json:"scraped_at"`
}

// CompositeID builds the deterministic record key from a film id and a
// cinema id.
func CompositeID(filmID, cinemaID string) string {
	return fmt.Sprintf("%s_%s", filmID, cinemaID)
}

// StripEmbedding returns a copy of the record without its embedding vector,
// for handing records to callers that must never see raw vectors.
func (r FilmRecord) StripEmbedding() FilmRecord {
	r.Embedding = nil
	return r
}

// WeekNumber computes the YYYYWW tag for a point in time using ISO-8601 week
// numbering. The ISO year is used for the YYYY part so records scraped around
// new year land in a single, well-defined week.
func WeekNumber(t time.Time) int {
	year, week := t.ISOWeek()
	return year*100 + week
}

// StaleBefore returns the exclusive lower bound for pruning: records with a
// week number strictly below the result are stale relative to currentWeek.
// Records exactly 2 weeks behind are retained.
func StaleBefore(currentWeek int) int {
	return currentWeek - 2
}
