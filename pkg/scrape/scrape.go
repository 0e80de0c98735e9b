// Package scrape defines the boundary to the showtime scraping data source.
//
// The scraper itself lives in a separate process and is reached through a
// structured request/response contract; this package only defines the payload
// shape it returns and the Source interface the ingestion pipeline consumes.
// A source failure is a batch-level failure: the pipeline skips the batch and
// continues.
package scrape

import (
	"context"
	"encoding/json"
	"fmt"
)

// Slot mirrors catalog.Slot at the wire boundary.
type Slot struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Version string `json:"version,omitempty"`
}

// Showtime groups the slots scraped for one date.
type Showtime struct {
	Date  string `json:"date"`
	Slots []Slot `json:"slots"`
}

// RawFilm is one film as returned by the scraper, before transformation.
type RawFilm struct {
	FilmID          string     `json:"film_id"`
	Title           string     `json:"title"`
	Genre           string     `json:"genre,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
	DurationDisplay string     `json:"duration_display,omitempty"`
	Director        string     `json:"director,omitempty"`
	Actors          []string   `json:"actors,omitempty"`
	Rating          float64    `json:"rating,omitempty"`
	ReleaseDate     string     `json:"release_date,omitempty"`
	Showtimes       []Showtime `json:"showtimes,omitempty"`
}

// CinemaProgram is the scraped program of one cinema.
type CinemaProgram struct {
	CinemaID   string    `json:"cinema_id"`
	CinemaName string    `json:"cinema_name,omitempty"`
	Films      []RawFilm `json:"films"`
}

// Payload is the top-level document returned by the scraper.
type Payload struct {
	Cinemas []CinemaProgram `json:"cinemas"`
}

// ParsePayload decodes raw scraper output. Non-conforming JSON is an error
// the pipeline treats as a failed batch.
func ParsePayload(data []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing scrape payload: %w", err)
	}
	if p.Cinemas == nil {
		return nil, fmt.Errorf("parsing scrape payload: missing cinemas field")
	}
	return &p, nil
}

// Source fetches showtime programs for a set of cinemas.
type Source interface {
	// FetchCinemas scrapes the programs for the given cinema ids. The call
	// may take minutes; implementations must honor ctx cancellation.
	FetchCinemas(ctx context.Context, cinemaIDs []string) (*Payload, error)
}
