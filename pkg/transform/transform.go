// Package transform converts raw scraped film data into catalog records and
// the text used to embed them.
//
// Transformation is per-film and fallible: a film missing required fields
// yields an ItemError the pipeline logs and skips, never an aborted batch.
// Embeddings are attached later by the pipeline; records leave this package
// without one.
package transform

import (
	"fmt"
	"strings"
	"time"

	"github.com/marqueeco/marquee/pkg/catalog"
	"github.com/marqueeco/marquee/pkg/scrape"
)

// maxActorsInText caps how many actors contribute to the embedding text.
const maxActorsInText = 5

// ItemError marks a per-film transform failure. The pipeline counts and
// skips these.
type ItemError struct {
	FilmID   string
	CinemaID string
	Reason   string
}

func (e ItemError) Error() string {
	return fmt.Sprintf("transforming film %q at cinema %q: %s", e.FilmID, e.CinemaID, e.Reason)
}

// SplitGenres normalizes a free-text genre string ("Action, Drame") into
// trimmed tokens, dropping empties.
func SplitGenres(genre string) []string {
	if genre == "" {
		return nil
	}

	var genres []string
	for _, g := range strings.Split(genre, ",") {
		g = strings.TrimSpace(g)
		if g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}

// EmbeddingText builds the text a film record is embedded from. Fields appear
// in fixed order, each label-prefixed on its own line; absent fields are
// omitted entirely rather than rendered empty.
func EmbeddingText(title string, genres []string, director string, actors []string, durationMinutes int, rating float64) string {
	parts := []string{fmt.Sprintf("Titre: %s", title)}

	if len(genres) > 0 {
		parts = append(parts, fmt.Sprintf("Genres: %s", strings.Join(genres, ", ")))
	}
	if director != "" {
		parts = append(parts, fmt.Sprintf("Réalisateur: %s", director))
	}
	if len(actors) > 0 {
		if len(actors) > maxActorsInText {
			actors = actors[:maxActorsInText]
		}
		parts = append(parts, fmt.Sprintf("Acteurs: %s", strings.Join(actors, ", ")))
	}
	if durationMinutes > 0 {
		parts = append(parts, fmt.Sprintf("Durée: %d minutes", durationMinutes))
	}
	if rating > 0 {
		parts = append(parts, fmt.Sprintf("Note: %g/5", rating))
	}

	return strings.Join(parts, "\n")
}

// Film converts one raw film into a catalog record without its embedding,
// plus the text to embed it from.
func Film(cinemaID, cinemaName string, raw scrape.RawFilm, weekNumber int, scrapedAt time.Time) (catalog.FilmRecord, string, error) {
	if raw.FilmID == "" {
		return catalog.FilmRecord{}, "", ItemError{FilmID: raw.FilmID, CinemaID: cinemaID, Reason: "missing required field film_id"}
	}
	if raw.Title == "" {
		return catalog.FilmRecord{}, "", ItemError{FilmID: raw.FilmID, CinemaID: cinemaID, Reason: "missing required field title"}
	}
	if cinemaID == "" {
		return catalog.FilmRecord{}, "", ItemError{FilmID: raw.FilmID, CinemaID: cinemaID, Reason: "missing required field cinema_id"}
	}

	genres := SplitGenres(raw.Genre)
	text := EmbeddingText(raw.Title, genres, raw.Director, raw.Actors, raw.DurationMinutes, raw.Rating)

	showtimes := make([]catalog.Showtime, 0, len(raw.Showtimes))
	for _, st := range raw.Showtimes {
		slots := make([]catalog.Slot, 0, len(st.Slots))
		for _, slot := range st.Slots {
			slots = append(slots, catalog.Slot{Start: slot.Start, End: slot.End, Version: slot.Version})
		}
		showtimes = append(showtimes, catalog.Showtime{Date: st.Date, Slots: slots})
	}

	rec := catalog.FilmRecord{
		CompositeID:     catalog.CompositeID(raw.FilmID, cinemaID),
		FilmID:          raw.FilmID,
		CinemaID:        cinemaID,
		CinemaName:      cinemaName,
		Title:           raw.Title,
		Genre:           raw.Genre,
		GenresArray:     genres,
		DurationMinutes: raw.DurationMinutes,
		DurationDisplay: raw.DurationDisplay,
		Director:        raw.Director,
		Actors:          raw.Actors,
		Rating:          raw.Rating,
		ReleaseDate:     raw.ReleaseDate,
		Showtimes:       showtimes,
		WeekNumber:      weekNumber,
		ScrapedAt:       scrapedAt,
	}

	return rec, text, nil
}
