package ingest

import "errors"

var (
	// ErrRunInProgress is returned when a refresh is requested while another
	// run holds the pipeline.
	ErrRunInProgress = errors.New("a refresh run is already in progress")

	// ErrNoCinemas is returned when a run fetches zero cinema programs.
	ErrNoCinemas = errors.New("no cinema programs fetched")

	// ErrNoFilms is returned when a run transforms zero films.
	ErrNoFilms = errors.New("no films transformed")
)
