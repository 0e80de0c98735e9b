// Package sqlite provides a SQLite-backed implementation of catalog.Store.
//
// Embeddings are stored as little-endian float32 BLOBs; list-valued fields
// (actors, genres, showtimes) are stored as JSON text. Scoring happens in the
// retrieval engine over loaded records, so no vector extension is needed.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/marqueeco/marquee/pkg/catalog"
	"github.com/marqueeco/marquee/pkg/embeddings"
)

// Store implements catalog.Store using SQLite.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Config holds configuration for the SQLite catalog store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string
}

const schema = `
CREATE TABLE IF NOT EXISTS film_records (
	composite_id     TEXT PRIMARY KEY,
	film_id          TEXT NOT NULL,
	cinema_id        TEXT NOT NULL,
	cinema_name      TEXT NOT NULL DEFAULT '',
	title            TEXT NOT NULL,
	genre            TEXT NOT NULL DEFAULT '',
	genres_array     TEXT NOT NULL DEFAULT '[]',
	duration_minutes INTEGER NOT NULL DEFAULT 0,
	duration_display TEXT NOT NULL DEFAULT '',
	director         TEXT NOT NULL DEFAULT '',
	actors           TEXT NOT NULL DEFAULT '[]',
	rating           REAL NOT NULL DEFAULT 0,
	release_date     TEXT NOT NULL DEFAULT '',
	showtimes        TEXT NOT NULL DEFAULT '[]',
	embedding        BLOB NOT NULL,
	week_number      INTEGER NOT NULL,
	scraped_at       TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_film_records_cinema ON film_records(cinema_id);
CREATE INDEX IF NOT EXISTS idx_film_records_week ON film_records(week_number);
`

// NewStore creates a SQLite catalog store, creating the schema if needed.
func NewStore(c Config, logger *zap.Logger) (*Store, error) {
	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", catalog.ErrConnection, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("sqlite catalog store initialized",
		zap.String("db_path", c.DBPath),
	)

	return &Store{db: db, logger: logger}, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 converts a little-endian byte slice back to a float32 slice.
func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// Find returns all records matching the filter in ascending composite id order.
func (s *Store) Find(ctx context.Context, filter catalog.Filter) ([]catalog.FilmRecord, error) {
	query := `SELECT composite_id, film_id, cinema_id, cinema_name, title, genre,
		genres_array, duration_minutes, duration_display, director, actors, rating,
		release_date, showtimes, embedding, week_number, scraped_at
		FROM film_records`

	var conds []string
	var args []any

	if len(filter.CinemaIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.CinemaIDs)), ",")
		conds = append(conds, fmt.Sprintf("cinema_id IN (%s)", placeholders))
		for _, id := range filter.CinemaIDs {
			args = append(args, id)
		}
	}
	if filter.WeekNumber != 0 {
		conds = append(conds, "week_number = ?")
		args = append(args, filter.WeekNumber)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY composite_id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []catalog.FilmRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

// Get retrieves a record by composite id.
func (s *Store) Get(ctx context.Context, compositeID string) (*catalog.FilmRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT composite_id, film_id, cinema_id, cinema_name,
		title, genre, genres_array, duration_minutes, duration_display, director, actors,
		rating, release_date, showtimes, embedding, week_number, scraped_at
		FROM film_records WHERE composite_id = ?`, compositeID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", catalog.ErrNotFound, compositeID)
	}
	return rec, err
}

// BulkUpsert writes records keyed by composite id. Each record is written in
// its own statement so one failure does not block the others.
func (s *Store) BulkUpsert(ctx context.Context, records []catalog.FilmRecord) (catalog.UpsertResult, error) {
	var result catalog.UpsertResult
	var errs []error

	for _, rec := range records {
		if len(rec.Embedding) != embeddings.Dimensions {
			errs = append(errs, fmt.Errorf("%w: record %s has %d components, want %d",
				catalog.ErrInvalidEmbedding, catalog.CompositeID(rec.FilmID, rec.CinemaID),
				len(rec.Embedding), embeddings.Dimensions))
			continue
		}

		// Composite id is derived state, recomputed on every write.
		rec.CompositeID = catalog.CompositeID(rec.FilmID, rec.CinemaID)

		genres, _ := json.Marshal(rec.GenresArray)
		actors, _ := json.Marshal(rec.Actors)
		showtimes, _ := json.Marshal(rec.Showtimes)

		// Check for an existing row first so created vs. updated counts are
		// exact (the upsert statement reports 1 changed row either way).
		var exists bool
		err := s.db.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM film_records WHERE composite_id = ?)",
			rec.CompositeID).Scan(&exists)
		if err != nil {
			errs = append(errs, fmt.Errorf("checking record %s: %w", rec.CompositeID, err))
			continue
		}

		_, err = s.db.ExecContext(ctx, `INSERT INTO film_records (
			composite_id, film_id, cinema_id, cinema_name, title, genre, genres_array,
			duration_minutes, duration_display, director, actors, rating, release_date,
			showtimes, embedding, week_number, scraped_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(composite_id) DO UPDATE SET
			film_id = excluded.film_id,
			cinema_id = excluded.cinema_id,
			cinema_name = excluded.cinema_name,
			title = excluded.title,
			genre = excluded.genre,
			genres_array = excluded.genres_array,
			duration_minutes = excluded.duration_minutes,
			duration_display = excluded.duration_display,
			director = excluded.director,
			actors = excluded.actors,
			rating = excluded.rating,
			release_date = excluded.release_date,
			showtimes = excluded.showtimes,
			embedding = excluded.embedding,
			week_number = excluded.week_number,
			scraped_at = excluded.scraped_at`,
			rec.CompositeID, rec.FilmID, rec.CinemaID, rec.CinemaName, rec.Title,
			rec.Genre, string(genres), rec.DurationMinutes, rec.DurationDisplay,
			rec.Director, string(actors), rec.Rating, rec.ReleaseDate,
			string(showtimes), serializeFloat32(rec.Embedding), rec.WeekNumber,
			rec.ScrapedAt.UTC(),
		)
		if err != nil {
			errs = append(errs, fmt.Errorf("upserting record %s: %w", rec.CompositeID, err))
			continue
		}

		if exists {
			result.Updated++
		} else {
			result.Created++
		}
	}

	return result, errors.Join(errs...)
}

// DeleteStale removes records more than 2 weeks behind currentWeek.
func (s *Store) DeleteStale(ctx context.Context, currentWeek int) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM film_records WHERE week_number < ?", catalog.StaleBefore(currentWeek))
	if err != nil {
		return 0, fmt.Errorf("deleting stale records: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	s.logger.Debug("pruned stale film records",
		zap.Int64("deleted", n),
		zap.Int("current_week", currentWeek),
	)

	return int(n), nil
}

// DeleteAll removes every record.
func (s *Store) DeleteAll(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM film_records")
	if err != nil {
		return 0, fmt.Errorf("deleting records: %w", err)
	}

	n, err := res.RowsAffected()
	return int(n), err
}

// Count returns the total number of records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM film_records").Scan(&n)
	return n, err
}

// Stats returns per-cinema and per-week record counts.
func (s *Store) Stats(ctx context.Context) (catalog.Stats, error) {
	stats := catalog.Stats{
		FilmsByCinema: make(map[string]int),
		FilmsByWeek:   make(map[int]int),
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM film_records").Scan(&stats.TotalFilms); err != nil {
		return stats, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT cinema_id, COUNT(*) FROM film_records GROUP BY cinema_id")
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return stats, err
		}
		stats.FilmsByCinema[id] = n
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	weekRows, err := s.db.QueryContext(ctx,
		"SELECT week_number, COUNT(*) FROM film_records GROUP BY week_number")
	if err != nil {
		return stats, err
	}
	defer weekRows.Close()
	for weekRows.Next() {
		var week, n int
		if err := weekRows.Scan(&week, &n); err != nil {
			return stats, err
		}
		stats.FilmsByWeek[week] = n
	}

	return stats, weekRows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// scanner abstracts *sql.Row and *sql.Rows for scanRecord.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*catalog.FilmRecord, error) {
	var rec catalog.FilmRecord
	var genres, actors, showtimes string
	var embedding []byte

	err := row.Scan(&rec.CompositeID, &rec.FilmID, &rec.CinemaID, &rec.CinemaName,
		&rec.Title, &rec.Genre, &genres, &rec.DurationMinutes, &rec.DurationDisplay,
		&rec.Director, &actors, &rec.Rating, &rec.ReleaseDate, &showtimes,
		&embedding, &rec.WeekNumber, &rec.ScrapedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(genres), &rec.GenresArray); err != nil {
		return nil, fmt.Errorf("decoding genres for %s: %w", rec.CompositeID, err)
	}
	if err := json.Unmarshal([]byte(actors), &rec.Actors); err != nil {
		return nil, fmt.Errorf("decoding actors for %s: %w", rec.CompositeID, err)
	}
	if err := json.Unmarshal([]byte(showtimes), &rec.Showtimes); err != nil {
		return nil, fmt.Errorf("decoding showtimes for %s: %w", rec.CompositeID, err)
	}

	rec.Embedding, err = deserializeFloat32(embedding)
	if err != nil {
		return nil, fmt.Errorf("decoding embedding for %s: %w", rec.CompositeID, err)
	}

	return &rec, nil
}

// Ensure Store implements catalog.Store
var _ catalog.Store = (*Store)(nil)
