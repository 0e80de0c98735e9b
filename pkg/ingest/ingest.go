// Package ingest runs the catalog refresh pipeline: fetch cinema programs,
// transform and embed the films, upsert them into the catalog, then prune
// stale weeks.
//
// At most one run executes at a time. Failures below the batch level are
// counted and skipped; a run only fails outright when the embedding provider
// is unreachable or the whole run produces nothing.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/marqueeco/marquee/pkg/catalog"
	"github.com/marqueeco/marquee/pkg/cinema"
	"github.com/marqueeco/marquee/pkg/embeddings"
	"github.com/marqueeco/marquee/pkg/scrape"
	"github.com/marqueeco/marquee/pkg/transform"
)

// DefaultBatchSize is the number of cinemas fetched per scrape call.
const DefaultBatchSize = 10

// State is the phase a refresh run is in.
type State string

const (
	StateIdle         State = "idle"
	StateVerifying    State = "verifying"
	StateFetching     State = "fetching"
	StateTransforming State = "transforming"
	StateUpserting    State = "upserting"
	StatePruning      State = "pruning"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Result summarizes a completed or failed refresh run.
type Result struct {
	State          State         `json:"state"`
	WeekNumber     int           `json:"week_number"`
	CinemasScraped int           `json:"cinemas_scraped"`
	BatchesFailed  int           `json:"batches_failed"`
	FilmsProcessed int           `json:"films_processed"`
	FilmsSkipped   int           `json:"films_skipped"`
	Created        int           `json:"created"`
	Updated        int           `json:"updated"`
	Pruned         int           `json:"pruned"`
	Duration       time.Duration `json:"duration"`
	StartedAt      time.Time     `json:"started_at"`
	Error          string        `json:"error,omitempty"`
}

// Runner drives refresh runs over a scrape source, an embedder, a catalog
// store and the cinema directory.
type Runner struct {
	source    scrape.Source
	embedder  embeddings.Embedder
	store     catalog.Store
	directory cinema.Directory
	logger    *zap.Logger

	batchSize int
	now       func() time.Time

	// running admits one run at a time without blocking callers.
	running sync.Mutex

	// mu guards state and lastResult.
	mu         sync.RWMutex
	state      State
	lastResult *Result
}

// RunnerOpts configures a Runner. BatchSize defaults to DefaultBatchSize.
type RunnerOpts struct {
	Source    scrape.Source
	Embedder  embeddings.Embedder
	Store     catalog.Store
	Directory cinema.Directory
	Logger    *zap.Logger
	BatchSize int
}

// NewRunner creates a refresh runner.
func NewRunner(o *RunnerOpts) *Runner {
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	batchSize := o.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Runner{
		source:    o.Source,
		embedder:  o.Embedder,
		store:     o.Store,
		directory: o.Directory,
		logger:    logger,
		batchSize: batchSize,
		now:       time.Now,
		state:     StateIdle,
	}
}

// State returns the current pipeline phase.
func (r *Runner) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// LastResult returns the outcome of the most recent run, or nil before the
// first one.
func (r *Runner) LastResult() *Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastResult
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Refresh runs the full pipeline for the given cinemas, or for every cinema
// in the directory when cinemaIDs is empty. It returns ErrRunInProgress
// without blocking when another run is active.
func (r *Runner) Refresh(ctx context.Context, cinemaIDs []string) (*Result, error) {
	if !r.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer r.running.Unlock()

	return r.refresh(ctx, cinemaIDs)
}

// StartRefresh begins a refresh in the background and returns immediately.
// It returns ErrRunInProgress when a run is already active; LastResult
// reports the outcome once the background run finishes.
func (r *Runner) StartRefresh(ctx context.Context, cinemaIDs []string) error {
	if !r.running.TryLock() {
		return ErrRunInProgress
	}

	go func() {
		defer r.running.Unlock()
		_, _ = r.refresh(ctx, cinemaIDs)
	}()

	return nil
}

// refresh executes one run. Callers must hold the running lock.
func (r *Runner) refresh(ctx context.Context, cinemaIDs []string) (*Result, error) {
	start := r.now()
	result := &Result{
		WeekNumber: catalog.WeekNumber(start),
		StartedAt:  start,
	}

	err := r.run(ctx, cinemaIDs, result)

	result.Duration = r.now().Sub(start)
	if err != nil {
		result.State = StateFailed
		result.Error = err.Error()
		r.logger.Error("refresh run failed",
			zap.Int("week_number", result.WeekNumber),
			zap.Duration("duration", result.Duration),
			zap.Error(err),
		)
	} else {
		result.State = StateDone
		r.logger.Info("refresh run complete",
			zap.Int("week_number", result.WeekNumber),
			zap.Int("cinemas_scraped", result.CinemasScraped),
			zap.Int("films_processed", result.FilmsProcessed),
			zap.Int("films_skipped", result.FilmsSkipped),
			zap.Int("created", result.Created),
			zap.Int("updated", result.Updated),
			zap.Int("pruned", result.Pruned),
			zap.Duration("duration", result.Duration),
		)
	}

	r.mu.Lock()
	r.state = result.State
	r.lastResult = result
	r.mu.Unlock()

	return result, err
}

func (r *Runner) run(ctx context.Context, cinemaIDs []string, result *Result) error {
	r.setState(StateVerifying)
	if err := r.embedder.Verify(ctx); err != nil {
		return fmt.Errorf("verifying embedding provider: %w", err)
	}

	if len(cinemaIDs) == 0 {
		all, err := r.directory.All(ctx)
		if err != nil {
			return fmt.Errorf("listing cinemas: %w", err)
		}
		for _, c := range all {
			cinemaIDs = append(cinemaIDs, c.ID)
		}
	}

	for _, batch := range batches(cinemaIDs, r.batchSize) {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.setState(StateFetching)
		payload, err := r.source.FetchCinemas(ctx, batch)
		if err != nil {
			result.BatchesFailed++
			r.logger.Warn("scrape batch failed, skipping",
				zap.Strings("cinema_ids", batch),
				zap.Error(err),
			)
			continue
		}

		if err := r.ingestBatch(ctx, payload, result); err != nil {
			return err
		}
	}

	if result.CinemasScraped == 0 {
		return ErrNoCinemas
	}
	if result.FilmsProcessed == 0 {
		return ErrNoFilms
	}

	r.setState(StatePruning)
	pruned, err := r.store.DeleteStale(ctx, result.WeekNumber)
	if err != nil {
		return fmt.Errorf("pruning stale records: %w", err)
	}
	result.Pruned = pruned

	return nil
}

// ingestBatch transforms, embeds and upserts one scraped batch.
func (r *Runner) ingestBatch(ctx context.Context, payload *scrape.Payload, result *Result) error {
	r.setState(StateTransforming)

	var records []catalog.FilmRecord
	var texts []string

	scrapedAt := r.now()
	for _, program := range payload.Cinemas {
		result.CinemasScraped++
		for _, raw := range program.Films {
			rec, text, err := transform.Film(program.CinemaID, program.CinemaName, raw, result.WeekNumber, scrapedAt)
			if err != nil {
				result.FilmsSkipped++
				r.logger.Warn("skipping film", zap.Error(err))
				continue
			}
			records = append(records, rec)
			texts = append(texts, text)
		}
	}

	if len(records) == 0 {
		return nil
	}

	vectors, errs := r.embedder.EmbedAll(ctx, texts)

	embedded := records[:0]
	for i := range records {
		if errs[i] != nil {
			result.FilmsSkipped++
			r.logger.Warn("skipping film, embedding failed",
				zap.String("composite_id", records[i].CompositeID),
				zap.Error(errs[i]),
			)
			continue
		}
		records[i].Embedding = vectors[i]
		embedded = append(embedded, records[i])
	}

	if len(embedded) == 0 {
		return nil
	}

	r.setState(StateUpserting)
	upserted, err := r.store.BulkUpsert(ctx, embedded)
	if err != nil {
		// Invalid records are rejected individually; valid ones landed.
		result.FilmsSkipped += len(embedded) - upserted.Created - upserted.Updated
		r.logger.Warn("some records rejected during upsert", zap.Error(err))
	}
	result.Created += upserted.Created
	result.Updated += upserted.Updated
	result.FilmsProcessed += upserted.Created + upserted.Updated

	return nil
}

// batches splits ids into consecutive groups of at most size.
func batches(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
