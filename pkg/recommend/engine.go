package recommend

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/marqueeco/marquee/pkg/catalog"
	"github.com/marqueeco/marquee/pkg/embeddings"
)

// DefaultTopK is the number of films returned when the caller does not ask
// for a specific count.
const DefaultTopK = 10

// Scored is one ranked film. The embedding is stripped before records leave
// the engine.
type Scored struct {
	catalog.FilmRecord

	// Score is the cosine similarity between the query and the record.
	// Zero for results produced by the unranked fallback.
	Score float64 `json:"score"`

	// Ranked is false when the engine degraded to catalog-order fallback.
	Ranked bool `json:"ranked"`
}

// Engine ranks catalog candidates against preference queries.
type Engine struct {
	store    catalog.Store
	embedder embeddings.Embedder
	logger   *zap.Logger
}

// NewEngine creates a retrieval engine over the given store and embedder.
func NewEngine(store catalog.Store, embedder embeddings.Embedder, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:    store,
		embedder: embedder,
		logger:   logger,
	}
}

// Retrieve returns the topK films among the given cinemas ranked by
// similarity to the preference query.
//
// An empty cinema set yields an empty result, not an error. If embedding or
// scoring fails, the engine degrades to returning up to topK candidates in
// catalog order instead of failing the user-facing request.
func (e *Engine) Retrieve(ctx context.Context, prefs Preferences, cinemaIDs []string, topK int) ([]Scored, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	if len(cinemaIDs) == 0 {
		return []Scored{}, nil
	}

	candidates, err := e.store.Find(ctx, catalog.Filter{CinemaIDs: cinemaIDs})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []Scored{}, nil
	}

	queryText := QueryText(prefs)
	queryVec, err := e.embedder.Embed(ctx, queryText)
	if err != nil {
		e.logger.Warn("query embedding failed, falling back to catalog order",
			zap.String("query", queryText),
			zap.Error(err),
		)
		return fallback(candidates, topK), nil
	}

	ranked := rank(candidates, queryVec)
	if len(ranked) == 0 {
		// Candidates existed but none could be scored (bad stored vectors).
		return fallback(candidates, topK), nil
	}

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	e.logger.Debug("retrieval complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", len(ranked)),
		zap.Float64("top_score", ranked[0].Score),
	)

	return ranked, nil
}

// rank scores every candidate against the query vector and sorts descending
// by score, breaking ties by descending rating and then ascending composite
// id so results are deterministic.
func rank(candidates []catalog.FilmRecord, queryVec []float32) []Scored {
	scored := make([]Scored, 0, len(candidates))
	for _, rec := range candidates {
		score, ok := cosine(queryVec, rec.Embedding)
		if !ok {
			continue
		}
		scored = append(scored, Scored{
			FilmRecord: rec.StripEmbedding(),
			Score:      score,
			Ranked:     true,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Rating != scored[j].Rating {
			return scored[i].Rating > scored[j].Rating
		}
		return scored[i].CompositeID < scored[j].CompositeID
	})

	return scored
}

// fallback returns candidates in catalog order with no ranking guarantee.
func fallback(candidates []catalog.FilmRecord, topK int) []Scored {
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	results := make([]Scored, 0, len(candidates))
	for _, rec := range candidates {
		results = append(results, Scored{FilmRecord: rec.StripEmbedding()})
	}
	return results
}

// cosine computes the cosine similarity of two vectors. Both sides are
// normalized explicitly so ranking stays scale-invariant even if the
// provider returns unnormalized vectors. Returns ok=false for mismatched or
// zero-magnitude inputs.
func cosine(a, b []float32) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, false
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
