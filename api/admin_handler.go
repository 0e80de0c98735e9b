package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/marqueeco/marquee/pkg/catalog"
	"github.com/marqueeco/marquee/pkg/embeddings"
	"github.com/marqueeco/marquee/pkg/ingest"
)

// clearConfirmToken must be sent verbatim to wipe the catalog.
const clearConfirmToken = "YES_DELETE_ALL"

// RefreshRequest is the body of POST /v1/admin/refresh.
type RefreshRequest struct {
	// CinemaIDs scopes the refresh; empty means every cinema in the directory.
	CinemaIDs []string `json:"cinema_ids,omitempty"`
}

// handleRefresh handles POST /v1/admin/refresh. The run executes in the
// background; poll /v1/admin/refresh/status for the outcome.
func (s *Server) handleRefresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
		}
	}

	// The run outlives the HTTP request on purpose.
	err := s.runner.StartRefresh(context.Background(), req.CinemaIDs)
	if errors.Is(err, ingest.ErrRunInProgress) {
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: "a refresh run is already in progress"})
	}
	if err != nil {
		s.logger.Error("failed to start refresh", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to start refresh"})
	}

	return c.Status(fiber.StatusAccepted).JSON(map[string]any{
		"status": "started",
	})
}

// handleRefreshStatus handles GET /v1/admin/refresh/status.
func (s *Server) handleRefreshStatus(c *fiber.Ctx) error {
	return c.JSON(map[string]any{
		"state":       s.runner.State(),
		"last_result": s.runner.LastResult(),
	})
}

// handleStats handles GET /v1/admin/stats.
func (s *Server) handleStats(c *fiber.Ctx) error {
	stats, err := s.catalog.Stats(c.Context())
	if err != nil {
		s.logger.Error("failed to get catalog stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to get catalog stats"})
	}

	cinemaCount, err := s.directory.Count(c.Context())
	if err != nil {
		s.logger.Error("failed to count cinemas", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to count cinemas"})
	}

	return c.JSON(map[string]any{
		"total_films":     stats.TotalFilms,
		"films_by_cinema": stats.FilmsByCinema,
		"films_by_week":   stats.FilmsByWeek,
		"cinema_count":    cinemaCount,
		"pipeline_state":  s.runner.State(),
	})
}

// sampleFilmResponse carries one record with its embedding replaced by a
// short preview, for eyeballing what the pipeline stored.
type sampleFilmResponse struct {
	catalog.FilmRecord
	EmbeddingPreview []float32 `json:"embedding_preview"`
	EmbeddingLength  int       `json:"embedding_length"`
}

// handleSampleFilm handles GET /v1/admin/films/:composite_id.
func (s *Server) handleSampleFilm(c *fiber.Ctx) error {
	id := c.Params("composite_id")

	rec, err := s.catalog.Get(c.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "film not found"})
	}
	if err != nil {
		s.logger.Error("failed to get film", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to get film"})
	}

	preview := rec.Embedding
	if len(preview) > 5 {
		preview = preview[:5]
	}
	if preview == nil {
		preview = []float32{}
	}

	resp := sampleFilmResponse{
		FilmRecord:       rec.StripEmbedding(),
		EmbeddingPreview: preview,
		EmbeddingLength:  len(rec.Embedding),
	}

	// Sanity signal for operators: a stored record should always carry a
	// full-width embedding.
	if len(rec.Embedding) != embeddings.Dimensions {
		s.logger.Warn("stored film has unexpected embedding length",
			zap.String("composite_id", id),
			zap.Int("length", len(rec.Embedding)),
		)
	}

	return c.JSON(resp)
}

// ClearRequest is the body of DELETE /v1/admin/films.
type ClearRequest struct {
	Confirm string `json:"confirm"`
}

// handleClearCatalog handles DELETE /v1/admin/films.
func (s *Server) handleClearCatalog(c *fiber.Ctx) error {
	var req ClearRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	if req.Confirm != clearConfirmToken {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "confirmation required: set confirm to " + clearConfirmToken,
		})
	}

	deleted, err := s.catalog.DeleteAll(c.Context())
	if err != nil {
		s.logger.Error("failed to clear catalog", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to clear catalog"})
	}

	s.logger.Warn("catalog cleared", zap.Int("deleted", deleted))

	return c.JSON(map[string]any{
		"deleted": deleted,
	})
}
