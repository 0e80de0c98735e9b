package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/marqueeco/marquee/pkg/recommend"
	"github.com/marqueeco/marquee/pkg/session"
)

// handleCreateSession handles POST /v1/sessions.
func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	sess, err := s.sessions.Create(c.Context())
	if err != nil {
		s.logger.Error("failed to create session", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to create session"})
	}

	return c.Status(fiber.StatusCreated).JSON(sess)
}

// handleGetSession handles GET /v1/sessions/:id.
func (s *Server) handleGetSession(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c.Context(), c.Params("id"))
	if errors.Is(err, session.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}
	if err != nil {
		s.logger.Error("failed to get session", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to get session"})
	}

	return c.JSON(sess)
}

// handleAppendMessage handles POST /v1/sessions/:id/messages.
func (s *Server) handleAppendMessage(c *fiber.Ctx) error {
	var msg session.Message
	if err := c.BodyParser(&msg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid message body"})
	}
	if msg.Role == "" || msg.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "role and content are required"})
	}

	err := s.sessions.AppendMessage(c.Context(), c.Params("id"), msg)
	if errors.Is(err, session.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}
	if err != nil {
		s.logger.Error("failed to append message", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to append message"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// handleMergePreferences handles PATCH /v1/sessions/:id/preferences.
func (s *Server) handleMergePreferences(c *fiber.Ctx) error {
	var partial recommend.Preferences
	if err := c.BodyParser(&partial); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid preferences body"})
	}

	merged, err := s.sessions.MergePreferences(c.Context(), c.Params("id"), partial)
	if errors.Is(err, session.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}
	if err != nil {
		s.logger.Error("failed to merge preferences", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to merge preferences"})
	}

	return c.JSON(merged)
}

// handleHistory handles GET /v1/sessions/:id/history.
// Query parameters:
//   - limit (optional, default 10): number of most recent messages to return
func (s *Server) handleHistory(c *fiber.Ctx) error {
	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "limit must be a positive integer"})
		}
		limit = parsed
	}

	history, err := s.sessions.RecentHistory(c.Context(), c.Params("id"), limit)
	if errors.Is(err, session.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}
	if err != nil {
		s.logger.Error("failed to get history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to get history"})
	}

	return c.JSON(map[string]any{
		"count":    len(history),
		"messages": history,
	})
}

// handleDeleteSession handles DELETE /v1/sessions/:id.
func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	if err := s.sessions.Delete(c.Context(), c.Params("id")); err != nil {
		s.logger.Error("failed to delete session", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to delete session"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
