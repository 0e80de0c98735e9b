package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/marqueeco/marquee/pkg/cinema"
	"github.com/marqueeco/marquee/pkg/recommend"
	"github.com/marqueeco/marquee/pkg/session"
)

// RecommendRequest is the body of POST /v1/recommend.
type RecommendRequest struct {
	// SessionID scopes the request to a session's accumulated preferences.
	// Optional; stateless requests carry their preferences inline.
	SessionID string `json:"session_id,omitempty"`

	// Preferences are merged on top of the session's stored preferences
	// (and persisted when a session id is given).
	Preferences *recommend.Preferences `json:"preferences,omitempty"`

	// PostalCode overrides the preference postal code for this request.
	PostalCode string `json:"postal_code,omitempty"`

	// TopK overrides the configured result count.
	TopK int `json:"top_k,omitempty"`
}

// RecommendResponse is the body returned by POST /v1/recommend.
type RecommendResponse struct {
	Cinemas []cinema.Cinema       `json:"cinemas"`
	Films   []recommend.Scored    `json:"films"`
	Query   recommend.Preferences `json:"query"`
}

// handleRecommend handles POST /v1/recommend.
func (s *Server) handleRecommend(c *fiber.Ctx) error {
	var req RecommendRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	prefs, status, err := s.resolvePreferences(c, &req)
	if err != nil {
		return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
	}

	postalCode := req.PostalCode
	if postalCode == "" && prefs.PostalCode != nil {
		postalCode = *prefs.PostalCode
	}
	if postalCode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "a postal code is required to locate cinemas"})
	}

	cinemas, err := s.directory.FindByPostalCode(c.Context(), postalCode)
	if err != nil {
		s.logger.Error("failed to look up cinemas", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to look up cinemas"})
	}

	cinemaIDs := make([]string, 0, len(cinemas))
	for _, cin := range cinemas {
		cinemaIDs = append(cinemaIDs, cin.ID)
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.config.TopK
	}

	films, err := s.engine.Retrieve(c.Context(), prefs, cinemaIDs, topK)
	if err != nil {
		s.logger.Error("retrieval failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "retrieval failed"})
	}

	if cinemas == nil {
		cinemas = []cinema.Cinema{}
	}

	return c.JSON(RecommendResponse{
		Cinemas: cinemas,
		Films:   films,
		Query:   prefs,
	})
}

// resolvePreferences combines session preferences with the inline ones.
// Inline preferences are persisted to the session when one is given.
func (s *Server) resolvePreferences(c *fiber.Ctx, req *RecommendRequest) (recommend.Preferences, int, error) {
	if req.SessionID == "" {
		var prefs recommend.Preferences
		if req.Preferences != nil {
			prefs = *req.Preferences
		}
		return prefs, 0, nil
	}

	if req.Preferences != nil {
		merged, err := s.sessions.MergePreferences(c.Context(), req.SessionID, *req.Preferences)
		if errors.Is(err, session.ErrNotFound) {
			return recommend.Preferences{}, fiber.StatusNotFound, errors.New("session not found")
		}
		if err != nil {
			s.logger.Error("failed to merge preferences", zap.Error(err))
			return recommend.Preferences{}, fiber.StatusInternalServerError, errors.New("failed to merge preferences")
		}
		return *merged, 0, nil
	}

	sess, err := s.sessions.Get(c.Context(), req.SessionID)
	if errors.Is(err, session.ErrNotFound) {
		return recommend.Preferences{}, fiber.StatusNotFound, errors.New("session not found")
	}
	if err != nil {
		s.logger.Error("failed to get session", zap.Error(err))
		return recommend.Preferences{}, fiber.StatusInternalServerError, errors.New("failed to get session")
	}

	return sess.Preferences, 0, nil
}
