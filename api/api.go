package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/marqueeco/marquee/pkg/catalog"
	"github.com/marqueeco/marquee/pkg/cinema"
	"github.com/marqueeco/marquee/pkg/ingest"
	"github.com/marqueeco/marquee/pkg/recommend"
	"github.com/marqueeco/marquee/pkg/session"
)

// Server is the API server for the recommendation system.
type Server struct {
	config    Config
	catalog   catalog.Store
	sessions  session.Store
	engine    *recommend.Engine
	directory cinema.Directory
	runner    *ingest.Runner
	logger    *zap.Logger
	app       *fiber.App
}

// NewServer creates a new API server. The stores are injected to allow
// sharing with the CLI commands that operate on the same catalog.
func NewServer(
	config Config,
	catalogStore catalog.Store,
	sessionStore session.Store,
	engine *recommend.Engine,
	directory cinema.Directory,
	runner *ingest.Runner,
	logger *zap.Logger,
) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:    config,
		catalog:   catalogStore,
		sessions:  sessionStore,
		engine:    engine,
		directory: directory,
		runner:    runner,
		logger:    logger,
		app:       app,
	}

	app.Get("/ping", s.handlePing)

	app.Post("/v1/sessions", s.handleCreateSession)
	app.Get("/v1/sessions/:id", s.handleGetSession)
	app.Post("/v1/sessions/:id/messages", s.handleAppendMessage)
	app.Patch("/v1/sessions/:id/preferences", s.handleMergePreferences)
	app.Get("/v1/sessions/:id/history", s.handleHistory)
	app.Delete("/v1/sessions/:id", s.handleDeleteSession)

	app.Post("/v1/recommend", s.handleRecommend)

	app.Post("/v1/admin/refresh", s.handleRefresh)
	app.Get("/v1/admin/refresh/status", s.handleRefreshStatus)
	app.Get("/v1/admin/stats", s.handleStats)
	app.Get("/v1/admin/films/:composite_id", s.handleSampleFilm)
	app.Delete("/v1/admin/films", s.handleClearCatalog)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
