// Package servecmder provides the serve command for running the API server.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/marqueeco/marquee/api"
	catalogutils "github.com/marqueeco/marquee/pkg/catalog/utils"
	"github.com/marqueeco/marquee/pkg/cinema"
	"github.com/marqueeco/marquee/pkg/config"
	embeddingutils "github.com/marqueeco/marquee/pkg/embeddings/utils"
	"github.com/marqueeco/marquee/pkg/ingest"
	"github.com/marqueeco/marquee/pkg/logger"
	"github.com/marqueeco/marquee/pkg/recommend"
	"github.com/marqueeco/marquee/pkg/scrape/mcp"
	sessionutils "github.com/marqueeco/marquee/pkg/session/utils"
)

type ServeCommander struct {
	listen        string
	storageDriver string
	sqlitePath    string
	cinemasPath   string
	debug         bool
	logger        *zap.Logger
}

const serveLongDesc string = `Run the Marquee API server.

Serves session management, recommendations and catalog administration over
HTTP. Catalog refreshes are triggered through the admin endpoints or with
"marquee refresh".`

const serveShortDesc string = "Run the Marquee API server"

var serveFlags = config.FlagSet{
	config.FlagAPIListen: {
		Name: "listen", Shorthand: "l", ViperKey: "api.listen",
		Description: "Address for the API server to listen on",
	},
	config.FlagStorageDriver: {
		Name: "storage-driver", ViperKey: "storage.driver",
		Description: "Catalog storage driver (sqlite, memory)",
	},
	config.FlagSQLite: {
		Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path",
		Description: "Path to SQLite database (default: in-memory)",
	},
	config.FlagCinemasPath: {
		Name: "cinemas", ViperKey: "cinemas.path",
		Description: "Path to the cinema directory JSON file",
	},
}

var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagStorageDriver,
	config.FlagSQLite,
	config.FlagCinemasPath,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, serveFlags, serveFlagKeys)

			return cmder.run(v)
		},
	}

	config.AddStringFlag(cmd, serveFlags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, serveFlags, config.FlagStorageDriver, &cmder.storageDriver)
	config.AddStringFlag(cmd, serveFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, serveFlags, config.FlagCinemasPath, &cmder.cinemasPath)

	return cmd
}

func (c *ServeCommander) run(v *viper.Viper) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	ctx := context.Background()

	store, err := catalogutils.NewStore(&catalogutils.NewStoreOpts{
		Driver:     v.GetString("storage.driver"),
		SQLitePath: v.GetString("storage.sqlite_path"),
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating catalog store: %w", err)
	}
	defer store.Close()

	sessions, err := sessionutils.NewStore(ctx, &sessionutils.NewStoreOpts{
		StoreType: v.GetString("session.provider"),
		Addr:      v.GetString("session.redis_addr"),
		Password:  v.GetString("session.redis_password"),
		DB:        v.GetInt("session.redis_db"),
		TTL:       time.Duration(v.GetUint("session.ttl_hours")) * time.Hour,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating session store: %w", err)
	}
	defer sessions.Close()

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: v.GetString("embedding.provider"),
		TargetURL:    v.GetString("embedding.target"),
		Model:        v.GetString("embedding.model"),
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	source, err := newScrapeSource(v, c.logger)
	if err != nil {
		return err
	}

	directory, err := loadDirectory(v, c.logger)
	if err != nil {
		return err
	}

	engine := recommend.NewEngine(store, embedder, c.logger)

	runner := ingest.NewRunner(&ingest.RunnerOpts{
		Source:    source,
		Embedder:  embedder,
		Store:     store,
		Directory: directory,
		Logger:    c.logger,
		BatchSize: int(v.GetUint("scraper.batch_size")),
	})

	apiConfig := api.Config{
		ListenAddr: v.GetString("api.listen"),
		TopK:       int(v.GetUint("recommend.top_k")),
	}
	server := api.NewServer(apiConfig, store, sessions, engine, directory, runner, c.logger)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}

// newScrapeSource builds the subprocess scrape source from the configured
// command line.
func newScrapeSource(v *viper.Viper, log *zap.Logger) (*mcp.Source, error) {
	fields := strings.Fields(v.GetString("scraper.command"))
	if len(fields) == 0 {
		return nil, fmt.Errorf("scraper.command is not configured")
	}

	return mcp.NewSource(mcp.Config{
		Command: fields[0],
		Args:    fields[1:],
		Timeout: time.Duration(v.GetUint("scraper.timeout_minutes")) * time.Minute,
	}, log)
}

// loadDirectory loads the cinema directory file, or an empty directory when
// none is configured.
func loadDirectory(v *viper.Viper, log *zap.Logger) (cinema.Directory, error) {
	path := v.GetString("cinemas.path")
	if path == "" {
		log.Warn("no cinema directory configured, recommendations will find no cinemas")
		return cinema.NewStaticDirectory(nil), nil
	}

	directory, err := cinema.LoadDirectory(path)
	if err != nil {
		return nil, fmt.Errorf("loading cinema directory: %w", err)
	}

	return directory, nil
}
