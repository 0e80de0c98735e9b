// Package refreshcmder provides the refresh command for running one catalog
// refresh from the CLI.
package refreshcmder

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	catalogutils "github.com/marqueeco/marquee/pkg/catalog/utils"
	"github.com/marqueeco/marquee/pkg/cinema"
	"github.com/marqueeco/marquee/pkg/cliui"
	"github.com/marqueeco/marquee/pkg/config"
	embeddingutils "github.com/marqueeco/marquee/pkg/embeddings/utils"
	"github.com/marqueeco/marquee/pkg/ingest"
	"github.com/marqueeco/marquee/pkg/logger"
	"github.com/marqueeco/marquee/pkg/scrape/mcp"
)

type RefreshCommander struct {
	cinemaIDs     []string
	storageDriver string
	sqlitePath    string
	cinemasPath   string
	debug         bool
	logger        *zap.Logger
}

const refreshLongDesc string = `Run one catalog refresh.

Scrapes the configured cinemas, embeds the films and upserts them into the
catalog, then prunes records older than the retention window.

Examples:
  marquee refresh
  marquee refresh --cinemas 57,58`

const refreshShortDesc string = "Run one catalog refresh"

var refreshFlags = config.FlagSet{
	config.FlagStorageDriver: {
		Name: "storage-driver", ViperKey: "storage.driver",
		Description: "Catalog storage driver (sqlite, memory)",
	},
	config.FlagSQLite: {
		Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path",
		Description: "Path to SQLite database (default: in-memory)",
	},
	config.FlagCinemasPath: {
		Name: "cinemas-file", ViperKey: "cinemas.path",
		Description: "Path to the cinema directory JSON file",
	},
}

var refreshFlagKeys = []string{
	config.FlagStorageDriver,
	config.FlagSQLite,
	config.FlagCinemasPath,
}

func NewRefreshCmd() *cobra.Command {
	cmder := &RefreshCommander{}

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: refreshShortDesc,
		Long:  refreshLongDesc,
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
			config.BindRegisteredFlags(v, cmd, refreshFlags, refreshFlagKeys)

			return cmder.run(v)
		},
	}

	cmd.Flags().StringSliceVar(&cmder.cinemaIDs, "cinemas", nil, "Cinema ids to refresh (default: all)")
	config.AddStringFlag(cmd, refreshFlags, config.FlagStorageDriver, &cmder.storageDriver)
	config.AddStringFlag(cmd, refreshFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, refreshFlags, config.FlagCinemasPath, &cmder.cinemasPath)

	return cmd
}

func (c *RefreshCommander) run(v *viper.Viper) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	store, err := catalogutils.NewStore(&catalogutils.NewStoreOpts{
		Driver:     v.GetString("storage.driver"),
		SQLitePath: v.GetString("storage.sqlite_path"),
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating catalog store: %w", err)
	}
	defer store.Close()

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: v.GetString("embedding.provider"),
		TargetURL:    v.GetString("embedding.target"),
		Model:        v.GetString("embedding.model"),
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	fields := strings.Fields(v.GetString("scraper.command"))
	if len(fields) == 0 {
		return fmt.Errorf("scraper.command is not configured")
	}
	source, err := mcp.NewSource(mcp.Config{
		Command: fields[0],
		Args:    fields[1:],
		Timeout: time.Duration(v.GetUint("scraper.timeout_minutes")) * time.Minute,
	}, c.logger)
	if err != nil {
		return err
	}

	cinemasPath := v.GetString("cinemas.path")
	if cinemasPath == "" {
		return fmt.Errorf("cinemas.path is not configured")
	}
	directory, err := cinema.LoadDirectory(cinemasPath)
	if err != nil {
		return fmt.Errorf("loading cinema directory: %w", err)
	}

	runner := ingest.NewRunner(&ingest.RunnerOpts{
		Source:    source,
		Embedder:  embedder,
		Store:     store,
		Directory: directory,
		Logger:    c.logger,
		BatchSize: int(v.GetUint("scraper.batch_size")),
	})

	var result *ingest.Result
	err = cliui.Step(os.Stdout, "Refreshing catalog", func() error {
		var runErr error
		result, runErr = runner.Refresh(context.Background(), c.cinemaIDs)
		return runErr
	})
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s Week %s\n",
		cliui.KeyStyle.Render("week:"),
		cliui.ValueStyle.Render(fmt.Sprintf("%d", result.WeekNumber)),
	)
	fmt.Printf("  %s %d scraped, %d batches failed\n",
		cliui.KeyStyle.Render("cinemas:"), result.CinemasScraped, result.BatchesFailed)
	fmt.Printf("  %s %d processed (%d created, %d updated), %d skipped\n",
		cliui.KeyStyle.Render("films:"),
		result.FilmsProcessed, result.Created, result.Updated, result.FilmsSkipped)
	fmt.Printf("  %s %d stale records removed\n\n",
		cliui.KeyStyle.Render("pruned:"), result.Pruned)

	return nil
}
