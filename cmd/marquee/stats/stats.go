// Package statscmder provides the stats command for inspecting the catalog.
package statscmder

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	catalogutils "github.com/marqueeco/marquee/pkg/catalog/utils"
	"github.com/marqueeco/marquee/pkg/cliui"
	"github.com/marqueeco/marquee/pkg/config"
	"github.com/marqueeco/marquee/pkg/logger"
)

type StatsCommander struct {
	storageDriver string
	sqlitePath    string
	debug         bool
}

const statsLongDesc string = `Show catalog statistics.

Displays record counts per cinema and per week from the catalog store.

Examples:
  marquee stats
  marquee stats --sqlite ~/.marquee/marquee.db`

const statsShortDesc string = "Show catalog statistics"

var statsFlags = config.FlagSet{
	config.FlagStorageDriver: {
		Name: "storage-driver", ViperKey: "storage.driver",
		Description: "Catalog storage driver (sqlite, memory)",
	},
	config.FlagSQLite: {
		Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path",
		Description: "Path to SQLite database (default: in-memory)",
	},
}

var statsFlagKeys = []string{
	config.FlagStorageDriver,
	config.FlagSQLite,
}

func NewStatsCmd() *cobra.Command {
	cmder := &StatsCommander{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: statsShortDesc,
		Long:  statsLongDesc,
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
			config.BindRegisteredFlags(v, cmd, statsFlags, statsFlagKeys)

			return cmder.run(v)
		},
	}

	config.AddStringFlag(cmd, statsFlags, config.FlagStorageDriver, &cmder.storageDriver)
	config.AddStringFlag(cmd, statsFlags, config.FlagSQLite, &cmder.sqlitePath)

	return cmd
}

func (c *StatsCommander) run(v *viper.Viper) error {
	log := logger.NewLogger(c.debug)
	defer log.Sync()

	store, err := catalogutils.NewStore(&catalogutils.NewStoreOpts{
		Driver:     v.GetString("storage.driver"),
		SQLitePath: v.GetString("storage.sqlite_path"),
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("creating catalog store: %w", err)
	}
	defer store.Close()

	stats, err := store.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("reading catalog stats: %w", err)
	}

	fmt.Printf("\n  %s %d\n\n",
		cliui.KeyStyle.Render("Total films:"),
		stats.TotalFilms,
	)

	cinemaIDs := make([]string, 0, len(stats.FilmsByCinema))
	for id := range stats.FilmsByCinema {
		cinemaIDs = append(cinemaIDs, id)
	}
	sort.Strings(cinemaIDs)

	fmt.Printf("  %s\n", cliui.KeyStyle.Render("By cinema:"))
	for _, id := range cinemaIDs {
		fmt.Printf("    %s %d\n", cliui.DimStyle.Render(id+":"), stats.FilmsByCinema[id])
	}

	weeks := make([]int, 0, len(stats.FilmsByWeek))
	for week := range stats.FilmsByWeek {
		weeks = append(weeks, week)
	}
	sort.Ints(weeks)

	fmt.Printf("\n  %s\n", cliui.KeyStyle.Render("By week:"))
	for _, week := range weeks {
		fmt.Printf("    %s %d\n", cliui.DimStyle.Render(fmt.Sprintf("%d:", week)), stats.FilmsByWeek[week])
	}
	fmt.Println()

	return nil
}
