// Package marqueecmder
package marqueecmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/marqueeco/marquee/cmd/marquee/config"
	refreshcmder "github.com/marqueeco/marquee/cmd/marquee/refresh"
	servecmder "github.com/marqueeco/marquee/cmd/marquee/serve"
	statscmder "github.com/marqueeco/marquee/cmd/marquee/stats"
)

const marqueeLongDesc string = `Marquee recommends films playing near you.

Run services using:
  marquee serve        Run the API server
  marquee refresh      Run a catalog refresh once
  marquee stats        Show catalog statistics`

const marqueeShortDesc string = "Marquee - Cinema Recommendations"

func NewMarqueeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "marquee",
		Short: marqueeShortDesc,
		Long:  marqueeLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .marquee/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(refreshcmder.NewRefreshCmd())
	cmd.AddCommand(statscmder.NewStatsCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())

	return cmd
}
