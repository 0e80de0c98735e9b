// Package configcmder provides the config command for managing persistent
// marquee configuration stored in the .marquee/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent marquee configuration.

Configuration is stored as config.toml in the .marquee/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  storage.driver, storage.sqlite_path,
  api.listen,
  embedding.provider, embedding.target, embedding.model,
  scraper.command, scraper.timeout_minutes, scraper.batch_size,
  session.provider, session.redis_addr, session.redis_password,
  session.redis_db, session.ttl_hours,
  cinemas.path, recommend.top_k

Use subcommands to get, set, or list configuration values:
  marquee config set <key> <value>    Set a configuration value
  marquee config get <key>            Get a configuration value
  marquee config list                 List all configuration values

Examples:
  marquee config set embedding.model mxbai-embed-large
  marquee config set session.provider redis
  marquee config get api.listen
  marquee config list`

const configShortDesc string = "Manage persistent marquee configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
