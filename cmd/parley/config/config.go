// Package configcmder provides the config command for managing persistent
// parley configuration stored in the .parley/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent parley configuration.

Configuration is stored as config.toml in the .parley/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure, for example:
  storage.provider, storage.sqlite_path,
  llm.provider, llm.model, llm.temperature,
  api.listen, client.api_target,
  vector_store.provider, embedding.model,
  memory.enabled, agent.max_tool_rounds,
  tools.openweather_api_key, eventstream.brokers

Run "parley config list" for every key.

Use subcommands to get, set, or list configuration values:
  parley config set <key> <value>    Set a configuration value
  parley config get <key>            Get a configuration value
  parley config list                 List all configuration values

Examples:
  parley config set llm.provider gemini
  parley config set agent.turn_timeout 90s
  parley config set eventstream.brokers localhost:9092,localhost:9093
  parley config get llm.provider
  parley config list`

const configShortDesc string = "Manage persistent parley configuration"

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
