package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/parley/pkg/cliui"
	"github.com/papercomputeco/parley/pkg/config"
)

const getLongDesc string = `Get one or more configuration values.

By default values are read from config.toml in the .parley/ directory.
With --resolved, the value parley serve would actually use is shown:
PARLEY_* environment variables and built-in defaults are applied.

Credentials (API keys, database URLs) are masked unless --show-secrets
is given.

Examples:
  parley config get llm.provider
  parley config get llm.provider llm.model --resolved
  parley config get llm.api_key --show-secrets`

const getShortDesc string = "Get configuration values"

func newGetCmd() *cobra.Command {
	src := &source{}

	cmd := &cobra.Command{
		Use:   "get <key> [key...]",
		Short: getShortDesc,
		Long:  getLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src.configDir, _ = cmd.Flags().GetString("config-dir")
			return runGet(cmd, *src, args)
		},
		ValidArgsFunction: func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
		},
	}

	cmd.Flags().BoolVar(&src.resolved, "resolved", false, "Show effective values after environment and defaults")
	cmd.Flags().BoolVar(&src.showSecrets, "show-secrets", false, "Print credentials unmasked")

	return cmd
}

func runGet(cmd *cobra.Command, src source, keys []string) error {
	for _, key := range keys {
		if !config.IsValidConfigKey(key) {
			return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
				key, strings.Join(config.ValidConfigKeys(), ", "))
		}
	}

	cfg, origin, err := src.load()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	printOrigin(w, origin)

	width := 0
	for _, key := range keys {
		width = max(width, len(key))
	}
	for _, key := range keys {
		value, err := config.ValueOf(cfg, key)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s  %s\n", cliui.KeyStyle.Render(fmt.Sprintf("%-*s", width, key)), src.display(key, value))
	}
	fmt.Fprintln(w)

	return nil
}
