package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/parley/pkg/cliui"
	"github.com/papercomputeco/parley/pkg/config"
)

const listLongDesc string = `List configuration values grouped by section.

Accepts the same --resolved and --show-secrets flags as "parley config get".
Use --section to show a single section.

Examples:
  parley config list
  parley config list --section agent --resolved`

const listShortDesc string = "List configuration values"

func newListCmd() *cobra.Command {
	src := &source{}
	var section string

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src.configDir, _ = cmd.Flags().GetString("config-dir")
			return runList(cmd, *src, section)
		},
	}

	cmd.Flags().BoolVar(&src.resolved, "resolved", false, "Show effective values after environment and defaults")
	cmd.Flags().BoolVar(&src.showSecrets, "show-secrets", false, "Print credentials unmasked")
	cmd.Flags().StringVar(&section, "section", "", "Only list keys of this section (e.g. llm, agent)")

	return cmd
}

func runList(cmd *cobra.Command, src source, section string) error {
	var keys []string
	for _, key := range config.ValidConfigKeys() {
		if section == "" || config.KeySection(key) == section {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return fmt.Errorf("unknown config section: %q", section)
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

	current := "-"
	for _, key := range keys {
		if s := config.KeySection(key); s != current {
			if current != "-" {
				fmt.Fprintln(w)
			}
			current = s
			if s != "" {
				fmt.Fprintf(w, "  %s\n", cliui.NameStyle.Render("["+s+"]"))
			}
		}

		value, err := config.ValueOf(cfg, key)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "    %s  %s\n", cliui.KeyStyle.Render(fmt.Sprintf("%-*s", width, key)), src.display(key, value))
	}
	fmt.Fprintln(w)

	return nil
}
