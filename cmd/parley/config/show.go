package configcmder

import (
	"fmt"
	"io"

	"github.com/papercomputeco/parley/pkg/cliui"
	"github.com/papercomputeco/parley/pkg/config"
)

// source decides where displayed values come from.
type source struct {
	configDir   string
	resolved    bool
	showSecrets bool
}

// load returns the config to display and a description of where it came from.
// Resolved values go through the same flag > env > file > default chain as
// "parley serve".
func (s source) load() (*config.Config, string, error) {
	if s.resolved {
		v, err := config.InitViper(s.configDir)
		if err != nil {
			return nil, "", fmt.Errorf("loading config: %w", err)
		}
		origin := "defaults and PARLEY_* environment"
		if f := v.ConfigFileUsed(); f != "" {
			origin = f + ", defaults and PARLEY_* environment"
		}
		return config.FromViper(v), origin, nil
	}

	cfger, err := config.NewConfiger(s.configDir)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	cfg, err := cfger.LoadConfig()
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	return cfg, cfger.GetTarget(), nil
}

func (s source) display(key, value string) string {
	if value == "" {
		return cliui.DimStyle.Render("<not set>")
	}
	if config.IsSecretKey(key) && !s.showSecrets {
		return cliui.DimStyle.Render(maskSecret(value))
	}
	return cliui.ValueStyle.Render(value)
}

func printOrigin(w io.Writer, origin string) {
	if origin == "" {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
		return
	}
	fmt.Fprintf(w, "\n  %s %s\n\n", cliui.KeyStyle.Render("Config from:"), cliui.DimStyle.Render(origin))
}

// maskSecret keeps enough of a credential to tell two apart.
func maskSecret(v string) string {
	const visible = 4
	if len(v) <= visible*2 {
		return "********"
	}
	return v[:visible] + "********"
}
