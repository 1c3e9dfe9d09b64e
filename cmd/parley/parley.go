// Package parleycmder is the root of the parley command tree.
package parleycmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/parley/cmd/parley/chat"
	configcmder "github.com/papercomputeco/parley/cmd/parley/config"
	initcmder "github.com/papercomputeco/parley/cmd/parley/init"
	servecmder "github.com/papercomputeco/parley/cmd/parley/serve"
	sessionscmder "github.com/papercomputeco/parley/cmd/parley/sessions"
	versioncmder "github.com/papercomputeco/parley/cmd/version"
)

const parleyLongDesc string = `Parley is a conversational agent backend.

It keeps conversation history, calls tools on the model's behalf and
remembers facts about users across conversations.

Get started:
  parley init          Create a .parley directory with a default config
  parley serve         Run the API server
  parley chat          Chat with a running server
  parley sessions      List, show and delete conversations`

const parleyShortDesc string = "Parley - conversational agent backend"

func NewParleyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "parley",
		Short:        parleyShortDesc,
		Long:         parleyLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .parley config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(sessionscmder.NewSessionsCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
