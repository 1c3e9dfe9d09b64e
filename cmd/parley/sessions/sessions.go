// Package sessionscmder provides the sessions command for listing, showing
// and deleting conversations on a running parley server.
package sessionscmder

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/parley/api"
	"github.com/papercomputeco/parley/pkg/cliui"
	"github.com/papercomputeco/parley/pkg/client"
	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/dotdir"
	"github.com/papercomputeco/parley/pkg/utils"
)

const (
	previewLen = 72
	timeLayout = "2006-01-02 15:04"
)

type sessionsCommander struct {
	apiTarget string
	configDir string

	skip  int
	limit int
	quiet bool
	plain bool

	out io.Writer
}

const sessionsLongDesc string = `Manage conversations stored by a parley server.

Subcommands:
  parley sessions list           List conversations, most recently active first
  parley sessions show <id>      Print a conversation's messages
  parley sessions delete <id>    Delete a conversation and its messages`

const sessionsShortDesc string = "Manage conversations"

func NewSessionsCmd() *cobra.Command {
	cmder := &sessionsCommander{}

	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"conversations"},
		Short:   sessionsShortDesc,
		Long:    sessionsLongDesc,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.ClientFlags, []string{config.FlagAPITarget})
			cmder.apiTarget = v.GetString("client.api_target")
			cmder.out = cmd.OutOrStdout()
			return nil
		},
	}

	config.AddPersistentStringFlag(cmd, config.ClientFlags, config.FlagAPITarget, new(string))

	cmd.AddCommand(newListCmd(cmder))
	cmd.AddCommand(newShowCmd(cmder))
	cmd.AddCommand(newDeleteCmd(cmder))

	return cmd
}

func newListCmd(cmder *sessionsCommander) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.list(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&cmder.skip, "skip", 0, "Number of conversations to skip")
	cmd.Flags().IntVar(&cmder.limit, "limit", 20, "Maximum number of conversations to list")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Print only conversation IDs, one per line")
	return cmd
}

func newShowCmd(cmder *sessionsCommander) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.show(cmd.Context(), args[0], !cmder.plain && cliui.IsTerminal(os.Stdout))
		},
	}
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Print messages without markdown rendering")
	return cmd
}

func newDeleteCmd(cmder *sessionsCommander) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.delete(cmd.Context(), args[0])
		},
	}
}

func (c *sessionsCommander) newClient() (*client.Client, error) {
	return client.New(client.Config{BaseURL: c.apiTarget})
}

func (c *sessionsCommander) list(ctx context.Context) error {
	cl, err := c.newClient()
	if err != nil {
		return err
	}

	convs, err := cl.ListConversations(ctx, c.skip, c.limit)
	if err != nil {
		return err
	}

	if c.quiet {
		for _, conv := range convs {
			fmt.Fprintln(c.out, conv.ID)
		}
		return nil
	}

	if len(convs) == 0 {
		fmt.Fprintln(c.out, "No conversations found.")
		return nil
	}

	fmt.Fprintln(c.out)
	for _, conv := range convs {
		fmt.Fprintf(c.out, "  %s  %s\n",
			cliui.IDStyle.Render(conv.ID),
			cliui.DimStyle.Render("updated "+conv.UpdatedAt.Local().Format(timeLayout)),
		)
		if conv.SystemPrompt != "" {
			fmt.Fprintf(c.out, "  %s %s\n",
				cliui.KeyStyle.Render("system:"),
				cliui.ValueStyle.Render(preview(conv.SystemPrompt)),
			)
		}
	}
	fmt.Fprintln(c.out)
	return nil
}

func (c *sessionsCommander) show(ctx context.Context, id string, render bool) error {
	cl, err := c.newClient()
	if err != nil {
		return err
	}

	msgs, err := cl.GetConversation(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\n  %s %s %s\n\n",
		cliui.KeyStyle.Render("Conversation"),
		cliui.IDStyle.Render(id),
		cliui.DimStyle.Render(fmt.Sprintf("(%d messages)", len(msgs))),
	)
	for _, m := range msgs {
		c.printMessage(m, render)
	}
	return nil
}

func (c *sessionsCommander) printMessage(m api.Message, render bool) {
	label := cliui.KeyStyle.Render(m.Role)
	if m.Role == "user" {
		label = cliui.UserStyle.Render(m.Role)
	}
	fmt.Fprintf(c.out, "  %s %s\n", label, cliui.DimStyle.Render(m.Timestamp.Local().Format(timeLayout)))

	content := m.Content
	if render && m.Role == "assistant" {
		if rendered, err := cliui.RenderMarkdown(content, cliui.WrapWidth(os.Stdout)); err == nil {
			content = strings.TrimRight(rendered, "\n")
		}
	}
	fmt.Fprintf(c.out, "%s\n\n", indent(content))
}

func (c *sessionsCommander) delete(ctx context.Context, id string) error {
	cl, err := c.newClient()
	if err != nil {
		return err
	}

	if err := cl.DeleteConversation(ctx, id); err != nil {
		return err
	}

	// Forget the chat REPL's conversation if it was the one deleted.
	ddm := dotdir.NewManager()
	state, err := ddm.LoadChatState(c.configDir)
	if err == nil && state != nil && state.ConversationID == id {
		if err := ddm.ClearChatState(c.configDir); err != nil {
			return fmt.Errorf("clearing chat state: %w", err)
		}
	}

	fmt.Fprintf(c.out, "  %s Deleted conversation %s\n", cliui.SuccessMark, cliui.IDStyle.Render(id))
	return nil
}

func preview(s string) string {
	return strings.ReplaceAll(utils.Truncate(s, previewLen), "\n", " ")
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}
