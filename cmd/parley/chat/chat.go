// Package chatcmder provides the chat command, an interactive REPL against a
// running parley API server.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/parley/api"
	"github.com/papercomputeco/parley/pkg/cliui"
	"github.com/papercomputeco/parley/pkg/client"
	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/dotdir"
	"github.com/papercomputeco/parley/pkg/logger"
	"github.com/papercomputeco/parley/pkg/utils"
)

var (
	userPrompt      = cliui.UserStyle.Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("parley> ")
)

type chatCommander struct {
	apiTarget    string
	configDir    string
	systemPrompt string
	fresh        bool
	plain        bool
	debug        bool

	in     io.Reader
	out    io.Writer
	render bool
	width  int

	client *client.Client
	state  *dotdir.ChatState
	logger *slog.Logger
}

const chatLongDesc string = `Start an interactive chat with a running parley server.

Each line you type is one turn. Replies are rendered as markdown when the
output is a terminal, followed by any sources the assistant used.

The conversation ID is saved in the .parley directory, so running
"parley chat" again resumes the same conversation. Use --new, or type /new
during a chat, to start over.

Commands:
  /new     Start a new conversation
  /exit    Quit (Ctrl+D also works)

Examples:
  parley chat
  parley chat --new --system "You are a terse assistant."
  parley chat --api-target http://localhost:8081`

const chatShortDesc string = "Chat with a parley server"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.ClientFlags, []string{config.FlagAPITarget})
			cmder.apiTarget = v.GetString("client.api_target")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			cmder.render = !cmder.plain && cliui.IsTerminal(os.Stdout)
			cmder.width = cliui.WrapWidth(os.Stdout)
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.ClientFlags, config.FlagAPITarget, &cmder.apiTarget)
	cmd.Flags().BoolVarP(&cmder.fresh, "new", "n", false, "Start a new conversation instead of resuming")
	cmd.Flags().StringVar(&cmder.systemPrompt, "system", "", "System prompt for a new conversation")
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Print replies without markdown rendering")

	return cmd
}

func (c *chatCommander) run(ctx context.Context) error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true), logger.WithComponent("chat"), logger.WithWriter(os.Stderr))

	var err error
	c.client, err = client.New(client.Config{BaseURL: c.apiTarget})
	if err != nil {
		return err
	}

	if err := c.loadState(); err != nil {
		return err
	}

	fmt.Fprintln(c.out)
	if c.conversationID() != "" {
		fmt.Fprintf(c.out, "  %s Resuming conversation %s\n",
			cliui.SuccessMark,
			cliui.IDStyle.Render(utils.Truncate(c.conversationID(), 16)),
		)
	} else {
		fmt.Fprintf(c.out, "  %s New conversation\n", cliui.DimStyle.Render("●"))
	}
	fmt.Fprintf(c.out, "  %s %s\n\n",
		cliui.KeyStyle.Render("Server:"),
		cliui.NameStyle.Render(c.apiTarget),
	)
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /new to start over, /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Fprint(c.out, userPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/exit", "/quit":
			fmt.Fprintln(c.out)
			return nil
		case "/new":
			if err := c.reset(); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "  %s New conversation\n\n", cliui.DimStyle.Render("●"))
			continue
		}

		resp, err := c.send(ctx, input)
		if err != nil {
			fmt.Fprintf(c.out, "  %s %v\n\n", cliui.FailMark, err)
			continue
		}

		c.printReply(resp)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

// loadState resumes the saved conversation unless --new was given or it
// belongs to a different server.
func (c *chatCommander) loadState() error {
	if c.fresh {
		return c.reset()
	}

	state, err := dotdir.NewManager().LoadChatState(c.configDir)
	if err != nil {
		return fmt.Errorf("loading chat state: %w", err)
	}
	if state != nil && state.APITarget != "" && state.APITarget != c.apiTarget {
		c.logger.Debug("saved conversation belongs to another server",
			"saved", state.APITarget,
			"current", c.apiTarget,
		)
		state = nil
	}
	c.state = state
	return nil
}

func (c *chatCommander) reset() error {
	c.state = nil
	if err := dotdir.NewManager().ClearChatState(c.configDir); err != nil {
		return fmt.Errorf("clearing chat state: %w", err)
	}
	return nil
}

func (c *chatCommander) conversationID() string {
	if c.state == nil {
		return ""
	}
	return c.state.ConversationID
}

// send runs one turn. A resumed conversation the server no longer knows is
// dropped and the message is sent again as a new conversation.
func (c *chatCommander) send(ctx context.Context, input string) (*api.ChatResponse, error) {
	var resp *api.ChatResponse
	err := cliui.Step(c.out, "Thinking", func() error {
		var err error
		resp, err = c.chat(ctx, input)
		if errors.Is(err, client.ErrNotFound) && c.conversationID() != "" {
			c.logger.Debug("conversation not found, starting a new one", "conversation_id", c.conversationID())
			if err := c.reset(); err != nil {
				return err
			}
			resp, err = c.chat(ctx, input)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if resp.ConversationID != c.conversationID() {
		c.state = &dotdir.ChatState{
			ConversationID: resp.ConversationID,
			APITarget:      c.apiTarget,
		}
	}
	c.state.UpdatedAt = time.Now().UTC()
	if err := dotdir.NewManager().SaveChatState(c.state, c.configDir); err != nil {
		c.logger.Warn("could not save chat state", "error", err)
	}
	return resp, nil
}

func (c *chatCommander) chat(ctx context.Context, input string) (*api.ChatResponse, error) {
	req := api.ChatRequest{
		Message:        &input,
		ConversationID: c.conversationID(),
	}
	if req.ConversationID == "" {
		req.SystemPrompt = c.systemPrompt
	}
	return c.client.Chat(ctx, req)
}

func (c *chatCommander) printReply(resp *api.ChatResponse) {
	reply := resp.Response
	if c.render {
		rendered, err := cliui.RenderMarkdown(reply, c.width)
		if err != nil {
			c.logger.Debug("markdown rendering failed", "error", err)
		}
		fmt.Fprintf(c.out, "%s\n%s\n", assistantPrompt, strings.TrimRight(rendered, "\n"))
	} else {
		fmt.Fprintf(c.out, "%s%s\n", assistantPrompt, reply)
	}

	if len(resp.Sources) > 0 {
		fmt.Fprintf(c.out, "\n  %s\n", cliui.KeyStyle.Render("Sources:"))
		for _, src := range resp.Sources {
			fmt.Fprintf(c.out, "    %s %s\n", cliui.DimStyle.Render("-"), cliui.SourceStyle.Render(src))
		}
	}
	fmt.Fprintln(c.out)
}
