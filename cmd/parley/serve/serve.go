// Package servecmder provides the serve command, which runs the parley API
// server with every configured component.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/logger"
)

type serveCommander struct {
	configDir string
	debug     bool
	logFile   string

	cfg    *config.Config
	logger *slog.Logger
}

const serveLongDesc string = `Run the parley API server.

The server answers chat turns on POST /api/chat, manages conversations under
/api/conversations and exposes an MCP endpoint at /mcp.

Configuration comes from flags, PARLEY_* environment variables, config.toml
in the .parley directory and built-in defaults, in that order.

Examples:
  parley serve
  parley serve --provider ollama --model llama3.1
  parley serve --storage postgres --postgres "postgres://localhost/parley"`

const serveShortDesc string = "Run the parley API server"

// serveFlagKeys lists the registry flags bound to viper for serve.
var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagProvider,
	config.FlagModel,
	config.FlagLLMTarget,
	config.FlagStorage,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagLibSQL,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagMemoryProvider,
	config.FlagRecentWindow,
	config.FlagMaxToolRounds,
	config.FlagEventStream,
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.ServeFlags, serveFlagKeys)

			cmder.cfg = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	// Values are read back through viper, so the flag targets are throwaway.
	for _, key := range serveFlagKeys {
		switch key {
		case config.FlagEmbeddingDims, config.FlagRecentWindow, config.FlagMaxToolRounds:
			config.AddUintFlag(cmd, config.ServeFlags, key, new(uint))
		default:
			config.AddStringFlag(cmd, config.ServeFlags, key, new(string))
		}
	}
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	closeLog, err := c.setupLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := buildStack(ctx, c.cfg, c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.close(); err != nil {
			c.logger.Error("error closing components", "error", err)
		}
	}()

	errChan := make(chan error, 1)
	go func() {
		if err := s.api.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		c.logger.Info("received signal, shutting down")
	}

	if err := s.api.Shutdown(); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// setupLogger builds the console logger and, with --log-file, tees records
// as JSON into the file.
func (c *serveCommander) setupLogger() (func(), error) {
	console := logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
		logger.WithComponent("serve"),
	)
	if c.logFile == "" {
		c.logger = console
		return func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithDebug(c.debug),
		logger.WithJSON(true),
		logger.WithWriter(f),
		logger.WithComponent("serve"),
	)
	c.logger = logger.Multi(console, file)
	return func() { _ = f.Close() }, nil
}
