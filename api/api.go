package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/parley/pkg/agent"
	"github.com/papercomputeco/parley/pkg/history"
)

// TurnProcessor runs conversation turns. *agent.Orchestrator implements it.
type TurnProcessor interface {
	NewSession(ctx context.Context, systemPrompt string) (*history.Session, error)
	ProcessTurn(ctx context.Context, sessionID, userText string) (*agent.TurnResult, error)
}

// Server is the API server for chatting with parley and managing conversations
type Server struct {
	config  Config
	turns   TurnProcessor
	history history.Store
	logger  *slog.Logger
	app     *fiber.App
}

// NewServer creates a new API server.
// The history store is shared with the orchestrator that runs turns.
func NewServer(config Config, turns TurnProcessor, store history.Store, logger *slog.Logger) (*Server, error) {
	if turns == nil {
		return nil, errors.New("turn processor is required")
	}
	if store == nil {
		return nil, errors.New("history store is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:  config,
		turns:   turns,
		history: store,
		logger:  logger,
		app:     app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/api/chat", s.handleChat)
	app.Get("/api/conversations", s.handleListConversations)
	app.Get("/api/conversations/:id", s.handleGetConversation)
	app.Delete("/api/conversations/:id", s.handleDeleteConversation)

	if config.MCPHandler != nil {
		mcpHandler := adaptor.HTTPHandler(config.MCPHandler)
		app.All("/mcp", mcpHandler)
		app.All("/mcp/*", mcpHandler)
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
		"mcp", s.config.MCPHandler != nil,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
