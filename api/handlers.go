package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/parley/pkg/agent"
	"github.com/papercomputeco/parley/pkg/history"
)

const defaultListLimit = 100

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message        *string `json:"message"`
	ConversationID string  `json:"conversation_id,omitempty"`

	// SystemPrompt applies only when a new conversation is started.
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// ChatResponse is the reply to a chat request.
type ChatResponse struct {
	ConversationID string   `json:"conversation_id"`
	Response       string   `json:"response"`
	Sources        []string `json:"sources"`
}

// Conversation is one entry of GET /api/conversations.
type Conversation struct {
	ID           string    `json:"id"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Message is one entry of GET /api/conversations/:id.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleChat runs one turn, starting a conversation when none is given.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.Message == nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "message is required"})
	}

	ctx := c.UserContext()
	sessionID := req.ConversationID
	if sessionID == "" && req.SystemPrompt != "" {
		session, err := s.turns.NewSession(ctx, req.SystemPrompt)
		if err != nil {
			s.logger.Error("creating conversation failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to create conversation"})
		}
		sessionID = session.ID
	}

	result, err := s.turns.ProcessTurn(ctx, sessionID, *req.Message)
	switch {
	case err == nil:
	case history.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: conversationNotFound(sessionID)})
	case errors.Is(err, agent.ErrHistory):
		s.logger.Error("chat turn failed", "session_id", sessionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to persist conversation"})
	default:
		s.logger.Error("chat turn failed", "session_id", sessionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to process message"})
	}

	return c.JSON(ChatResponse{
		ConversationID: result.SessionID,
		Response:       result.Reply,
		Sources:        result.Sources,
	})
}

// handleListConversations pages through conversations, most recently
// updated first.
func (s *Server) handleListConversations(c *fiber.Ctx) error {
	skip := c.QueryInt("skip", 0)
	limit := c.QueryInt("limit", defaultListLimit)
	if skip < 0 || limit < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "skip and limit must not be negative"})
	}

	sessions, err := s.history.ListSessions(c.UserContext(), skip, limit)
	if err != nil {
		s.logger.Error("listing conversations failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list conversations"})
	}

	out := make([]Conversation, len(sessions))
	for i, sess := range sessions {
		out[i] = Conversation{
			ID:           sess.ID,
			SystemPrompt: sess.SystemPrompt,
			CreatedAt:    sess.CreatedAt,
			UpdatedAt:    sess.UpdatedAt,
		}
	}
	return c.JSON(out)
}

// handleGetConversation returns a conversation's messages, oldest first.
// Unknown and empty conversations are both not found.
func (s *Server) handleGetConversation(c *fiber.Ctx) error {
	id := c.Params("id")

	messages, err := s.history.All(c.UserContext(), id)
	if err != nil && !history.IsNotFound(err) {
		s.logger.Error("reading conversation failed", "session_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read conversation"})
	}
	if len(messages) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: conversationNotFound(id)})
	}

	out := make([]Message, len(messages))
	for i, m := range messages {
		out[i] = Message{
			ID:             m.ID,
			ConversationID: m.SessionID,
			Role:           string(m.Role),
			Content:        m.Content,
			Timestamp:      m.CreatedAt,
		}
	}
	return c.JSON(out)
}

// handleDeleteConversation removes a conversation and its messages.
func (s *Server) handleDeleteConversation(c *fiber.Ctx) error {
	id := c.Params("id")

	deleted, err := s.history.DeleteSession(c.UserContext(), id)
	if err != nil {
		s.logger.Error("deleting conversation failed", "session_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to delete conversation"})
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: conversationNotFound(id)})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func conversationNotFound(id string) string {
	return fmt.Sprintf("Conversation with ID %s not found", id)
}
