// Package agent runs parley's turn pipeline: it pulls short-term context from
// the history store and long-term context from memory, lets the generator
// call tools for a bounded number of rounds, persists the reply and hands
// memory writes to a background pool.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/history"
	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/memory"
	"github.com/papercomputeco/parley/pkg/memory/decision"
	"github.com/papercomputeco/parley/pkg/tools"
	"github.com/papercomputeco/parley/pkg/worker"
)

// Replies used when no generated text is available.
const (
	DegradedReply  = "Sorry, I ran into a problem while generating a response. Please try again."
	TimedOutReply  = "Sorry, this request timed out before I could finish. Please try again."
	ExhaustedReply = "Sorry, I couldn't finish that request with the tools available."
)

// ErrHistory wraps history store failures. They are the only errors
// ProcessTurn returns besides an unknown session.
var ErrHistory = errors.New("history store failure")

// Decider is the memory decision capability the orchestrator consults.
type Decider interface {
	DecideQuery(ctx context.Context, input string, history []llm.Message) (decision.Decision, error)
	DecideStore(ctx context.Context, history []llm.Message) (decision.Decision, error)
}

// TurnResult is the outcome of one turn.
type TurnResult struct {
	SessionID string   `json:"session_id"`
	Reply     string   `json:"reply"`
	Sources   []string `json:"sources"`

	// Degraded is set when the reply is a fallback rather than generated.
	Degraded bool `json:"degraded,omitempty"`
	TimedOut bool `json:"timed_out,omitempty"`
}

// Orchestrator processes turns. It is safe for concurrent use; concurrent
// turns share nothing but the injected stores.
type Orchestrator struct {
	config     Config
	history    history.Store
	generator  llm.Generator
	dispatcher *tools.Dispatcher
	decider    Decider
	memory     *memory.Namespaces
	events     eventstream.Publisher
	workerPool *worker.Pool
	logger     *slog.Logger
}

// New creates an Orchestrator and starts its background worker pool.
func New(c Config, d Deps) (*Orchestrator, error) {
	if d.History == nil {
		return nil, errors.New("history store is required")
	}
	if d.Generator == nil {
		return nil, errors.New("generator is required")
	}
	c.applyDefaults()

	dispatcher := d.Dispatcher
	if dispatcher == nil {
		dispatcher = tools.NewDispatcher(nil, tools.DispatcherConfig{Logger: c.Logger})
	}

	wp, err := worker.NewPool(&worker.Config{
		NumWorkers: c.MemoryWorkers,
		JobTimeout: c.TurnTimeout,
		Logger:     c.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create worker pool: %w", err)
	}

	return &Orchestrator{
		config:     c,
		history:    d.History,
		generator:  d.Generator,
		dispatcher: dispatcher,
		decider:    d.Decider,
		memory:     d.Memory,
		events:     d.Events,
		workerPool: wp,
		logger:     c.Logger,
	}, nil
}

// Close waits for queued memory writes to finish. The injected stores are
// owned by the caller and stay open.
func (o *Orchestrator) Close() {
	o.workerPool.Close()
}

// NewSession creates a session with an optional system prompt.
func (o *Orchestrator) NewSession(ctx context.Context, systemPrompt string) (*history.Session, error) {
	callCtx, cancel := o.callContext(ctx)
	defer cancel()

	s, err := o.history.CreateSession(callCtx, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: creating session: %w", ErrHistory, err)
	}
	return s, nil
}

// turn is the in-flight state of one ProcessTurn call.
type turn struct {
	session   *history.Session
	userText  string
	userMsg   *history.Message
	window    []history.Message
	started   time.Time
	rounds    int
	results   []llm.ToolResult
	reply     string
	degraded  bool
	timedOut  bool
	memoryCtx string
}

// ProcessTurn runs one turn. An empty sessionID starts a new session; an
// unknown one returns a history.NotFoundError. Generation and tool failures
// become degraded replies; only history store failures are returned as
// errors, wrapped in ErrHistory.
func (o *Orchestrator) ProcessTurn(ctx context.Context, sessionID, userText string) (*TurnResult, error) {
	t := &turn{userText: userText, started: time.Now()}

	session, err := o.resolveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	t.session = session
	logger := o.logger.With("session_id", session.ID)

	appendCtx, cancel := o.callContext(ctx)
	t.userMsg, err = o.history.Append(appendCtx, session.ID, history.RoleUser, userText)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: appending user message: %w", ErrHistory, err)
	}

	turnCtx, cancelTurn := context.WithTimeout(ctx, o.config.TurnTimeout)
	defer cancelTurn()

	t.window = o.recentWindow(turnCtx, logger, t)
	t.memoryCtx = o.recall(turnCtx, logger, t)
	o.generateReply(turnCtx, logger, t)

	// The reply is persisted even when the turn deadline has passed.
	persistCtx, cancel := o.callContext(context.WithoutCancel(ctx))
	_, err = o.history.Append(persistCtx, session.ID, history.RoleAssistant, t.reply)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: appending assistant message: %w", ErrHistory, err)
	}

	o.enqueueMemoryStore(logger, t)
	o.publish(ctx, logger, t)

	sources := Sources(t.results)
	logger.Info("turn completed",
		"rounds", t.rounds,
		"sources", len(sources),
		"degraded", t.degraded,
		"timed_out", t.timedOut,
		"duration", time.Since(t.started),
	)

	return &TurnResult{
		SessionID: session.ID,
		Reply:     t.reply,
		Sources:   sources,
		Degraded:  t.degraded,
		TimedOut:  t.timedOut,
	}, nil
}

func (o *Orchestrator) resolveSession(ctx context.Context, sessionID string) (*history.Session, error) {
	if sessionID == "" {
		return o.NewSession(ctx, "")
	}

	callCtx, cancel := o.callContext(ctx)
	defer cancel()

	s, err := o.history.GetSession(callCtx, sessionID)
	if err != nil {
		if history.IsNotFound(err) {
			return nil, fmt.Errorf("resolving session: %w", err)
		}
		return nil, fmt.Errorf("%w: resolving session: %w", ErrHistory, err)
	}
	return s, nil
}

// recentWindow reads the last N messages in chronological order. A failed
// read degrades to the current message alone; the reply append that follows
// surfaces a real outage.
func (o *Orchestrator) recentWindow(ctx context.Context, logger *slog.Logger, t *turn) []history.Message {
	callCtx, cancel := o.callContext(ctx)
	defer cancel()

	recent, err := o.history.Recent(callCtx, t.session.ID, o.config.RecentWindow)
	if err != nil {
		logger.Warn("reading recent window failed", "error", err)
		return []history.Message{*t.userMsg}
	}
	return history.Reverse(recent)
}

// generateReply runs the initial generation and the bounded tool loop, and
// sets the turn's reply.
func (o *Orchestrator) generateReply(ctx context.Context, logger *slog.Logger, t *turn) {
	catalog := o.catalog()
	messages := conversation(t.window, t.userMsg)
	system := systemPrompt(o.systemPromptFor(t.session), t.memoryCtx)

	resp, err := o.generate(ctx, logger, system, messages, catalog)
	for err == nil && resp.HasToolCalls() {
		if t.rounds == o.config.MaxToolRounds {
			logger.Warn("tool round limit reached", "rounds", t.rounds, "pending_calls", len(resp.ToolCalls))
			resp, err = o.generate(ctx, logger, system, finalMessages(messages), nil)
			if err == nil && resp.HasToolCalls() && resp.Text == "" {
				t.degraded = true
				t.reply = ExhaustedReply
				return
			}
			break
		}
		t.rounds++

		results := o.dispatcher.DispatchAll(ctx, resp.ToolCalls)
		for _, r := range results {
			logger.Debug("tool result",
				"round", t.rounds,
				"tool", r.ToolName,
				"call_id", r.CallID,
				"is_error", r.IsError,
			)
		}
		t.results = append(t.results, results...)
		messages = append(messages, resp.Message(), llm.NewToolResultMessage(results))

		resp, err = o.generate(ctx, logger, system, messages, catalog)
	}

	if err != nil {
		t.degraded = true
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			t.timedOut = true
			t.reply = TimedOutReply
			logger.Warn("turn timed out", "rounds", t.rounds, "error", err)
			return
		}
		t.reply = DegradedReply
		logger.Error("generation failed",
			"rounds", t.rounds,
			"retryable", llm.IsRetryable(err),
			"error", err,
		)
		return
	}

	t.reply = resp.Text
}

// generate makes one generation call under the call timeout, retrying
// retryable failures.
func (o *Orchestrator) generate(ctx context.Context, logger *slog.Logger, system string, messages []llm.Message, catalog []llm.ToolDefinition) (*llm.GenerateResponse, error) {
	temperature := *o.config.ReplyTemperature
	if len(catalog) > 0 {
		temperature = *o.config.ToolTemperature
	}
	req := &llm.GenerateRequest{
		System:      system,
		Messages:    messages,
		Tools:       catalog,
		Temperature: &temperature,
	}

	var lastErr error
	for attempt := 0; attempt <= max(o.config.GenerateRetries, 0); attempt++ {
		if attempt > 0 {
			logger.Debug("retrying generation", "attempt", attempt, "error", lastErr)
			select {
			case <-time.After(time.Duration(attempt) * 250 * time.Millisecond):
			case <-ctx.Done():
				return nil, fmt.Errorf("generating: %w", errors.Join(lastErr, ctx.Err()))
			}
		}

		callCtx, cancel := o.callContext(ctx)
		resp, err := o.generator.Generate(callCtx, req)
		cancel()
		if err == nil {
			if resp == nil {
				resp = &llm.GenerateResponse{}
			}
			return resp, nil
		}

		lastErr = err
		if !llm.IsRetryable(err) || ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("generating: %w", lastErr)
}

func (o *Orchestrator) catalog() []llm.ToolDefinition {
	return o.dispatcher.Registry().Definitions()
}

func (o *Orchestrator) systemPromptFor(s *history.Session) string {
	if s.SystemPrompt != "" {
		return s.SystemPrompt
	}
	return o.config.SystemPrompt
}

// callContext bounds a single external call.
func (o *Orchestrator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.config.CallTimeout)
}
