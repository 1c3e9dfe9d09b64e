package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/memory"
	"github.com/papercomputeco/parley/pkg/worker"
)

func (o *Orchestrator) memoryEnabled() bool {
	return o.decider != nil && o.memory != nil
}

// recall asks the decider what to look up and queries each namespace it
// names. No decision means no lookup. Failures are logged and skipped.
func (o *Orchestrator) recall(ctx context.Context, logger *slog.Logger, t *turn) string {
	if !o.memoryEnabled() {
		return ""
	}

	callCtx, cancel := o.callContext(ctx)
	d, err := o.decider.DecideQuery(callCtx, t.userText, priorTurns(t.window, t.userMsg))
	cancel()
	if err != nil {
		logger.Warn("memory query decision failed", "error", err)
		return ""
	}
	if d == nil {
		return ""
	}

	facts := make(map[memory.Role][]string, len(d))
	for _, role := range memory.Roles() {
		query, ok := d.Get(role)
		if !ok {
			continue
		}

		callCtx, cancel := o.callContext(ctx)
		found, err := o.memory.Query(callCtx, role, query, o.config.MemoryQueryLimit)
		cancel()
		if err != nil {
			logger.Warn("memory query failed", "role", role, "error", err)
			continue
		}
		logger.Debug("memory recalled", "role", role, "facts", len(found))
		facts[role] = found
	}
	return memoryBlock(facts)
}

// enqueueMemoryStore hands the store decision and its writes to the worker
// pool. The turn never waits for it.
func (o *Orchestrator) enqueueMemoryStore(logger *slog.Logger, t *turn) {
	if !o.memoryEnabled() {
		return
	}

	// A degraded reply is canned text, not something the assistant said.
	transcript := conversation(t.window, t.userMsg)
	if !t.degraded {
		transcript = append(transcript, llm.NewTextMessage(llm.RoleAssistant, t.reply))
	}

	queued := o.workerPool.Enqueue(worker.Job{
		Name:      "memory.store",
		SessionID: t.session.ID,
		Run: func(ctx context.Context) error {
			return o.storeMemory(ctx, logger, transcript)
		},
	})
	if !queued {
		logger.Warn("memory store skipped")
	}
}

func (o *Orchestrator) storeMemory(ctx context.Context, logger *slog.Logger, transcript []llm.Message) error {
	d, err := o.decider.DecideStore(ctx, transcript)
	if err != nil {
		return err
	}
	if d == nil {
		logger.Debug("nothing to store in memory")
		return nil
	}

	var errs []error
	for _, role := range memory.Roles() {
		fact, ok := d.Get(role)
		if !ok {
			continue
		}
		id, err := o.memory.Add(ctx, role, fact)
		if err != nil {
			errs = append(errs, fmt.Errorf("storing %s fact: %w", role, err))
			continue
		}
		logger.Debug("memory fact stored", "role", role, "fact_id", id)
	}
	return errors.Join(errs...)
}
