package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/parley/pkg/eventstream"
)

// ServiceName identifies parley as the source of published events.
const ServiceName = "parley"

func (o *Orchestrator) publish(ctx context.Context, logger *slog.Logger, t *turn) {
	if o.events == nil {
		return
	}

	now := time.Now().UTC()
	event := &eventstream.TurnCompletedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeTurnCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     now,
		Source: eventstream.EventSource{
			Service:  ServiceName,
			Provider: o.generator.Name(),
		},
		TurnMeta: eventstream.TurnMeta{
			StartedAt:   t.started.UTC(),
			CompletedAt: now,
			DurationMs:  now.Sub(t.started).Milliseconds(),
			ToolRounds:  t.rounds,
			TimedOut:    t.timedOut,
			Degraded:    t.degraded,
		},
		Turn: eventstream.Turn{
			SessionID:   t.session.ID,
			UserText:    t.userText,
			Reply:       t.reply,
			Sources:     Sources(t.results),
			ToolResults: t.results,
		},
	}

	callCtx, cancel := o.callContext(context.WithoutCancel(ctx))
	defer cancel()
	if err := o.events.PublishTurn(callCtx, event); err != nil {
		logger.Warn("publishing turn event failed", "error", err)
	}
}
