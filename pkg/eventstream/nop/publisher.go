// Package nop provides the publisher used when no event stream is configured.
package nop

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/papercomputeco/parley/pkg/eventstream"
)

// Publisher accepts turn events and drops them. With debug logging on, each
// dropped event is logged so a local run still shows what would be emitted.
type Publisher struct {
	logger    *slog.Logger
	discarded atomic.Int64
}

// NewPublisher creates a discarding publisher. A nil logger logs nothing.
func NewPublisher(logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Publisher{logger: logger}
}

// PublishTurn drops event. Nil events are rejected like every other publisher.
func (p *Publisher) PublishTurn(ctx context.Context, event *eventstream.TurnCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilTurnEvent
	}

	p.discarded.Add(1)
	p.logger.DebugContext(ctx, "turn event discarded",
		"event_type", event.EventType,
		"event_id", event.EventID,
		"session_id", event.Turn.SessionID,
	)
	return nil
}

// Discarded reports how many events have been dropped.
func (p *Publisher) Discarded() int64 {
	return p.discarded.Load()
}

func (p *Publisher) Close() error {
	return nil
}

var _ eventstream.Publisher = (*Publisher)(nil)
