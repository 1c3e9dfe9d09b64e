package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/logger"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func sampleEvent() *eventstream.TurnCompletedEvent {
	return &eventstream.TurnCompletedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeTurnCompleted,
		EventID:       "evt_1",
		Turn: eventstream.Turn{
			SessionID: "session-1",
			Reply:     "hi",
			Sources:   []string{},
		},
	}
}

var _ = Describe("Publisher", func() {
	var (
		w *fakeWriter
		p *Publisher
	)

	BeforeEach(func() {
		w = &fakeWriter{}
		p = newPublisher(w, DefaultTopic, logger.Nop())
	})

	It("requires brokers", func() {
		_, err := NewPublisher(Config{})
		Expect(err).To(HaveOccurred())
	})

	It("returns ErrNilTurnEvent for nil events", func() {
		Expect(p.PublishTurn(context.Background(), nil)).To(MatchError(eventstream.ErrNilTurnEvent))
		Expect(w.messages).To(BeEmpty())
	})

	It("writes the event as JSON keyed by session", func() {
		Expect(p.PublishTurn(context.Background(), sampleEvent())).To(Succeed())

		Expect(w.messages).To(HaveLen(1))
		msg := w.messages[0]
		Expect(string(msg.Key)).To(Equal("session-1"))
		Expect(msg.Headers).To(ContainElement(kafkago.Header{Key: "event_type", Value: []byte(eventstream.EventTypeTurnCompleted)}))

		var decoded eventstream.TurnCompletedEvent
		Expect(json.Unmarshal(msg.Value, &decoded)).To(Succeed())
		Expect(decoded.EventID).To(Equal("evt_1"))
		Expect(decoded.Turn.Reply).To(Equal("hi"))
	})

	It("wraps writer failures", func() {
		w.err = errors.New("broker down")
		err := p.PublishTurn(context.Background(), sampleEvent())
		Expect(err).To(MatchError(ContainSubstring("broker down")))
		Expect(err).To(MatchError(ContainSubstring(DefaultTopic)))
	})

	It("closes the writer", func() {
		Expect(p.Close()).To(Succeed())
		Expect(w.closed).To(BeTrue())
	})

	Context("against a live broker", func() {
		It("publishes a turn", func() {
			brokers := os.Getenv("PARLEY_TEST_KAFKA_BROKERS")
			if brokers == "" {
				Skip("PARLEY_TEST_KAFKA_BROKERS not set")
			}

			live, err := NewPublisher(Config{Brokers: strings.Split(brokers, ","), Topic: "parley.test.turns"})
			Expect(err).NotTo(HaveOccurred())
			defer live.Close()

			Expect(live.PublishTurn(context.Background(), sampleEvent())).To(Succeed())
		})
	})
})
