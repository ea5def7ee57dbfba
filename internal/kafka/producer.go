// Package kafka publishes position mutation events and consumes
// external price ticks.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/valueband/vr-service/internal/models"
)

// MutationEvent is the envelope published after every ledger mutation.
type MutationEvent struct {
	EventType string          `json:"event_type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Data      MutationPayload `json:"data"`
}

// MutationPayload carries the mutated position and the ledger entry
// that produced it.
type MutationPayload struct {
	Position *models.Position    `json:"position"`
	Entry    *models.LedgerEntry `json:"entry,omitempty"`
}

// Producer publishes position events to Kafka
type Producer struct {
	writer *kafka.Writer
	log    zerolog.Logger
}

// NewProducer creates a Kafka producer for position events
func NewProducer(brokers []string, topic string, log zerolog.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Producer{
		writer: writer,
		log:    log.With().Str("component", "kafka-producer").Logger(),
	}
}

// PublishMutation publishes a POSITION_MUTATED event. Messages are
// keyed by position ID so per-position ordering is preserved.
func (p *Producer) PublishMutation(ctx context.Context, position *models.Position, entry *models.LedgerEntry) error {
	event := MutationEvent{
		EventType: "POSITION_MUTATED",
		Source:    "vr-service",
		Timestamp: time.Now().UTC(),
		Data: MutationPayload{
			Position: position,
			Entry:    entry,
		},
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal mutation event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(position.ID, 10)),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish mutation event: %w", err)
	}

	p.log.Debug().
		Int64("position_id", position.ID).
		Msg("published mutation event")
	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
