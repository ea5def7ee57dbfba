package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// PriceTick is an external market price update.
type PriceTick struct {
	Ticker string          `json:"ticker"`
	Price  decimal.Decimal `json:"price"`
}

// PricesRepository defines the position price update operation
type PricesRepository interface {
	UpdatePriceByTicker(ticker string, price decimal.Decimal) (int64, error)
}

// PricesConsumer applies external price ticks to tracked positions
type PricesConsumer struct {
	reader *kafka.Reader
	repo   PricesRepository
	log    zerolog.Logger
}

// NewPricesConsumer creates a Kafka consumer for price tick events
func NewPricesConsumer(brokers []string, topic, groupID string, repo PricesRepository, log zerolog.Logger) *PricesConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID + "-prices",
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.LastOffset, // Only read new ticks (not historical)
		CommitInterval: time.Second,
	})

	return &PricesConsumer{
		reader: reader,
		repo:   repo,
		log:    log.With().Str("component", "kafka-prices").Logger(),
	}
}

// Start begins consuming messages from Kafka
func (c *PricesConsumer) Start(ctx context.Context) error {
	c.log.Info().Str("topic", c.reader.Config().Topic).Msg("starting price tick consumer")

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("price tick consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil // Context cancelled, normal shutdown
				}
				c.log.Error().Err(err).Msg("error reading price tick")
				continue
			}

			if err := c.processMessage(msg); err != nil {
				c.log.Error().Err(err).Msg("error processing price tick")
				// Continue processing other messages
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *PricesConsumer) processMessage(msg kafka.Message) error {
	var tick PriceTick
	if err := json.Unmarshal(msg.Value, &tick); err != nil {
		return fmt.Errorf("failed to unmarshal price tick: %w", err)
	}

	if tick.Ticker == "" {
		return fmt.Errorf("price tick missing ticker")
	}
	if !tick.Price.IsPositive() {
		c.log.Warn().
			Str("ticker", tick.Ticker).
			Str("price", tick.Price.String()).
			Msg("ignoring non-positive price tick")
		return nil
	}

	updated, err := c.repo.UpdatePriceByTicker(tick.Ticker, tick.Price)
	if err != nil {
		return fmt.Errorf("failed to apply price tick for %s: %w", tick.Ticker, err)
	}

	c.log.Debug().
		Str("ticker", tick.Ticker).
		Str("price", tick.Price.String()).
		Int64("positions", updated).
		Msg("applied price tick")
	return nil
}

// Close closes the Kafka consumer
func (c *PricesConsumer) Close() error {
	return c.reader.Close()
}
