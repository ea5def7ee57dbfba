package kafka

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Mock PricesRepository
// ---------------------------------------------------------------------------

type mockPricesRepo struct {
	mu      sync.Mutex
	updates map[string]decimal.Decimal
	err     error
}

func (m *mockPricesRepo) UpdatePriceByTicker(ticker string, price decimal.Decimal) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	if m.updates == nil {
		m.updates = make(map[string]decimal.Decimal)
	}
	m.updates[ticker] = price
	return 1, nil
}

// ---------------------------------------------------------------------------
// processMessage tests
// ---------------------------------------------------------------------------

func tickMessage(t *testing.T, tick PriceTick) kafkago.Message {
	t.Helper()
	value, err := json.Marshal(tick)
	require.NoError(t, err)
	return kafkago.Message{Value: value}
}

func TestPricesConsumer_processMessage(t *testing.T) {
	repo := &mockPricesRepo{}
	consumer := &PricesConsumer{repo: repo, log: zerolog.Nop()}

	msg := tickMessage(t, PriceTick{Ticker: "005930.KS", Price: decimal.NewFromInt(71500)})
	require.NoError(t, consumer.processMessage(msg))

	assert.True(t, repo.updates["005930.KS"].Equal(decimal.NewFromInt(71500)))
}

func TestPricesConsumer_processMessage_IgnoresNonPositive(t *testing.T) {
	repo := &mockPricesRepo{}
	consumer := &PricesConsumer{repo: repo, log: zerolog.Nop()}

	msg := tickMessage(t, PriceTick{Ticker: "AAPL", Price: decimal.Zero})
	require.NoError(t, consumer.processMessage(msg))
	assert.Empty(t, repo.updates)

	msg = tickMessage(t, PriceTick{Ticker: "AAPL", Price: decimal.NewFromInt(-5)})
	require.NoError(t, consumer.processMessage(msg))
	assert.Empty(t, repo.updates)
}

func TestPricesConsumer_processMessage_MissingTicker(t *testing.T) {
	consumer := &PricesConsumer{repo: &mockPricesRepo{}, log: zerolog.Nop()}

	msg := tickMessage(t, PriceTick{Price: decimal.NewFromInt(100)})
	assert.Error(t, consumer.processMessage(msg))
}

func TestPricesConsumer_processMessage_InvalidJSON(t *testing.T) {
	consumer := &PricesConsumer{repo: &mockPricesRepo{}, log: zerolog.Nop()}

	err := consumer.processMessage(kafkago.Message{Value: []byte("not json")})
	assert.Error(t, err)
}

func TestPricesConsumer_processMessage_RepoError(t *testing.T) {
	repo := &mockPricesRepo{err: errors.New("db down")}
	consumer := &PricesConsumer{repo: repo, log: zerolog.Nop()}

	msg := tickMessage(t, PriceTick{Ticker: "AAPL", Price: decimal.NewFromInt(230)})
	err := consumer.processMessage(msg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}
