package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder() models.Order {
	return models.Order{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		Type:           domain.OrderTypeBuy,
		Status:         domain.OrderStatusPending,
		FirstAmount:    decimal.RequireFromString("100"),
		SecondAmount:   decimal.RequireFromString("103"),
		ServiceCharges: "2% + 1 = 3.00",
		SentFrom:       models.AssetSnapshot{Model: domain.AssetModelPaymentMethod, Title: "PayPal"},
		ReceivedIn:     models.AssetSnapshot{Model: domain.AssetModelECurrency, Title: "USD"},
	}
}

func TestSyncProducer_PublishJSON(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	mock := mocks.NewSyncProducer(t, cfg)
	order := testOrder()

	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got map[string]any
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got["event_type"] != TypeOrderPlaced || got["second_amount"] != "103.00" {
			return errors.New("unexpected payload")
		}
		return nil
	})

	p := newSyncProducer(mock, nil)
	_, _, err := p.PublishJSON(context.Background(), "orders", order.ID.String(), OrderPlaced("trace-1", order))
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestSyncProducer_PublishFailure(t *testing.T) {
	mock := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := newSyncProducer(mock, nil)
	_, _, err := p.PublishJSON(context.Background(), "orders", "k", map[string]string{"a": "b"})
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}

func TestSyncProducer_CanceledContext(t *testing.T) {
	mock := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	p := newSyncProducer(mock, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := p.PublishJSON(ctx, "orders", "k", "v")
	assert.ErrorIs(t, err, context.Canceled)
	require.NoError(t, p.Close())
}

func TestOrderStatusChanged(t *testing.T) {
	order := testOrder()
	order.Status = domain.OrderStatusCompleted
	e := OrderStatusChanged("", order, "pending")

	assert.Equal(t, TypeOrderStatusChanged, e.EventType)
	assert.Equal(t, "completed", e.Status)
	assert.Equal(t, "pending", e.Previous)
	assert.NotEmpty(t, e.EventID)
	assert.Equal(t, 1, e.EventVersion)
}
