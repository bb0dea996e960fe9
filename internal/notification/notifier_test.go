package notification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/events"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/ayo6706/exchange-brokerage/internal/observability"
	"github.com/ayo6706/exchange-brokerage/internal/worker"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inlineDispatcher runs jobs synchronously so assertions need no waiting.
type inlineDispatcher struct {
	names  []string
	reject bool
}

func (d *inlineDispatcher) Submit(job worker.Job) bool {
	if d.reject {
		return false
	}
	d.names = append(d.names, job.Name)
	_ = job.Run(context.Background())
	return true
}

type captureSender struct {
	mu    sync.Mutex
	sent  []Message
	creds []Credentials
	err   error
}

func (s *captureSender) Send(_ context.Context, creds Credentials, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	s.creds = append(s.creds, creds)
	return s.err
}

type capturePublisher struct {
	topics []string
	keys   []string
	values []any
}

func (p *capturePublisher) PublishJSON(_ context.Context, topic, key string, value any) (int32, int64, error) {
	p.topics = append(p.topics, topic)
	p.keys = append(p.keys, key)
	p.values = append(p.values, value)
	return 0, 0, nil
}

func (p *capturePublisher) Close() error { return nil }

type staticConfig struct {
	cfg *models.SiteConfig
	err error
}

func (s staticConfig) Get(context.Context) (*models.SiteConfig, error) { return s.cfg, s.err }

func sampleOrder() models.Order {
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

func TestOrderPlaced_SendsMailsAndEvent(t *testing.T) {
	dispatch := &inlineDispatcher{}
	sender := &captureSender{}
	publisher := &capturePublisher{}
	cfg := &models.SiteConfig{EmailAddress: "ops@example.com", EmailPassword: "pw", BuyOrderConfirmedText: "We received your buy <order>."}
	n := NewOrderNotifier(dispatch, sender, publisher, staticConfig{cfg: cfg},
		Options{SiteName: "eBuy", AdminEmail: "admin@example.com", OrderTopic: "orders"}, nil)

	order := sampleOrder()
	customer := models.User{Email: "ann@example.com", FirstName: "Ann", LastName: "Lee"}
	ctx := observability.WithTraceID(context.Background(), "trace-9")
	n.OrderPlaced(ctx, order, customer)

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "ann@example.com", sender.sent[0].To)
	assert.Equal(t, "eBuy: Order Confirmation", sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].HTML, "Hi Ann Lee")
	assert.Contains(t, sender.sent[0].HTML, "We received your buy &lt;order&gt;.")
	assert.Contains(t, sender.sent[0].HTML, "103.00")
	assert.Equal(t, Credentials{Username: "ops@example.com", Password: "pw"}, sender.creds[0])
	assert.Equal(t, "admin@example.com", sender.sent[1].To)

	require.Len(t, publisher.values, 1)
	assert.Equal(t, "orders", publisher.topics[0])
	assert.Equal(t, order.ID.String(), publisher.keys[0])
	evt, ok := publisher.values[0].(events.OrderEvent)
	require.True(t, ok)
	assert.Equal(t, events.TypeOrderPlaced, evt.EventType)
	assert.Equal(t, "trace-9", evt.CorrelationID)
}

func TestOrderPlaced_ToleratesMissingConfigAndFailures(t *testing.T) {
	dispatch := &inlineDispatcher{}
	sender := &captureSender{err: errors.New("relay down")}
	n := NewOrderNotifier(dispatch, sender, nil, staticConfig{err: domain.ErrConfigNotFound}, Options{}, nil)

	assert.NotPanics(t, func() {
		n.OrderPlaced(context.Background(), sampleOrder(), models.User{Email: "a@example.com"})
	})
	require.Len(t, sender.sent, 1, "no admin mail without ADMIN_EMAIL")
	assert.Equal(t, Credentials{}, sender.creds[0])
	assert.Equal(t, []string{"email.order_confirmation"}, dispatch.names, "no kafka job without a topic")
}

func TestOrderPlaced_QueueFullDoesNotPanic(t *testing.T) {
	n := NewOrderNotifier(&inlineDispatcher{reject: true}, &captureSender{}, nil, staticConfig{}, Options{AdminEmail: "x@example.com"}, nil)
	assert.NotPanics(t, func() {
		n.OrderPlaced(context.Background(), sampleOrder(), models.User{})
	})
}

func TestOrderStatusChanged(t *testing.T) {
	sender := &captureSender{}
	publisher := &capturePublisher{}
	n := NewOrderNotifier(&inlineDispatcher{}, sender, publisher, staticConfig{cfg: &models.SiteConfig{}}, Options{SiteName: "eBuy", OrderTopic: "orders"}, nil)

	order := sampleOrder()
	order.Status = domain.OrderStatusCompleted
	n.OrderStatusChanged(context.Background(), order, models.User{Email: "ann@example.com", FirstName: "Ann"}, domain.OrderStatusPending)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "eBuy: Order completed", sender.sent[0].Subject)
	require.Len(t, publisher.values, 1)
	evt := publisher.values[0].(events.OrderEvent)
	assert.Equal(t, "pending", evt.Previous)
}

func TestBuildMessage(t *testing.T) {
	raw, err := buildMessage("from@example.com", Message{To: "to@example.com", Subject: "Hello", HTML: "<p>x</p>"}, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	s := string(raw)
	assert.True(t, strings.HasPrefix(s, "From: from@example.com\r\nTo: to@example.com\r\nSubject: Hello\r\n"))
	assert.Contains(t, s, "Content-Type: text/html; charset=UTF-8\r\n\r\n<p>x</p>")

	_, err = buildMessage("from@example.com", Message{To: "to@example.com\r\nBcc: evil@example.com"}, time.Now())
	assert.Error(t, err)
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(nil)
	require.NoError(t, s.Send(context.Background(), Credentials{}, Message{To: "a@example.com"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, s.Send(ctx, Credentials{}, Message{}))
}
