package events

import (
	"time"

	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/google/uuid"
)

const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"

	version = 1
)

// Envelope carries the metadata shared by every published event.
type Envelope struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	EventVersion  int       `json:"event_version"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

func newEnvelope(eventType, correlationID string) Envelope {
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  version,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
	}
}

// OrderEvent is the payload of both order events. Previous is set only on
// status changes.
type OrderEvent struct {
	Envelope
	OrderID        uuid.UUID            `json:"order_id"`
	UserID         uuid.UUID            `json:"user_id"`
	Type           string               `json:"type"`
	Status         string               `json:"status"`
	Previous       string               `json:"previous_status,omitempty"`
	FirstAmount    string               `json:"first_amount"`
	SecondAmount   string               `json:"second_amount"`
	ServiceCharges string               `json:"service_charges"`
	SentFrom       models.AssetSnapshot `json:"sent_from"`
	ReceivedIn     models.AssetSnapshot `json:"received_in"`
}

func newOrderEvent(eventType, correlationID string, o models.Order) OrderEvent {
	return OrderEvent{
		Envelope:       newEnvelope(eventType, correlationID),
		OrderID:        o.ID,
		UserID:         o.UserID,
		Type:           string(o.Type),
		Status:         string(o.Status),
		FirstAmount:    o.FirstAmount.String(),
		SecondAmount:   o.SecondAmount.StringFixed(2),
		ServiceCharges: o.ServiceCharges,
		SentFrom:       o.SentFrom,
		ReceivedIn:     o.ReceivedIn,
	}
}

// OrderPlaced builds the event emitted once an order is persisted.
func OrderPlaced(correlationID string, o models.Order) OrderEvent {
	return newOrderEvent(TypeOrderPlaced, correlationID, o)
}

// OrderStatusChanged builds the event emitted after an admin status change.
func OrderStatusChanged(correlationID string, o models.Order, previous string) OrderEvent {
	e := newOrderEvent(TypeOrderStatusChanged, correlationID, o)
	e.Previous = previous
	return e
}
