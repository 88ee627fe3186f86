package publisher

import (
	"context"
	"time"

	"storefront/internal/order/domain"
)

// Event is what downstream consumers (fulfilment, notifications) see when
// an order is created or moves through its lifecycle.
type Event struct {
	EventType     string               `json:"event_type"`
	OrderNumber   string               `json:"order_number"`
	CustomerID    string               `json:"customer_id,omitempty"`
	Email         string               `json:"email"`
	Status        domain.Status        `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	Total         int64                `json:"total"`
	Currency      string               `json:"currency"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

const (
	EventOrderCreated        = "order.created"
	EventOrderStatusChanged  = "order.status_changed"
	EventOrderPaymentChanged = "order.payment_status_changed"
)

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop discards events. Used when no broker is configured and in tests.
type Nop struct{}

func (Nop) Publish(ctx context.Context, event Event) error { return nil }
func (Nop) Close() error                                   { return nil }
