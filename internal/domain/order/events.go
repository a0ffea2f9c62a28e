// internal/domain/order/events.go
package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/your-org/storefront-api/internal/domain/product"
)

// EventType names an order lifecycle event
type EventType string

const (
	EventOrderCreated       EventType = "order.created"
	EventOrderCancelled     EventType = "order.cancelled"
	EventOrderStatusChanged EventType = "order.status_changed"
)

// Event is published after the transaction that caused it commits
type Event struct {
	Type        EventType   `json:"type"`
	OrderID     uuid.UUID   `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	Status      Status      `json:"status"`
	UserID      *uint       `json:"user_id,omitempty"`
	Total       string      `json:"total"`
	Items       []EventItem `json:"items"`
	Reason      string      `json:"reason,omitempty"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

// EventItem is one order line in an event payload
type EventItem struct {
	ProductID uint   `json:"product_id"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

// EventPublisher delivers order events to downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event
type NopPublisher struct{}

// Publish does nothing
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// NewEvent builds the event payload for o
func NewEvent(eventType EventType, o *Order, reason string) Event {
	items := make([]EventItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, EventItem{
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Quantity:  item.Quantity,
			Price:     product.FormatMoney(item.Price),
		})
	}
	return Event{
		Type:        eventType,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		UserID:      o.UserID,
		Total:       product.FormatMoney(o.Total()),
		Items:       items,
		Reason:      reason,
		OccurredAt:  time.Now().UTC(),
	}
}
