package models

import "time"

type EventType string

const (
	OrderCreatedEvent  EventType = "order_created"
	OrderImportedEvent EventType = "order_imported"
	OrderUpdatedEvent  EventType = "order_updated"
	OrderDeletedEvent  EventType = "order_deleted"
	InvoiceIssuedEvent EventType = "invoice_issued"
	InvoicePaidEvent   EventType = "invoice_paid"
	StatusChangedEvent EventType = "status_changed"
)

// OrderEvent — запись журнала, только добавляется.
type OrderEvent struct {
	ID        int64          `json:"id"`
	UserID    int            `json:"-"`
	OrderID   int64          `json:"order_id"`
	Type      EventType      `json:"event_type"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}
