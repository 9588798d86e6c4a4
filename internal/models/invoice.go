package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "PENDING"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

type Invoice struct {
	ID          int64           `json:"id"`
	UserID      int             `json:"-"`
	OrderID     int64           `json:"order_id"`
	InvoiceCode string          `json:"invoice_code"`
	Amount      decimal.Decimal `json:"amount"`
	Status      InvoiceStatus   `json:"status"`
	IssuedAt    time.Time       `json:"issued_at"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
	DocumentRef *string         `json:"-"`
}
