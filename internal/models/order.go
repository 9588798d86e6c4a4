package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	PendingReviewStatus         OrderStatus = "PENDING_REVIEW"
	OrderApprovedStatus         OrderStatus = "ORDER_APPROVED"
	VerificationRequiredStatus  OrderStatus = "VERIFICATION_REQUIRED"
	OrderRejectedStatus         OrderStatus = "ORDER_REJECTED"
	OrderConfirmationSentStatus OrderStatus = "ORDER_CONFIRMATION_SENT"
	CustomerConfirmedStatus     OrderStatus = "CUSTOMER_CONFIRMED"
	CustomerCancelledStatus     OrderStatus = "CUSTOMER_CANCELLED"
	OrderPaidStatus             OrderStatus = "ORDER_PAID"
	DeliveringStatus            OrderStatus = "DELIVERING"
	CompletedStatus             OrderStatus = "COMPLETED"
	CustomerUnreachableStatus   OrderStatus = "CUSTOMER_UNREACHABLE"
)

type PaymentMethod string

const (
	CashOnDelivery PaymentMethod = "COD"
	BankTransfer   PaymentMethod = "BANK_TRANSFER"
	CardPayment    PaymentMethod = "CARD"
	EWallet        PaymentMethod = "E_WALLET"
)

// OrDefault — отсутствие способа оплаты означает оплату при получении.
func (p PaymentMethod) OrDefault() PaymentMethod {
	if p == "" {
		return CashOnDelivery
	}
	return p
}

func (p PaymentMethod) IsCOD() bool {
	return p.OrDefault() == CashOnDelivery
}

type RiskLevel string

const (
	RiskNone   RiskLevel = "none"
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

type Order struct {
	ID           int64  `json:"id"`
	UserID       int    `json:"-"`
	OrderCode    string `json:"order_code"`
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Province     string `json:"province,omitempty"`
	District     string `json:"district,omitempty"`
	Ward         string `json:"ward,omitempty"`

	ProductID   *int64          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Amount      decimal.Decimal `json:"amount"`
	Discount    decimal.Decimal `json:"discount"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`

	PaymentMethod PaymentMethod `json:"payment_method"`
	RiskScore     *int          `json:"risk_score"`
	RiskLevel     RiskLevel     `json:"risk_level"`
	Status        OrderStatus   `json:"status"`

	Gender  string `json:"gender,omitempty"`
	Age     *int   `json:"age,omitempty"`
	Channel string `json:"channel,omitempty"`
	Source  string `json:"source,omitempty"`
	Note    string `json:"note,omitempty"`

	ApprovedAt          *time.Time `json:"approved_at,omitempty"`
	ConfirmationSentAt  *time.Time `json:"confirmation_sent_at,omitempty"`
	CustomerConfirmedAt *time.Time `json:"customer_confirmed_at,omitempty"`
	CancelledAt         *time.Time `json:"cancelled_at,omitempty"`
	PaidAt              *time.Time `json:"paid_at,omitempty"`
	ShippedAt           *time.Time `json:"shipped_at,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`

	RejectionReason    string `json:"rejection_reason,omitempty"`
	VerificationReason string `json:"verification_reason,omitempty"`
	CancellationReason string `json:"cancellation_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Total — сумма к оплате с учётом скидки и доставки.
func (o Order) Total() decimal.Decimal {
	return o.Amount.Sub(o.Discount).Add(o.ShippingFee)
}
