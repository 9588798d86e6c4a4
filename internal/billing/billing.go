// Package billing решает, какое состояние счёта требуется для заказа.
package billing

import (
	"fmt"
	"slices"

	"github.com/Bessima/orderflow/internal/models"
	"github.com/shopspring/decimal"
)

type Requirement int

const (
	NoInvoice Requirement = iota
	EnsurePending
	EnsurePaid
)

func (r Requirement) String() string {
	switch r {
	case EnsurePending:
		return "ensure_pending"
	case EnsurePaid:
		return "ensure_paid"
	default:
		return "none"
	}
}

const LowRiskThreshold = 30

// PaidStatuses — статусы, в которых заказ считается оплаченным.
var PaidStatuses = []models.OrderStatus{
	models.OrderPaidStatus,
	models.DeliveringStatus,
	models.CompletedStatus,
}

func IsPaidStatus(status models.OrderStatus) bool {
	return slices.Contains(PaidStatuses, status)
}

func IsLowRisk(score *int) bool {
	return score != nil && *score <= LowRiskThreshold
}

// Decide не имеет побочных эффектов, поэтому его можно вызывать сколько угодно раз.
func Decide(order models.Order) Requirement {
	if IsPaidStatus(order.Status) {
		return EnsurePaid
	}
	if !order.PaymentMethod.IsCOD() {
		return NoInvoice
	}

	if IsLowRisk(order.RiskScore) {
		if order.Status == models.OrderApprovedStatus {
			return EnsurePending
		}
		return NoInvoice
	}

	if order.Status == models.CustomerConfirmedStatus {
		return EnsurePending
	}
	return NoInvoice
}

func InvoiceCode(order models.Order) string {
	return fmt.Sprintf("INV-%s", order.OrderCode)
}

func InvoiceTotal(order models.Order) decimal.Decimal {
	total := order.Total()
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// AffectsInvoice — изменились ли поля, от которых зависит документ счёта.
func AffectsInvoice(before, after models.Order) bool {
	return !before.Amount.Equal(after.Amount) ||
		!before.Discount.Equal(after.Discount) ||
		!before.ShippingFee.Equal(after.ShippingFee)
}
