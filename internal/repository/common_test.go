package repository

import (
	"time"

	"github.com/Bessima/orderflow/internal/config/db"
	"github.com/Bessima/orderflow/internal/models"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
)

func NewTestDB(pool db.PgxPoolInterface) *db.DB {
	return &db.DB{
		Pool: pool,
	}
}

var testOrderColumns = []string{
	"id", "user_id", "order_code", "customer_name", "phone", "address", "province", "district", "ward",
	"product_id", "product_name", "amount", "discount", "shipping_fee", "payment_method", "risk_score",
	"risk_level", "status", "gender", "age", "channel", "source", "note",
	"approved_at", "confirmation_sent_at", "customer_confirmed_at", "cancelled_at", "paid_at", "shipped_at",
	"completed_at", "rejection_reason", "verification_reason", "cancellation_reason", "created_at", "updated_at",
}

// orderRows собирает строки результата в порядке orderColumns.
func orderRows(orders ...models.Order) *pgxmock.Rows {
	rows := pgxmock.NewRows(testOrderColumns)
	for _, o := range orders {
		rows.AddRow(
			o.ID, o.UserID, o.OrderCode, o.CustomerName, o.Phone, o.Address, o.Province, o.District, o.Ward,
			o.ProductID, o.ProductName, o.Amount, o.Discount, o.ShippingFee, string(o.PaymentMethod), o.RiskScore,
			string(o.RiskLevel), string(o.Status), o.Gender, o.Age, o.Channel, o.Source, o.Note,
			o.ApprovedAt, o.ConfirmationSentAt, o.CustomerConfirmedAt, o.CancelledAt, o.PaidAt, o.ShippedAt,
			o.CompletedAt, nullable(o.RejectionReason), nullable(o.VerificationReason),
			nullable(o.CancellationReason), o.CreatedAt, o.UpdatedAt,
		)
	}
	return rows
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func sampleOrder() models.Order {
	score := 25
	productID := int64(7)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return models.Order{
		ID:            42,
		UserID:        1,
		OrderCode:     "SO-1001",
		CustomerName:  "Nguyen Van A",
		Phone:         "0901234567",
		Address:       "12 Le Loi, District 1",
		ProductID:     &productID,
		ProductName:   "Widget Deluxe",
		Amount:        decimal.NewFromInt(250000),
		Discount:      decimal.Zero,
		ShippingFee:   decimal.NewFromInt(30000),
		PaymentMethod: models.CashOnDelivery,
		RiskScore:     &score,
		RiskLevel:     models.RiskLow,
		Status:        models.PendingReviewStatus,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}
