package schemas

import (
	"strings"

	"github.com/Bessima/orderflow/internal/models"
	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	OrderCode    string `json:"order_code" validate:"required,max=64"`
	CustomerName string `json:"customer_name" validate:"required,max=255"`
	Phone        string `json:"phone" validate:"required,max=32"`
	Address      string `json:"address" validate:"required,max=500"`
	Province     string `json:"province" validate:"max=255"`
	District     string `json:"district" validate:"max=255"`
	Ward         string `json:"ward" validate:"max=255"`

	ProductID   *int64          `json:"product_id" validate:"omitempty,gt=0"`
	ProductName string          `json:"product_name" validate:"required,max=255"`
	Amount      decimal.Decimal `json:"amount"`
	Discount    decimal.Decimal `json:"discount"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`

	PaymentMethod models.PaymentMethod `json:"payment_method" validate:"omitempty,oneof=COD BANK_TRANSFER CARD E_WALLET"`

	Gender  string `json:"gender" validate:"omitempty,oneof=male female other"`
	Age     *int   `json:"age" validate:"omitempty,gt=0,lt=150"`
	Channel string `json:"channel" validate:"max=64"`
	Source  string `json:"source" validate:"max=64"`
	Note    string `json:"note" validate:"max=1000"`
}

// ToOrder переносит поля запроса в заказ пользователя. Статус и риск
// выставляет сервис.
func (req CreateOrderRequest) ToOrder(userID int) models.Order {
	return models.Order{
		UserID:        userID,
		OrderCode:     strings.TrimSpace(req.OrderCode),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		Phone:         strings.TrimSpace(req.Phone),
		Address:       strings.TrimSpace(req.Address),
		Province:      strings.TrimSpace(req.Province),
		District:      strings.TrimSpace(req.District),
		Ward:          strings.TrimSpace(req.Ward),
		ProductID:     req.ProductID,
		ProductName:   strings.TrimSpace(req.ProductName),
		Amount:        req.Amount,
		Discount:      req.Discount,
		ShippingFee:   req.ShippingFee,
		PaymentMethod: req.PaymentMethod,
		Gender:        req.Gender,
		Age:           req.Age,
		Channel:       req.Channel,
		Source:        req.Source,
		Note:          req.Note,
	}
}

// UpdateOrderRequest — частичное изменение, статус через него не меняется.
type UpdateOrderRequest struct {
	CustomerName *string          `json:"customer_name" validate:"omitempty,min=1,max=255"`
	Phone        *string          `json:"phone" validate:"omitempty,min=1,max=32"`
	Address      *string          `json:"address" validate:"omitempty,max=500"`
	Province     *string          `json:"province" validate:"omitempty,max=255"`
	District     *string          `json:"district" validate:"omitempty,max=255"`
	Ward         *string          `json:"ward" validate:"omitempty,max=255"`
	ProductID    *int64           `json:"product_id" validate:"omitempty,gt=0"`
	ProductName  *string          `json:"product_name" validate:"omitempty,min=1,max=255"`
	Amount       *decimal.Decimal `json:"amount"`
	Discount     *decimal.Decimal `json:"discount"`
	ShippingFee  *decimal.Decimal `json:"shipping_fee"`
	Note         *string          `json:"note" validate:"omitempty,max=1000"`
}

func (req UpdateOrderRequest) ToPatch() models.OrderPatch {
	return models.OrderPatch{
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		Address:      req.Address,
		Province:     req.Province,
		District:     req.District,
		Ward:         req.Ward,
		ProductID:    req.ProductID,
		ProductName:  req.ProductName,
		Amount:       req.Amount,
		Discount:     req.Discount,
		ShippingFee:  req.ShippingFee,
		Note:         req.Note,
	}
}

type ActionRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type BulkDeleteRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

type BulkDeleteResponse struct {
	Deleted int64 `json:"deleted"`
}
