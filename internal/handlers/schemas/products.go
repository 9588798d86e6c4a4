package schemas

import "github.com/shopspring/decimal"

type ProductRequest struct {
	Name  string          `json:"name" validate:"required,max=255"`
	Price decimal.Decimal `json:"price"`
}
