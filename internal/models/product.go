package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID             int64           `json:"id"`
	UserID         int             `json:"-"`
	Name           string          `json:"name"`
	NormalizedName string          `json:"-"`
	Price          decimal.Decimal `json:"price"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
}
