package models

import "github.com/shopspring/decimal"

// OrderPatch — частичное изменение коммерческих полей заказа. nil означает «не менять».
type OrderPatch struct {
	CustomerName *string          `json:"customer_name,omitempty"`
	Phone        *string          `json:"phone,omitempty"`
	Address      *string          `json:"address,omitempty"`
	Province     *string          `json:"province,omitempty"`
	District     *string          `json:"district,omitempty"`
	Ward         *string          `json:"ward,omitempty"`
	ProductID    *int64           `json:"product_id,omitempty"`
	ProductName  *string          `json:"product_name,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	Discount     *decimal.Decimal `json:"discount,omitempty"`
	ShippingFee  *decimal.Decimal `json:"shipping_fee,omitempty"`
	Note         *string          `json:"note,omitempty"`
	Status       *OrderStatus     `json:"status,omitempty"`
}

// ApplyTo возвращает копию заказа с применёнными изменениями.
func (p OrderPatch) ApplyTo(order Order) Order {
	if p.CustomerName != nil {
		order.CustomerName = *p.CustomerName
	}
	if p.Phone != nil {
		order.Phone = *p.Phone
	}
	if p.Address != nil {
		order.Address = *p.Address
	}
	if p.Province != nil {
		order.Province = *p.Province
	}
	if p.District != nil {
		order.District = *p.District
	}
	if p.Ward != nil {
		order.Ward = *p.Ward
	}
	if p.ProductID != nil {
		id := *p.ProductID
		order.ProductID = &id
	}
	if p.ProductName != nil {
		order.ProductName = *p.ProductName
	}
	if p.Amount != nil {
		order.Amount = *p.Amount
	}
	if p.Discount != nil {
		order.Discount = *p.Discount
	}
	if p.ShippingFee != nil {
		order.ShippingFee = *p.ShippingFee
	}
	if p.Note != nil {
		order.Note = *p.Note
	}
	if p.Status != nil {
		order.Status = *p.Status
	}
	return order
}
