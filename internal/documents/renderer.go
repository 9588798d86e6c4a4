package documents

import (
	"bytes"
	"fmt"
	"time"

	"github.com/Bessima/orderflow/internal/models"
	"github.com/olekukonko/tablewriter"
)

const dateLayout = "2006-01-02 15:04"

type Renderer struct{}

// Render строит текстовый документ счёта по текущему снимку заказа.
func (Renderer) Render(order models.Order, invoice models.Invoice) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "INVOICE %s\n", invoice.InvoiceCode)
	fmt.Fprintf(&buf, "Order %s, issued %s\n\n", order.OrderCode, invoice.IssuedAt.Format(dateLayout))

	table := tablewriter.NewWriter(&buf)
	table.Header("Field", "Value")

	rows := [][]string{
		{"Customer", order.CustomerName},
		{"Phone", order.Phone},
		{"Address", order.Address},
		{"Product", order.ProductName},
		{"Payment", string(order.PaymentMethod.OrDefault())},
		{"Amount", order.Amount.StringFixed(2)},
		{"Discount", order.Discount.StringFixed(2)},
		{"Shipping fee", order.ShippingFee.StringFixed(2)},
		{"Total", invoice.Amount.StringFixed(2)},
		{"Status", string(invoice.Status)},
		{"Paid at", formatTime(invoice.PaidAt)},
	}
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return nil, err
		}
	}
	if err := table.Render(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatTime(value *time.Time) string {
	if value == nil {
		return "-"
	}
	return value.Format(dateLayout)
}
