package importer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Bessima/orderflow/internal/models"
	"github.com/shopspring/decimal"
)

var ErrEmptyAmount = errors.New("amount is empty")

// Record — строка файла, разобранная в поля заказа.
type Record struct {
	Row           int                  `json:"row"`
	OrderCode     string               `json:"order_code"`
	CustomerName  string               `json:"customer_name"`
	Phone         string               `json:"phone"`
	Address       string               `json:"address"`
	Province      string               `json:"province,omitempty"`
	District      string               `json:"district,omitempty"`
	Ward          string               `json:"ward,omitempty"`
	ProductName   string               `json:"product_name"`
	ProductID     *int64               `json:"product_id,omitempty"`
	Amount        decimal.Decimal      `json:"amount"`
	Discount      decimal.Decimal      `json:"discount"`
	ShippingFee   decimal.Decimal      `json:"shipping_fee"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Gender        string               `json:"gender,omitempty"`
	Age           *int                 `json:"age,omitempty"`
	Channel       string               `json:"channel,omitempty"`
	Source        string               `json:"source,omitempty"`
	Note          string               `json:"note,omitempty"`

	// Problems — ошибки разбора отдельных ячеек.
	Problems []string `json:"problems,omitempty"`
}

func (r Record) ToOrder(userID int) models.Order {
	return models.Order{
		UserID:        userID,
		OrderCode:     r.OrderCode,
		CustomerName:  r.CustomerName,
		Phone:         r.Phone,
		Address:       r.Address,
		Province:      r.Province,
		District:      r.District,
		Ward:          r.Ward,
		ProductID:     r.ProductID,
		ProductName:   r.ProductName,
		Amount:        r.Amount,
		Discount:      r.Discount,
		ShippingFee:   r.ShippingFee,
		PaymentMethod: r.PaymentMethod,
		Gender:        r.Gender,
		Age:           r.Age,
		Channel:       r.Channel,
		Source:        r.Source,
		Note:          r.Note,
	}
}

// MapRow переносит ячейки в поля заказа. Ошибки разбора не прерывают обработку,
// а складываются в Record.Problems.
func MapRow(raw RawRow, columns Columns) Record {
	cell := func(field Field) string {
		i, ok := columns[field]
		if !ok || i >= len(raw.Cells) {
			return ""
		}
		return strings.TrimSpace(raw.Cells[i])
	}

	record := Record{
		Row:          raw.Number,
		OrderCode:    cell(FieldOrderCode),
		CustomerName: cell(FieldCustomerName),
		Phone:        cell(FieldPhone),
		Address:      cell(FieldAddress),
		Province:     cell(FieldProvince),
		District:     cell(FieldDistrict),
		Ward:         cell(FieldWard),
		ProductName:  strings.Join(strings.Fields(cell(FieldProduct)), " "),
		Gender:       NormalizeGender(cell(FieldGender)),
		Channel:      strings.ToLower(cell(FieldChannel)),
		Source:       strings.ToLower(cell(FieldSource)),
		Note:         cell(FieldNote),
	}

	if value := cell(FieldAmount); value != "" {
		amount, err := ParseAmount(value)
		if err != nil {
			record.Problems = append(record.Problems, fmt.Sprintf("invalid amount %q", value))
		}
		record.Amount = amount
	}
	record.Discount = optionalAmount(cell(FieldDiscount), "discount", &record)
	record.ShippingFee = optionalAmount(cell(FieldShippingFee), "shipping fee", &record)

	payment := cell(FieldPaymentMethod)
	method, ok := NormalizePayment(payment)
	if !ok {
		record.Problems = append(record.Problems, fmt.Sprintf("unknown payment method %q", payment))
	}
	record.PaymentMethod = method

	if value := cell(FieldAge); value != "" {
		age, err := strconv.Atoi(value)
		if err != nil || age <= 0 || age > 120 {
			record.Problems = append(record.Problems, fmt.Sprintf("invalid age %q", value))
		} else {
			record.Age = &age
		}
	}
	return record
}

func optionalAmount(value, name string, record *Record) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	amount, err := ParseAmount(value)
	if err != nil {
		record.Problems = append(record.Problems, fmt.Sprintf("invalid %s %q", name, value))
		return decimal.Zero
	}
	return amount
}

var currencyReplacer = strings.NewReplacer(
	"vnđ", "", "vnd", "", "đ", "", "₫", "", "$", "", " ", "", "\u00a0", "", "'", "", "_", "",
)

// ParseAmount разбирает сумму с разделителями разрядов: "250,000", "1.250.000 đ",
// "1,250,000.50", "12,5".
func ParseAmount(value string) (decimal.Decimal, error) {
	cleaned := currencyReplacer.Replace(strings.ToLower(strings.TrimSpace(value)))
	if cleaned == "" {
		return decimal.Zero, ErrEmptyAmount
	}

	commas, dots := strings.Count(cleaned, ","), strings.Count(cleaned, ".")
	switch {
	case commas > 0 && dots > 0:
		// Десятичный разделитель тот, что стоит последним
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case commas > 0:
		cleaned = resolveSeparator(cleaned, ",", commas)
	case dots > 0:
		cleaned = resolveSeparator(cleaned, ".", dots)
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", value, err)
	}
	return amount, nil
}

// resolveSeparator: несколько одинаковых разделителей или ровно три цифры после
// единственного считаются разделителями разрядов.
func resolveSeparator(value, sep string, count int) string {
	if count > 1 {
		return strings.ReplaceAll(value, sep, "")
	}
	tail := value[strings.LastIndex(value, sep)+1:]
	if len(tail) == 3 {
		return strings.ReplaceAll(value, sep, "")
	}
	return strings.Replace(value, sep, ".", 1)
}

var paymentAliases = map[string]models.PaymentMethod{
	"":                         models.CashOnDelivery,
	"cod":                      models.CashOnDelivery,
	"cash":                     models.CashOnDelivery,
	"cash on delivery":         models.CashOnDelivery,
	"thanh toan khi nhan hang": models.CashOnDelivery,
	"bank":                     models.BankTransfer,
	"bank transfer":            models.BankTransfer,
	"bank_transfer":            models.BankTransfer,
	"transfer":                 models.BankTransfer,
	"chuyen khoan":             models.BankTransfer,
	"card":                     models.CardPayment,
	"credit card":              models.CardPayment,
	"the":                      models.CardPayment,
	"e_wallet":                 models.EWallet,
	"e-wallet":                 models.EWallet,
	"ewallet":                  models.EWallet,
	"vi dien tu":               models.EWallet,
	"momo":                     models.EWallet,
	"zalopay":                  models.EWallet,
}

// NormalizePayment возвращает способ оплаты. Пустое значение означает оплату при получении.
func NormalizePayment(value string) (models.PaymentMethod, bool) {
	method, ok := paymentAliases[Normalize(value)]
	if !ok {
		return models.CashOnDelivery, false
	}
	return method, true
}

func NormalizeGender(value string) string {
	switch Normalize(value) {
	case "":
		return ""
	case "m", "male", "nam":
		return "male"
	case "f", "female", "nu":
		return "female"
	default:
		return "other"
	}
}
