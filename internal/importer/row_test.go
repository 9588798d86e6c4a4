package importer

import (
	"testing"

	"github.com/Bessima/orderflow/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"250000", "250000"},
		{"250,000", "250000"},
		{"1.250.000", "1250000"},
		{"1.250.000 đ", "1250000"},
		{"1,250,000.50", "1250000.5"},
		{"1.250.000,50", "1250000.5"},
		{"99.5", "99.5"},
		{"12,5", "12.5"},
		{"300000 VND", "300000"},
		{"-5000", "-5000"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			amount, err := ParseAmount(tc.input)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tc.expected).Equal(amount), "got %s", amount)
		})
	}

	_, err := ParseAmount("")
	assert.ErrorIs(t, err, ErrEmptyAmount)
	_, err = ParseAmount("two hundred")
	assert.Error(t, err)
}

func TestNormalizePayment(t *testing.T) {
	testCases := []struct {
		input    string
		expected models.PaymentMethod
		ok       bool
	}{
		{"", models.CashOnDelivery, true},
		{"COD", models.CashOnDelivery, true},
		{"Thanh toán khi nhận hàng", models.CashOnDelivery, true},
		{"Bank Transfer", models.BankTransfer, true},
		{"Chuyển khoản", models.BankTransfer, true},
		{"MoMo", models.EWallet, true},
		{"CARD", models.CardPayment, true},
		{"barter", models.CashOnDelivery, false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			method, ok := NormalizePayment(tc.input)
			assert.Equal(t, tc.expected, method)
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func TestNormalizeGender(t *testing.T) {
	assert.Equal(t, "male", NormalizeGender("Nam"))
	assert.Equal(t, "female", NormalizeGender("Nữ"))
	assert.Equal(t, "female", NormalizeGender("F"))
	assert.Equal(t, "other", NormalizeGender("n/a"))
	assert.Equal(t, "", NormalizeGender(" "))
}

func TestMapRow(t *testing.T) {
	columns, report := MatchHeaders([]string{
		"Order Code", "Customer Name", "Phone", "Address", "Product", "Amount",
		"Payment Method", "Shipping Fee", "Gender", "Age", "Channel",
	})
	require.Nil(t, report)

	t.Run("full row", func(t *testing.T) {
		record := MapRow(RawRow{Number: 2, Cells: []string{
			"SO-1", "Nguyen Van A", "0901234567", "12 Le Loi", "Widget  Deluxe", "250,000",
			"bank transfer", "30.000", "nam", "34", "Facebook",
		}}, columns)

		assert.Equal(t, 2, record.Row)
		assert.Equal(t, "Widget Deluxe", record.ProductName)
		assert.True(t, record.Amount.Equal(decimal.NewFromInt(250000)))
		assert.True(t, record.ShippingFee.Equal(decimal.NewFromInt(30000)))
		assert.Equal(t, models.BankTransfer, record.PaymentMethod)
		assert.Equal(t, "male", record.Gender)
		require.NotNil(t, record.Age)
		assert.Equal(t, 34, *record.Age)
		assert.Equal(t, "facebook", record.Channel)
		assert.Empty(t, record.Problems)
	})

	t.Run("short row and bad cells", func(t *testing.T) {
		record := MapRow(RawRow{Number: 5, Cells: []string{"SO-5", "B", "0901", "addr", "Widget", "abc", "barter"}}, columns)

		assert.Equal(t, models.CashOnDelivery, record.PaymentMethod)
		assert.Nil(t, record.Age)
		assert.Equal(t, []string{`invalid amount "abc"`, `unknown payment method "barter"`}, record.Problems)
	})
}
