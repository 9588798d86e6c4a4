package documents

import (
	"context"
	"testing"
	"time"

	"github.com/Bessima/orderflow/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "1/42/INV-SO-1001/7.txt", Key(1, 42, "INV-SO-1001", 7))
	assert.Equal(t, "1/42/INV-SO_1_2/7.txt", Key(1, 42, "INV-SO/1 2", 7))
	assert.Equal(t, "1/42/invoice/7.txt", Key(1, 42, "..", 7))
}

func TestFileStore_PutGetExists(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	key := Key(1, 42, "INV-SO-1001", 1)

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	ref, err := store.Put(ctx, key, []byte("first"))
	require.NoError(t, err)
	assert.Equal(t, key, ref)

	// Версия пишется один раз
	_, err = store.Put(ctx, key, []byte("second"))
	require.NoError(t, err)

	content, err := store.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "first", string(content))

	exists, err = store.Exists(ctx, ref)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFileStore_GetMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "1/2/INV-X/3.txt")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_StaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileStore(root)
	require.NoError(t, err)

	path, err := store.resolve("../../etc/passwd")

	require.NoError(t, err)
	assert.Contains(t, path, root)
}

func TestRenderer_Render(t *testing.T) {
	paid := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	order := models.Order{
		OrderCode:     "SO-1001",
		CustomerName:  "Nguyen Van A",
		ProductName:   "Widget Deluxe",
		Amount:        decimal.NewFromInt(250000),
		ShippingFee:   decimal.NewFromInt(30000),
		PaymentMethod: models.BankTransfer,
	}
	invoice := models.Invoice{
		InvoiceCode: "INV-SO-1001",
		Amount:      decimal.NewFromInt(280000),
		Status:      models.InvoicePaid,
		IssuedAt:    paid,
		PaidAt:      &paid,
	}

	content, err := Renderer{}.Render(order, invoice)

	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "INVOICE INV-SO-1001")
	assert.Contains(t, text, "Widget Deluxe")
	assert.Contains(t, text, "280000.00")
	assert.Contains(t, text, "2026-03-02 09:30")
}
