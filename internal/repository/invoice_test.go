package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Bessima/orderflow/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testInvoiceColumns = []string{
	"id", "user_id", "order_id", "invoice_code", "amount", "status", "issued_at", "paid_at", "document_ref",
}

func sampleInvoice() models.Invoice {
	return models.Invoice{
		UserID:      1,
		OrderID:     42,
		InvoiceCode: "INV-SO-1001",
		Amount:      decimal.NewFromInt(280000),
	}
}

func TestInvoiceRepository_EnsurePending_Created(t *testing.T) {
	// Arrange
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewInvoiceRepository(NewTestDB(mock))
	invoice := sampleInvoice()
	issued := time.Now()

	mock.ExpectQuery("INSERT INTO invoices (.+) ON CONFLICT \\(order_id\\) DO NOTHING").
		WithArgs(1, int64(42), "INV-SO-1001", invoice.Amount, "PENDING").
		WillReturnRows(pgxmock.NewRows(testInvoiceColumns).
			AddRow(int64(5), 1, int64(42), "INV-SO-1001", invoice.Amount, "PENDING", issued, nil, nil))

	// Act
	created, err := repo.EnsurePending(context.Background(), invoice)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, int64(5), created.ID)
	assert.Equal(t, models.InvoicePending, created.Status)
	assert.Nil(t, created.PaidAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceRepository_EnsurePending_AlreadyExists(t *testing.T) {
	// Arrange
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewInvoiceRepository(NewTestDB(mock))

	// ON CONFLICT DO NOTHING не возвращает строк
	mock.ExpectQuery("INSERT INTO invoices").
		WithArgs(anyArgs(5)...).
		WillReturnRows(pgxmock.NewRows(testInvoiceColumns))

	// Act
	created, err := repo.EnsurePending(context.Background(), sampleInvoice())

	// Assert
	assert.NoError(t, err)
	assert.Nil(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceRepository_EnsurePaid_Upgraded(t *testing.T) {
	// Arrange
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewInvoiceRepository(NewTestDB(mock))
	invoice := sampleInvoice()
	issued := time.Now().Add(-time.Hour)
	paid := time.Now()

	mock.ExpectQuery("INSERT INTO invoices (.+) ON CONFLICT \\(order_id\\) DO UPDATE").
		WithArgs(1, int64(42), "INV-SO-1001", invoice.Amount, "PAID").
		WillReturnRows(pgxmock.NewRows(append(testInvoiceColumns, "inserted")).
			AddRow(int64(5), 1, int64(42), "INV-SO-1001", invoice.Amount, "PAID", issued, &paid, nil, false))

	// Act
	write, err := repo.EnsurePaid(context.Background(), invoice)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, write)
	assert.False(t, write.Inserted)
	assert.Equal(t, models.InvoicePaid, write.Invoice.Status)
	assert.NotNil(t, write.Invoice.PaidAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceRepository_EnsurePaid_AlreadyPaid(t *testing.T) {
	// Arrange
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewInvoiceRepository(NewTestDB(mock))

	mock.ExpectQuery("INSERT INTO invoices").
		WithArgs(anyArgs(5)...).
		WillReturnError(pgx.ErrNoRows)

	// Act
	write, err := repo.EnsurePaid(context.Background(), sampleInvoice())

	// Assert
	assert.NoError(t, err)
	assert.Nil(t, write)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceRepository_GetByOrderID_NotFound(t *testing.T) {
	// Arrange
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewInvoiceRepository(NewTestDB(mock))

	mock.ExpectQuery("SELECT (.+) FROM invoices").
		WithArgs(1, int64(42)).
		WillReturnError(pgx.ErrNoRows)

	// Act
	invoice, err := repo.GetByOrderID(context.Background(), 1, 42)

	// Assert
	assert.Nil(t, invoice)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceRepository_InvalidateDocument(t *testing.T) {
	// Arrange
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewInvoiceRepository(NewTestDB(mock))
	amount := decimal.NewFromInt(300000)

	mock.ExpectExec("UPDATE invoices\\s+SET document_ref = NULL").
		WithArgs(1, int64(42), amount, "PENDING").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	// Act
	err = repo.InvalidateDocument(context.Background(), 1, 42, amount)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceRepository_SetDocumentRef_Missing(t *testing.T) {
	// Arrange
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewInvoiceRepository(NewTestDB(mock))

	mock.ExpectExec("UPDATE invoices SET document_ref").
		WithArgs(1, int64(5), "1/42/INV-SO-1001/1.txt").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	// Act
	err = repo.SetDocumentRef(context.Background(), 1, 5, "1/42/INV-SO-1001/1.txt")

	// Assert
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
