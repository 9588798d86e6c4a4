package repository

import (
	"context"
	"errors"

	"github.com/Bessima/orderflow/internal/config/db"
	"github.com/Bessima/orderflow/internal/models"
	"github.com/Bessima/orderflow/internal/retry"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const invoiceColumns = `id, user_id, order_id, invoice_code, amount, status, issued_at, paid_at, document_ref`

type InvoiceRepository struct {
	db *db.DB
}

type InvoiceStorageRepositoryI interface {
	EnsurePending(ctx context.Context, invoice models.Invoice) (*models.Invoice, error)
	EnsurePaid(ctx context.Context, invoice models.Invoice) (*InvoiceWrite, error)
	GetByOrderID(ctx context.Context, userID int, orderID int64) (*models.Invoice, error)
	InvalidateDocument(ctx context.Context, userID int, orderID int64, amount decimal.Decimal) error
	SetDocumentRef(ctx context.Context, userID int, invoiceID int64, ref string) error
}

// InvoiceWrite — результат EnsurePaid, когда строка действительно записана.
type InvoiceWrite struct {
	Invoice  *models.Invoice
	Inserted bool
}

func NewInvoiceRepository(dbObj *db.DB) *InvoiceRepository {
	return &InvoiceRepository{db: dbObj}
}

// EnsurePending создаёт счёт в статусе PENDING, если у заказа ещё нет счёта.
// Существующий счёт не трогается, тогда возвращается nil без ошибки.
func (repository *InvoiceRepository) EnsurePending(ctx context.Context, invoice models.Invoice) (*models.Invoice, error) {
	query := `INSERT INTO invoices (user_id, order_id, invoice_code, amount, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_id) DO NOTHING
		RETURNING ` + invoiceColumns

	created, err := retry.DoRetryWithResult(ctx, func() (*models.Invoice, error) {
		row := repository.db.Pool.QueryRow(ctx, query,
			invoice.UserID, invoice.OrderID, invoice.InvoiceCode, invoice.Amount, string(models.InvoicePending),
		)
		return scanInvoice(row)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return created, err
}

// EnsurePaid создаёт оплаченный счёт или переводит существующий в PAID.
// Уже оплаченный счёт не меняется, тогда возвращается nil без ошибки.
func (repository *InvoiceRepository) EnsurePaid(ctx context.Context, invoice models.Invoice) (*InvoiceWrite, error) {
	query := `INSERT INTO invoices (user_id, order_id, invoice_code, amount, status, paid_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (order_id) DO UPDATE SET status = EXCLUDED.status, paid_at = EXCLUDED.paid_at
		WHERE invoices.status <> EXCLUDED.status
		RETURNING ` + invoiceColumns + `, (xmax = 0) AS inserted`

	write, err := retry.DoRetryWithResult(ctx, func() (*InvoiceWrite, error) {
		row := repository.db.Pool.QueryRow(ctx, query,
			invoice.UserID, invoice.OrderID, invoice.InvoiceCode, invoice.Amount, string(models.InvoicePaid),
		)
		var (
			elem     models.Invoice
			status   string
			inserted bool
		)
		err := row.Scan(
			&elem.ID, &elem.UserID, &elem.OrderID, &elem.InvoiceCode, &elem.Amount, &status,
			&elem.IssuedAt, &elem.PaidAt, &elem.DocumentRef, &inserted,
		)
		if err != nil {
			return nil, err
		}
		elem.Status = models.InvoiceStatus(status)
		return &InvoiceWrite{Invoice: &elem, Inserted: inserted}, nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return write, err
}

func (repository *InvoiceRepository) GetByOrderID(ctx context.Context, userID int, orderID int64) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE user_id = $1 AND order_id = $2`

	invoice, err := retry.DoRetryWithResult(ctx, func() (*models.Invoice, error) {
		return scanInvoice(repository.db.Pool.QueryRow(ctx, query, userID, orderID))
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return invoice, err
}

// InvalidateDocument сбрасывает ссылку на документ счёта. Сумма обновляется
// только у неоплаченного счёта.
func (repository *InvoiceRepository) InvalidateDocument(
	ctx context.Context,
	userID int,
	orderID int64,
	amount decimal.Decimal,
) error {
	query := `UPDATE invoices
		SET document_ref = NULL, amount = CASE WHEN status = $4 THEN $3 ELSE amount END
		WHERE user_id = $1 AND order_id = $2`

	return retry.DoRetry(ctx, func() error {
		_, err := repository.db.Pool.Exec(ctx, query, userID, orderID, amount, string(models.InvoicePending))
		return err
	})
}

func (repository *InvoiceRepository) SetDocumentRef(ctx context.Context, userID int, invoiceID int64, ref string) error {
	query := `UPDATE invoices SET document_ref = $3 WHERE user_id = $1 AND id = $2`

	return retry.DoRetry(ctx, func() error {
		tag, err := repository.db.Pool.Exec(ctx, query, userID, invoiceID, ref)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	var (
		elem   models.Invoice
		status string
	)
	err := row.Scan(
		&elem.ID, &elem.UserID, &elem.OrderID, &elem.InvoiceCode, &elem.Amount, &status,
		&elem.IssuedAt, &elem.PaidAt, &elem.DocumentRef,
	)
	if err != nil {
		return nil, err
	}
	elem.Status = models.InvoiceStatus(status)
	return &elem, nil
}
