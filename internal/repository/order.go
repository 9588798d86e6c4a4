package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Bessima/orderflow/internal/config/db"
	"github.com/Bessima/orderflow/internal/customerror"
	"github.com/Bessima/orderflow/internal/lifecycle"
	"github.com/Bessima/orderflow/internal/models"
	"github.com/Bessima/orderflow/internal/retry"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrStaleStatus = errors.New("order status has already changed")
)

const orderColumns = `id, user_id, order_code, customer_name, phone, address, province, district, ward,
	product_id, product_name, amount, discount, shipping_fee, payment_method, risk_score, risk_level, status,
	gender, age, channel, source, note,
	approved_at, confirmation_sent_at, customer_confirmed_at, cancelled_at, paid_at, shipped_at, completed_at,
	rejection_reason, verification_reason, cancellation_reason, created_at, updated_at`

type OrderRepository struct {
	db *db.DB
}

type OrderStorageRepositoryI interface {
	Create(ctx context.Context, order models.Order) (*models.Order, error)
	GetByID(ctx context.Context, userID int, id int64) (*models.Order, error)
	ListByUser(ctx context.Context, userID int) ([]models.Order, error)
	Transition(ctx context.Context, userID int, id int64, rule lifecycle.Rule, reason string) (*models.Order, error)
	UpdateCommercial(ctx context.Context, order models.Order) (*models.Order, error)
	DeleteMany(ctx context.Context, userID int, ids []int64) ([]int64, error)
	ExistingCodes(ctx context.Context, userID int, codes []string) ([]string, error)
	StatusHistoryByPhone(ctx context.Context, userID int, phone string) ([]models.OrderStatus, error)
}

func NewOrderRepository(dbObj *db.DB) *OrderRepository {
	return &OrderRepository{db: dbObj}
}

func (repository *OrderRepository) Create(ctx context.Context, order models.Order) (*models.Order, error) {
	query := `INSERT INTO orders (user_id, order_code, customer_name, phone, address, province, district, ward,
		product_id, product_name, amount, discount, shipping_fee, payment_method, risk_score, risk_level, status,
		gender, age, channel, source, note, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING ` + orderColumns

	created, err := retry.DoRetryWithResult(ctx, func() (*models.Order, error) {
		row := repository.db.Pool.QueryRow(ctx, query,
			order.UserID, order.OrderCode, order.CustomerName, order.Phone, order.Address,
			order.Province, order.District, order.Ward,
			order.ProductID, order.ProductName, order.Amount, order.Discount, order.ShippingFee,
			string(order.PaymentMethod.OrDefault()), order.RiskScore, string(order.RiskLevel), string(order.Status),
			order.Gender, order.Age, order.Channel, order.Source, order.Note, order.PaidAt,
		)
		return scanOrder(row)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, customerror.NewUniqueViolationError(fmt.Sprintf("order code %s already exists", order.OrderCode))
		}
		return nil, err
	}
	return created, nil
}

func (repository *OrderRepository) GetByID(ctx context.Context, userID int, id int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`

	order, err := retry.DoRetryWithResult(ctx, func() (*models.Order, error) {
		return scanOrder(repository.db.Pool.QueryRow(ctx, query, id, userID))
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return order, err
}

func (repository *OrderRepository) ListByUser(ctx context.Context, userID int) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	return retry.DoRetryWithResult(ctx, func() ([]models.Order, error) {
		rows, err := repository.db.Pool.Query(ctx, query, userID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		orders := []models.Order{}
		for rows.Next() {
			order, err := scanOrder(rows)
			if err != nil {
				return nil, err
			}
			orders = append(orders, *order)
		}
		return orders, rows.Err()
	})
}

// Transition атомарно меняет статус, только если текущий статус входит в rule.From.
// Если статус уже другой, возвращает ErrStaleStatus.
func (repository *OrderRepository) Transition(
	ctx context.Context,
	userID int,
	id int64,
	rule lifecycle.Rule,
	reason string,
) (*models.Order, error) {
	set := "status = $3, updated_at = now()"
	args := []any{id, userID, string(rule.To), statusStrings(rule.From)}
	if rule.TimestampColumn != "" {
		set += fmt.Sprintf(", %s = now()", rule.TimestampColumn)
	}
	if rule.ReasonColumn != "" {
		args = append(args, reason)
		set += fmt.Sprintf(", %s = $%d", rule.ReasonColumn, len(args))
	}
	query := `UPDATE orders SET ` + set + ` WHERE id = $1 AND user_id = $2 AND status = ANY($4) RETURNING ` + orderColumns

	order, err := retry.DoRetryWithResult(ctx, func() (*models.Order, error) {
		return scanOrder(repository.db.Pool.QueryRow(ctx, query, args...))
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStaleStatus
	}
	return order, err
}

// UpdateCommercial сохраняет коммерческие поля заказа. Последняя запись побеждает.
func (repository *OrderRepository) UpdateCommercial(ctx context.Context, order models.Order) (*models.Order, error) {
	query := `UPDATE orders SET customer_name = $3, phone = $4, address = $5, province = $6, district = $7, ward = $8,
		product_id = $9, product_name = $10, amount = $11, discount = $12, shipping_fee = $13, note = $14,
		updated_at = now()
		WHERE id = $1 AND user_id = $2 RETURNING ` + orderColumns

	updated, err := retry.DoRetryWithResult(ctx, func() (*models.Order, error) {
		row := repository.db.Pool.QueryRow(ctx, query,
			order.ID, order.UserID, order.CustomerName, order.Phone, order.Address,
			order.Province, order.District, order.Ward,
			order.ProductID, order.ProductName, order.Amount, order.Discount, order.ShippingFee, order.Note,
		)
		return scanOrder(row)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return updated, err
}

// DeleteMany удаляет заказы вместе со счетами в одной транзакции и возвращает
// id действительно удалённых заказов.
func (repository *OrderRepository) DeleteMany(ctx context.Context, userID int, ids []int64) ([]int64, error) {
	return retry.DoRetryWithResult(ctx, func() ([]int64, error) {
		tx, err := repository.db.Pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		_, err = tx.Exec(ctx, `DELETE FROM invoices WHERE user_id = $1 AND order_id = ANY($2)`, userID, ids)
		if err != nil {
			_ = tx.Rollback(ctx)
			return nil, err
		}

		rows, err := tx.Query(ctx, `DELETE FROM orders WHERE user_id = $1 AND id = ANY($2) RETURNING id`, userID, ids)
		if err != nil {
			_ = tx.Rollback(ctx)
			return nil, err
		}
		deleted := []int64{}
		for rows.Next() {
			var id int64
			if err = rows.Scan(&id); err != nil {
				rows.Close()
				_ = tx.Rollback(ctx)
				return nil, err
			}
			deleted = append(deleted, id)
		}
		rows.Close()
		if err = rows.Err(); err != nil {
			_ = tx.Rollback(ctx)
			return nil, err
		}

		if err = tx.Commit(ctx); err != nil {
			return nil, err
		}
		return deleted, nil
	})
}

// ExistingCodes возвращает коды из codes, которые уже есть у пользователя.
// Разбиение на части остаётся на вызывающей стороне.
func (repository *OrderRepository) ExistingCodes(ctx context.Context, userID int, codes []string) ([]string, error) {
	query := `SELECT order_code FROM orders WHERE user_id = $1 AND order_code = ANY($2)`

	return retry.DoRetryWithResult(ctx, func() ([]string, error) {
		rows, err := repository.db.Pool.Query(ctx, query, userID, codes)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		existing := []string{}
		for rows.Next() {
			var code string
			if err = rows.Scan(&code); err != nil {
				return nil, err
			}
			existing = append(existing, code)
		}
		return existing, rows.Err()
	})
}

func (repository *OrderRepository) StatusHistoryByPhone(
	ctx context.Context,
	userID int,
	phone string,
) ([]models.OrderStatus, error) {
	query := `SELECT status FROM orders WHERE user_id = $1 AND phone = $2 ORDER BY created_at`

	return retry.DoRetryWithResult(ctx, func() ([]models.OrderStatus, error) {
		rows, err := repository.db.Pool.Query(ctx, query, userID, phone)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		statuses := []models.OrderStatus{}
		for rows.Next() {
			var status string
			if err = rows.Scan(&status); err != nil {
				return nil, err
			}
			statuses = append(statuses, models.OrderStatus(status))
		}
		return statuses, rows.Err()
	})
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		order                                 models.Order
		paymentMethod, riskLevel, status      string
		rejection, verification, cancellation *string
	)
	err := row.Scan(
		&order.ID, &order.UserID, &order.OrderCode, &order.CustomerName, &order.Phone, &order.Address,
		&order.Province, &order.District, &order.Ward,
		&order.ProductID, &order.ProductName, &order.Amount, &order.Discount, &order.ShippingFee,
		&paymentMethod, &order.RiskScore, &riskLevel, &status,
		&order.Gender, &order.Age, &order.Channel, &order.Source, &order.Note,
		&order.ApprovedAt, &order.ConfirmationSentAt, &order.CustomerConfirmedAt, &order.CancelledAt,
		&order.PaidAt, &order.ShippedAt, &order.CompletedAt,
		&rejection, &verification, &cancellation, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	order.PaymentMethod = models.PaymentMethod(paymentMethod)
	order.RiskLevel = models.RiskLevel(riskLevel)
	order.Status = models.OrderStatus(status)
	order.RejectionReason = deref(rejection)
	order.VerificationReason = deref(verification)
	order.CancellationReason = deref(cancellation)
	return &order, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func statusStrings(statuses []models.OrderStatus) []string {
	out := make([]string, len(statuses))
	for i, status := range statuses {
		out[i] = string(status)
	}
	return out
}
