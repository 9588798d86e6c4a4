package repository

import (
	"context"

	"github.com/Bessima/orderflow/internal/config/db"
	"github.com/Bessima/orderflow/internal/models"
	"github.com/Bessima/orderflow/internal/retry"
)

const productColumns = `id, user_id, name, normalized_name, price, is_active, created_at`

type ProductRepository struct {
	db *db.DB
}

type ProductStorageRepositoryI interface {
	ListActive(ctx context.Context, userID int) ([]models.Product, error)
	GetByIDs(ctx context.Context, userID int, ids []int64) ([]models.Product, error)
	FindMissingNames(ctx context.Context, userID int, normalizedNames []string) ([]string, error)
	Create(ctx context.Context, product models.Product) (*models.Product, error)
}

func NewProductRepository(dbObj *db.DB) *ProductRepository {
	return &ProductRepository{db: dbObj}
}

func (repository *ProductRepository) ListActive(ctx context.Context, userID int) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE user_id = $1 AND is_active ORDER BY name`
	return repository.list(ctx, query, userID)
}

func (repository *ProductRepository) GetByIDs(ctx context.Context, userID int, ids []int64) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE user_id = $1 AND id = ANY($2) AND is_active`
	return repository.list(ctx, query, userID, ids)
}

// FindMissingNames возвращает нормализованные имена, для которых нет активного товара.
func (repository *ProductRepository) FindMissingNames(
	ctx context.Context,
	userID int,
	normalizedNames []string,
) ([]string, error) {
	query := `SELECT name FROM unnest($2::text[]) AS name
		WHERE NOT EXISTS (
			SELECT 1 FROM products p WHERE p.user_id = $1 AND p.is_active AND p.normalized_name = name
		)
		ORDER BY name`

	return retry.DoRetryWithResult(ctx, func() ([]string, error) {
		rows, err := repository.db.Pool.Query(ctx, query, userID, normalizedNames)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		missing := []string{}
		for rows.Next() {
			var name string
			if err = rows.Scan(&name); err != nil {
				return nil, err
			}
			missing = append(missing, name)
		}
		return missing, rows.Err()
	})
}

func (repository *ProductRepository) list(ctx context.Context, query string, args ...any) ([]models.Product, error) {
	return retry.DoRetryWithResult(ctx, func() ([]models.Product, error) {
		rows, err := repository.db.Pool.Query(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		products := []models.Product{}
		for rows.Next() {
			var product models.Product
			err = rows.Scan(
				&product.ID, &product.UserID, &product.Name, &product.NormalizedName,
				&product.Price, &product.IsActive, &product.CreatedAt,
			)
			if err != nil {
				return nil, err
			}
			products = append(products, product)
		}
		return products, rows.Err()
	})
}

// Create добавляет товар в каталог или снова активирует товар с тем же именем.
func (repository *ProductRepository) Create(ctx context.Context, product models.Product) (*models.Product, error) {
	query := `INSERT INTO products (user_id, name, normalized_name, price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, normalized_name) DO UPDATE SET is_active = TRUE, name = EXCLUDED.name
		RETURNING ` + productColumns

	return retry.DoRetryWithResult(ctx, func() (*models.Product, error) {
		row := repository.db.Pool.QueryRow(ctx, query, product.UserID, product.Name, product.NormalizedName, product.Price)
		var created models.Product
		err := row.Scan(
			&created.ID, &created.UserID, &created.Name, &created.NormalizedName,
			&created.Price, &created.IsActive, &created.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		return &created, nil
	})
}
