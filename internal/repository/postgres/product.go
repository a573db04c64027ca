package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/louvornalaje/distribuidora-sub000/internal/domain"
	"github.com/louvornalaje/distribuidora-sub000/pkg/database"
	apperrors "github.com/louvornalaje/distribuidora-sub000/pkg/errors"
)

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `id, code, name, unit_price, unit_cost, stock_on_hand, created_at, updated_at`

// GetByID retrieves a product by its unique identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p domain.Product
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Code,
		&p.Name,
		&p.UnitPrice,
		&p.UnitCost,
		&p.StockOnHand,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	return &p, nil
}

// List returns all products ordered by code.
func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY code`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID,
			&p.Code,
			&p.Name,
			&p.UnitPrice,
			&p.UnitCost,
			&p.StockOnHand,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

// AdjustStock applies a signed delta as a single server-side increment, which
// keeps concurrent adjustments from losing updates. Returns the new value.
func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	query := `
		UPDATE products
		SET stock_on_hand = stock_on_hand + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING stock_on_hand`

	var newValue int
	err := r.pool.QueryRow(ctx, query, delta, id).Scan(&newValue)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.NotFound("product", id)
		}
		return 0, fmt.Errorf("adjust stock: %w", err)
	}

	return newValue, nil
}

// SetStock overwrites the stock counter with an absolute value.
func (r *ProductRepository) SetStock(ctx context.Context, id string, value int) error {
	query := `
		UPDATE products
		SET stock_on_hand = $1, updated_at = NOW()
		WHERE id = $2`

	ct, err := r.pool.Exec(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("set stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}

	return nil
}
