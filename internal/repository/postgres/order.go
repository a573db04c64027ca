package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/louvornalaje/distribuidora-sub000/internal/domain"
	"github.com/louvornalaje/distribuidora-sub000/internal/repository"
	"github.com/louvornalaje/distribuidora-sub000/pkg/database"
	apperrors "github.com/louvornalaje/distribuidora-sub000/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `id, contact_id, contact_name, status, paid, payment_method, delivery_fee, total, notes, order_date, delivery_date, created_at, updated_at`

// Create inserts a new order and its lines atomically within a transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	orderQuery := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = tx.Exec(ctx, orderQuery,
		o.ID,
		o.ContactID,
		o.ContactName,
		o.Status,
		o.Paid,
		o.PaymentMethod,
		o.DeliveryFee,
		o.Total,
		o.Notes,
		o.OrderDate,
		o.DeliveryDate,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if err := insertLines(ctx, tx, o.Lines); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Replace overwrites the order header and swaps the full line set in a single
// transaction. Edits always delete-and-reinsert lines, never patch them.
func (r *OrderRepository) Replace(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	headerQuery := `
		UPDATE orders
		SET contact_id = $1, contact_name = $2, status = $3, paid = $4,
			payment_method = $5, delivery_fee = $6, total = $7, notes = $8,
			order_date = $9, delivery_date = $10, updated_at = $11
		WHERE id = $12`

	ct, err := tx.Exec(ctx, headerQuery,
		o.ContactID,
		o.ContactName,
		o.Status,
		o.Paid,
		o.PaymentMethod,
		o.DeliveryFee,
		o.Total,
		o.Notes,
		o.OrderDate,
		o.DeliveryDate,
		o.UpdatedAt,
		o.ID,
	)
	if err != nil {
		return fmt.Errorf("update order header: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", o.ID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, o.ID); err != nil {
		return fmt.Errorf("delete old order lines: %w", err)
	}

	if err := insertLines(ctx, tx, o.Lines); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func insertLines(ctx context.Context, tx pgx.Tx, lines []domain.OrderLine) error {
	lineQuery := `
		INSERT INTO order_lines (id, order_id, product_id, product_code, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, l := range lines {
		_, err := tx.Exec(ctx, lineQuery,
			l.ID,
			l.OrderID,
			l.ProductID,
			l.ProductCode,
			l.Quantity,
			l.UnitPrice,
			l.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}
	return nil
}

// GetByID retrieves an order by its ID, eagerly loading its lines.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var o domain.Order
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&o.ID,
		&o.ContactID,
		&o.ContactName,
		&o.Status,
		&o.Paid,
		&o.PaymentMethod,
		&o.DeliveryFee,
		&o.Total,
		&o.Notes,
		&o.OrderDate,
		&o.DeliveryDate,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	lines, err := r.loadLines(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Lines = lines[o.ID]
	if o.Lines == nil {
		o.Lines = []domain.OrderLine{}
	}

	return &o, nil
}

// List returns orders matching the given filter with the total count.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	addCondition := func(expr string, value any) {
		conditions = append(conditions, fmt.Sprintf(expr, argIndex))
		args = append(args, value)
		argIndex++
	}

	if filter.Status != nil {
		addCondition("status = $%d", *filter.Status)
	}
	if filter.PaymentMethod != nil {
		addCondition("payment_method = $%d", *filter.PaymentMethod)
	}
	if filter.ContactID != nil {
		addCondition("contact_id = $%d", *filter.ContactID)
	}
	if filter.Paid != nil {
		addCondition("paid = $%d", *filter.Paid)
	}
	if filter.From != nil {
		addCondition("order_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		addCondition("order_date <= $%d", *filter.To)
	}
	if filter.Search != nil {
		addCondition("contact_name ILIKE $%d", "%"+*filter.Search+"%")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// count(*) OVER() yields the unpaginated total in the same query.
	query := fmt.Sprintf(`
		SELECT `+orderColumns+`, count(*) OVER() AS total_count
		FROM orders
		%s
		ORDER BY order_date DESC, created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var totalCount int
	orders := make([]domain.Order, 0)

	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID,
			&o.ContactID,
			&o.ContactName,
			&o.Status,
			&o.Paid,
			&o.PaymentMethod,
			&o.DeliveryFee,
			&o.Total,
			&o.Notes,
			&o.OrderDate,
			&o.DeliveryDate,
			&o.CreatedAt,
			&o.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	// Batch-load lines for all orders in one query to avoid N+1.
	if len(orders) > 0 {
		orderIDs := make([]string, len(orders))
		for i := range orders {
			orderIDs[i] = orders[i].ID
		}

		linesByOrder, err := r.loadLines(ctx, orderIDs)
		if err != nil {
			return nil, 0, err
		}

		for i := range orders {
			if lines, ok := linesByOrder[orders[i].ID]; ok {
				orders[i].Lines = lines
			} else {
				orders[i].Lines = []domain.OrderLine{}
			}
		}
	}

	return orders, totalCount, nil
}

// UpdateStatus changes the status of an order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`

	ct, err := r.pool.Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}

	return nil
}

// SetPaid flips the paid flag on an order.
func (r *OrderRepository) SetPaid(ctx context.Context, id string, paid bool) error {
	query := `UPDATE orders SET paid = $1, updated_at = $2 WHERE id = $3`

	ct, err := r.pool.Exec(ctx, query, paid, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set order paid: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}

	return nil
}

// Delete removes the order and all its lines in a single transaction.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, id); err != nil {
		return fmt.Errorf("delete order lines: %w", err)
	}

	ct, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// loadLines fetches the lines of the given orders grouped by order ID.
func (r *OrderRepository) loadLines(ctx context.Context, orderIDs []string) (map[string][]domain.OrderLine, error) {
	query := `
		SELECT id, order_id, product_id, product_code, quantity, unit_price, subtotal
		FROM order_lines
		WHERE order_id = ANY($1)
		ORDER BY id`

	rows, err := r.pool.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	byOrder := make(map[string][]domain.OrderLine, len(orderIDs))
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(
			&l.ID,
			&l.OrderID,
			&l.ProductID,
			&l.ProductCode,
			&l.Quantity,
			&l.UnitPrice,
			&l.Subtotal,
		); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		byOrder[l.OrderID] = append(byOrder[l.OrderID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order line rows: %w", err)
	}

	return byOrder, nil
}
