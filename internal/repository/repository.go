package repository

import (
	"context"
	"time"

	"github.com/louvornalaje/distribuidora-sub000/internal/domain"
)

// OrderFilter defines filter criteria for listing orders.
type OrderFilter struct {
	Status        *string
	PaymentMethod *string
	ContactID     *string
	Paid          *bool
	From          *time.Time
	To            *time.Time
	Search        *string
	Page          int
	PerPage       int
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// Create inserts a new order and its lines into the store atomically.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by its unique identifier, including lines.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// List returns orders matching the given filter along with the total count.
	// Lines are loaded for every returned order.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// Replace overwrites the order header and replaces the full line set in
	// one transaction. Lines are never patched in place.
	Replace(ctx context.Context, order *domain.Order) error

	// UpdateStatus changes the status of an order.
	UpdateStatus(ctx context.Context, id string, status string) error

	// SetPaid flips the paid flag on an order.
	SetPaid(ctx context.Context, id string, paid bool) error

	// Delete removes the order and all its lines atomically.
	Delete(ctx context.Context, id string) error
}

// ProductRepository is the catalog port: read-by-id plus stock updates.
// AdjustStock must be atomic with respect to concurrent callers.
type ProductRepository interface {
	// GetByID retrieves a product by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// List returns all products ordered by code.
	List(ctx context.Context) ([]domain.Product, error)

	// AdjustStock applies a signed delta to the product's stock counter as a
	// single server-side increment and returns the resulting value.
	AdjustStock(ctx context.Context, id string, delta int) (int, error)

	// SetStock overwrites the stock counter with an absolute value.
	SetStock(ctx context.Context, id string, value int) error
}
