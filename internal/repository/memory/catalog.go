package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/louvornalaje/distribuidora-sub000/internal/domain"
	apperrors "github.com/louvornalaje/distribuidora-sub000/pkg/errors"
)

// Catalog is an in-memory repository.ProductRepository. AdjustStock holds the
// mutex across the read-modify-write, giving the same lost-update safety as
// the SQL-side atomic increment. Used in tests and as a standalone-mode
// catalog.
type Catalog struct {
	mu       sync.Mutex
	products map[string]*domain.Product
}

// NewCatalog creates an empty in-memory catalog.
func NewCatalog() *Catalog {
	return &Catalog{products: make(map[string]*domain.Product)}
}

// Put inserts or replaces a product.
func (c *Catalog) Put(p domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := p
	c.products[p.ID] = &cp
}

// GetByID retrieves a copy of the product.
func (c *Catalog) GetByID(_ context.Context, id string) (*domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	cp := *p
	return &cp, nil
}

// List returns all products ordered by code.
func (c *Catalog) List(_ context.Context) ([]domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	products := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		products = append(products, *p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Code < products[j].Code })
	return products, nil
}

// AdjustStock applies a signed delta under the lock and returns the new value.
func (c *Catalog) AdjustStock(_ context.Context, id string, delta int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[id]
	if !ok {
		return 0, apperrors.NotFound("product", id)
	}
	p.StockOnHand += delta
	return p.StockOnHand, nil
}

// SetStock overwrites the stock counter with an absolute value.
func (c *Catalog) SetStock(_ context.Context, id string, value int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[id]
	if !ok {
		return apperrors.NotFound("product", id)
	}
	p.StockOnHand = value
	return nil
}
