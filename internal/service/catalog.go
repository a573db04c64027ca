package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/louvornalaje/distribuidora-sub000/internal/domain"
	"github.com/louvornalaje/distribuidora-sub000/internal/event"
	"github.com/louvornalaje/distribuidora-sub000/internal/repository"
)

// CatalogService exposes the read side of the catalog plus the manual stock
// adjustment operators use to correct counters.
type CatalogService struct {
	catalog  repository.ProductRepository
	stock    *StockReconciler
	producer *event.Producer
	logger   *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(catalog repository.ProductRepository, stock *StockReconciler, producer *event.Producer, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		catalog:  catalog,
		stock:    stock,
		producer: producer,
		logger:   logger,
	}
}

// GetProduct retrieves a product by its ID.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return p, nil
}

// ListProducts returns all products ordered by code.
func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// AdjustStock applies an operator-entered delta, clamped at zero, and
// publishes a stock.adjusted event.
func (s *CatalogService) AdjustStock(ctx context.Context, productID string, delta int) (int, error) {
	newValue, err := s.stock.ManualAdjust(ctx, productID, delta)
	if err != nil {
		return 0, err
	}

	if err := s.producer.PublishStockAdjusted(ctx, productID, delta, newValue, true); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish stock.adjusted event",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}

	return newValue, nil
}
