package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/louvornalaje/distribuidora-sub000/internal/domain"
	"github.com/louvornalaje/distribuidora-sub000/internal/repository"
)

// StockReconciler adjusts per-product stock counters so they track the set of
// stock-consuming order lines. Each delta is pushed into the store as a single
// atomic increment; the reconciler itself never does read-modify-write.
type StockReconciler struct {
	catalog repository.ProductRepository
	logger  *slog.Logger
}

// NewStockReconciler creates a stock reconciler over the given catalog.
func NewStockReconciler(catalog repository.ProductRepository, logger *slog.Logger) *StockReconciler {
	return &StockReconciler{catalog: catalog, logger: logger}
}

// ApplyDelta applies a signed delta to one product's counter and returns the
// new value. Negative results are permitted on the consuming path and logged.
func (r *StockReconciler) ApplyDelta(ctx context.Context, productID string, delta int) (int, error) {
	newValue, err := r.catalog.AdjustStock(ctx, productID, delta)
	if err != nil {
		return 0, fmt.Errorf("apply stock delta %+d to product %s: %w", delta, productID, err)
	}

	if newValue < 0 {
		r.logger.WarnContext(ctx, "stock went negative",
			slog.String("product_id", productID),
			slog.Int("delta", delta),
			slog.Int("stock_on_hand", newValue),
		)
	}

	return newValue, nil
}

// ApplyLineSet applies one delta per line in the given direction. Lines are
// processed independently: if one adjustment fails, prior adjustments in the
// same call remain applied. The returned slice names the steps that completed
// so a failure can be surfaced as a partial one.
func (r *StockReconciler) ApplyLineSet(ctx context.Context, lines []domain.OrderLine, effect domain.StockEffect) ([]string, error) {
	if effect == domain.StockNone {
		return nil, nil
	}

	completed := make([]string, 0, len(lines))
	for _, l := range lines {
		delta := lineDelta(l, effect)
		if delta == 0 {
			continue
		}
		if _, err := r.ApplyDelta(ctx, l.ProductID, delta); err != nil {
			return completed, err
		}
		completed = append(completed, fmt.Sprintf("stock %+d product %s", delta, l.ProductID))
	}

	return completed, nil
}

// ManualAdjust applies an operator-entered delta, clamped at zero. Unlike the
// reconciling path, manual edits never leave a negative counter behind.
func (r *StockReconciler) ManualAdjust(ctx context.Context, productID string, delta int) (int, error) {
	newValue, err := r.catalog.AdjustStock(ctx, productID, delta)
	if err != nil {
		return 0, fmt.Errorf("manual stock adjust for product %s: %w", productID, err)
	}

	if newValue < 0 {
		if err := r.catalog.SetStock(ctx, productID, 0); err != nil {
			return 0, fmt.Errorf("clamp stock for product %s: %w", productID, err)
		}
		newValue = 0
	}

	r.logger.InfoContext(ctx, "manual stock adjustment",
		slog.String("product_id", productID),
		slog.Int("delta", delta),
		slog.Int("stock_on_hand", newValue),
	)

	return newValue, nil
}

// lineDelta converts a line quantity into a signed integer stock delta.
// Fractional quantities (weight-based units) round to the nearest whole unit.
func lineDelta(l domain.OrderLine, effect domain.StockEffect) int {
	qty := int(l.Quantity.Round(0).IntPart())
	if effect == domain.StockConsume {
		return -qty
	}
	return qty
}
