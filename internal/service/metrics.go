package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/louvornalaje/distribuidora-sub000/internal/domain"
	"github.com/louvornalaje/distribuidora-sub000/internal/repository"
)

// snapshotPageSize is the page size used when pulling the full order set.
const snapshotPageSize = 500

// MetricsService derives dashboard figures from the current order set. All
// outputs are recomputed from scratch on every call.
type MetricsService struct {
	orders repository.OrderRepository
	logger *slog.Logger
}

// NewMetricsService creates a new metrics service.
func NewMetricsService(orders repository.OrderRepository, logger *slog.Logger) *MetricsService {
	return &MetricsService{orders: orders, logger: logger}
}

// Dashboard loads a snapshot of all orders and aggregates it.
func (s *MetricsService) Dashboard(ctx context.Context) (*domain.DashboardMetrics, error) {
	var all []domain.Order
	for page := 1; ; page++ {
		orders, total, err := s.orders.List(ctx, repository.OrderFilter{Page: page, PerPage: snapshotPageSize})
		if err != nil {
			return nil, fmt.Errorf("load order snapshot: %w", err)
		}
		all = append(all, orders...)
		if len(all) >= total || len(orders) == 0 {
			break
		}
	}

	metrics := Aggregate(all, time.Now().UTC())

	s.logger.DebugContext(ctx, "dashboard computed",
		slog.Int("order_count", len(all)),
		slog.Int("sales_count", metrics.SalesCount),
	)

	return &metrics, nil
}

// Aggregate computes dashboard metrics over an order snapshot. Cancelled
// orders are excluded from every figure except their own existence; every
// non-cancelled order lands in exactly one of paid/outstanding and exactly
// one of pending/delivered.
func Aggregate(orders []domain.Order, now time.Time) domain.DashboardMetrics {
	m := domain.DashboardMetrics{
		RevenueTotal:   decimal.Zero,
		RevenueMonth:   decimal.Zero,
		Received:       decimal.Zero,
		Outstanding:    decimal.Zero,
		AverageTicket:  decimal.Zero,
		UnitsByProduct: make(map[string]decimal.Decimal),
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	for _, o := range orders {
		if o.Status == domain.StatusCancelled {
			continue
		}

		inMonth := !o.OrderDate.Before(monthStart)

		m.SalesCount++
		m.RevenueTotal = m.RevenueTotal.Add(o.Total)
		if inMonth {
			m.SalesCountMonth++
			m.RevenueMonth = m.RevenueMonth.Add(o.Total)
		}

		if o.Paid {
			m.Received = m.Received.Add(o.Total)
		} else {
			m.Outstanding = m.Outstanding.Add(o.Total)
		}

		switch o.Status {
		case domain.StatusPending:
			m.PendingDeliveries++
		case domain.StatusDelivered:
			m.Delivered++
		}

		if inMonth {
			for _, l := range o.Lines {
				m.UnitsByProduct[l.ProductCode] = m.UnitsByProduct[l.ProductCode].Add(l.Quantity)
			}
		}
	}

	if m.SalesCount > 0 {
		m.AverageTicket = m.RevenueTotal.DivRound(decimal.NewFromInt(int64(m.SalesCount)), 2)
	}

	return m
}
