package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/louvornalaje/distribuidora-sub000/internal/domain"
	"github.com/louvornalaje/distribuidora-sub000/internal/repository"
)

func metricOrder(status string, paid bool, total string, orderDate time.Time, lines ...domain.OrderLine) domain.Order {
	return domain.Order{
		ID:        "o-" + total + "-" + status,
		Status:    status,
		Paid:      paid,
		Total:     decimal.RequireFromString(total),
		OrderDate: orderDate,
		Lines:     lines,
	}
}

func TestAggregate(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	thisMonth := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2026, time.February, 20, 0, 0, 0, 0, time.UTC)

	orders := []domain.Order{
		metricOrder(domain.StatusPending, false, "25.00", thisMonth,
			domain.OrderLine{ProductCode: "AGUA20L", Quantity: decimal.NewFromInt(2)}),
		metricOrder(domain.StatusDelivered, true, "40.00", thisMonth,
			domain.OrderLine{ProductCode: "AGUA20L", Quantity: decimal.NewFromInt(1)},
			domain.OrderLine{ProductCode: "GAS13KG", Quantity: decimal.NewFromInt(1)}),
		metricOrder(domain.StatusDelivered, true, "100.00", lastMonth,
			domain.OrderLine{ProductCode: "GAS13KG", Quantity: decimal.NewFromInt(1)}),
		metricOrder(domain.StatusCancelled, false, "999.00", thisMonth,
			domain.OrderLine{ProductCode: "AGUA20L", Quantity: decimal.NewFromInt(50)}),
	}

	m := Aggregate(orders, now)

	assert.Equal(t, 3, m.SalesCount)
	assert.Equal(t, 2, m.SalesCountMonth)
	assert.True(t, m.RevenueTotal.Equal(decimal.RequireFromString("165.00")), "revenue total %s", m.RevenueTotal)
	assert.True(t, m.RevenueMonth.Equal(decimal.RequireFromString("65.00")))
	assert.True(t, m.Received.Equal(decimal.RequireFromString("140.00")))
	assert.True(t, m.Outstanding.Equal(decimal.RequireFromString("25.00")))
	assert.Equal(t, 1, m.PendingDeliveries)
	assert.Equal(t, 2, m.Delivered)
	assert.True(t, m.AverageTicket.Equal(decimal.RequireFromString("55.00")))

	// Units sold restricted to the current month; cancelled orders excluded.
	assert.True(t, m.UnitsByProduct["AGUA20L"].Equal(decimal.NewFromInt(3)))
	assert.True(t, m.UnitsByProduct["GAS13KG"].Equal(decimal.NewFromInt(1)))
}

func TestAggregate_Completeness(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	// A mixed bag of orders across statuses and payment states.
	statuses := []string{domain.StatusPending, domain.StatusDelivered, domain.StatusCancelled}
	var orders []domain.Order
	for i := 0; i < 30; i++ {
		orders = append(orders, metricOrder(
			statuses[i%3],
			i%2 == 0,
			decimal.NewFromInt(int64(10+i)).String(),
			now.AddDate(0, -(i % 4), 0),
		))
	}

	m := Aggregate(orders, now)

	nonCancelled := 0
	for _, o := range orders {
		if o.Status != domain.StatusCancelled {
			nonCancelled++
		}
	}

	// Every non-cancelled order lands in exactly one of paid/outstanding and
	// exactly one of pending/delivered.
	assert.Equal(t, nonCancelled, m.PendingDeliveries+m.Delivered)
	assert.True(t, m.RevenueTotal.Equal(m.Received.Add(m.Outstanding)))
	assert.Equal(t, nonCancelled, m.SalesCount)
}

func TestAggregate_EmptySnapshot(t *testing.T) {
	m := Aggregate(nil, time.Now().UTC())

	assert.Equal(t, 0, m.SalesCount)
	assert.True(t, m.RevenueTotal.IsZero())
	assert.True(t, m.AverageTicket.IsZero())
	assert.Empty(t, m.UnitsByProduct)
}

func TestDashboard_PagesThroughSnapshot(t *testing.T) {
	repo := new(mockOrderRepository)
	svc := NewMetricsService(repo, newTestLogger())

	now := time.Now().UTC()
	pageOne := make([]domain.Order, snapshotPageSize)
	for i := range pageOne {
		pageOne[i] = metricOrder(domain.StatusPending, false, "10.00", now)
	}
	pageTwo := []domain.Order{metricOrder(domain.StatusDelivered, true, "20.00", now)}
	total := len(pageOne) + len(pageTwo)

	repo.On("List", mock.Anything, repository.OrderFilter{Page: 1, PerPage: snapshotPageSize}).
		Return(pageOne, total, nil)
	repo.On("List", mock.Anything, repository.OrderFilter{Page: 2, PerPage: snapshotPageSize}).
		Return(pageTwo, total, nil)

	m, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, total, m.SalesCount)
	assert.Equal(t, 1, m.Delivered)
	repo.AssertExpectations(t)
}
