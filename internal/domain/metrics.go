package domain

import "github.com/shopspring/decimal"

// DashboardMetrics are the figures derived from the current order set.
// Everything is recomputed from scratch on every call; there is no cached
// state.
type DashboardMetrics struct {
	RevenueTotal      decimal.Decimal            `json:"revenue_total"`
	RevenueMonth      decimal.Decimal            `json:"revenue_month"`
	Received          decimal.Decimal            `json:"received"`
	Outstanding       decimal.Decimal            `json:"outstanding"`
	SalesCount        int                        `json:"sales_count"`
	SalesCountMonth   int                        `json:"sales_count_month"`
	AverageTicket     decimal.Decimal            `json:"average_ticket"`
	PendingDeliveries int                        `json:"pending_deliveries"`
	Delivered         int                        `json:"delivered"`
	UnitsByProduct    map[string]decimal.Decimal `json:"units_by_product"`
}
