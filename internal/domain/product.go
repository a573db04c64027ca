package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry whose stock counter this service reconciles.
// StockOnHand may go negative on the consuming path; only manual adjustments
// clamp at zero.
type Product struct {
	ID          string          `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	StockOnHand int             `json:"stock_on_hand"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
