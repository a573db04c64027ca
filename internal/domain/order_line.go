package domain

import "github.com/shopspring/decimal"

// OrderLine is one product-quantity-price entry belonging to an order.
// UnitPrice is a snapshot taken when the line is created; it is never
// re-read from the catalog afterwards.
type OrderLine struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	ProductID   string          `json:"product_id"`
	ProductCode string          `json:"product_code"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// ComputeSubtotal returns quantity times unit price.
func (l *OrderLine) ComputeSubtotal() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}
