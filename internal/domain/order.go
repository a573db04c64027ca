package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order status constants. The persisted vocabulary is Portuguese, matching
// the data set this service was built around.
const (
	StatusPending   = "pendente"
	StatusDelivered = "entregue"
	StatusCancelled = "cancelada"
)

// Payment method constants.
const (
	PaymentPix      = "pix"
	PaymentCash     = "dinheiro"
	PaymentCard     = "cartao"
	PaymentDeferred = "fiado"
	PaymentGift     = "brinde"
)

// StockEffect describes what a status transition does to the stock counters
// of the order's lines.
type StockEffect int

const (
	// StockNone leaves stock untouched.
	StockNone StockEffect = iota
	// StockRestore credits each line's quantity back to its product.
	StockRestore
	// StockConsume debits each line's quantity from its product.
	StockConsume
)

// Order represents a customer sale.
type Order struct {
	ID            string          `json:"id"`
	ContactID     string          `json:"contact_id"`
	ContactName   string          `json:"contact_name"`
	Status        string          `json:"status"`
	Paid          bool            `json:"paid"`
	PaymentMethod string          `json:"payment_method"`
	DeliveryFee   decimal.Decimal `json:"delivery_fee"`
	Total         decimal.Decimal `json:"total"`
	Notes         string          `json:"notes,omitempty"`
	OrderDate     time.Time       `json:"order_date"`
	DeliveryDate  *time.Time      `json:"delivery_date,omitempty"`
	Lines         []OrderLine     `json:"lines"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ValidStatuses returns all valid order statuses.
func ValidStatuses() []string {
	return []string{StatusPending, StatusDelivered, StatusCancelled}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// ValidPaymentMethods returns all accepted payment methods.
func ValidPaymentMethods() []string {
	return []string{PaymentPix, PaymentCash, PaymentCard, PaymentDeferred, PaymentGift}
}

// IsValidPaymentMethod checks if a payment method string is valid.
func IsValidPaymentMethod(method string) bool {
	for _, m := range ValidPaymentMethods() {
		if m == method {
			return true
		}
	}
	return false
}

// transition is one legal edge of the status state machine together with its
// stock side effect. All legality and side-effect decisions live in this
// table; call sites never decide on their own.
type transition struct {
	from, to string
	effect   StockEffect
}

var transitions = []transition{
	{StatusPending, StatusDelivered, StockNone},
	{StatusDelivered, StatusPending, StockNone},
	{StatusPending, StatusCancelled, StockRestore},
	{StatusDelivered, StatusCancelled, StockRestore},
	{StatusCancelled, StatusPending, StockConsume},
}

// Transition reports whether moving from the order's current status to the
// target is legal, and if so what stock effect the move carries.
func (o *Order) Transition(target string) (StockEffect, bool) {
	for _, t := range transitions {
		if t.from == o.Status && t.to == target {
			return t.effect, true
		}
	}
	return StockNone, false
}

// StockConsuming reports whether the order's lines are currently subtracted
// from stock. Cancelled orders have had their stock restored.
func (o *Order) StockConsuming() bool {
	return o.Status != StatusCancelled
}

// ComputeTotal returns deliveryFee plus the sum of all line subtotals.
func ComputeTotal(deliveryFee decimal.Decimal, lines []OrderLine) decimal.Decimal {
	total := deliveryFee
	for _, l := range lines {
		total = total.Add(l.Subtotal)
	}
	return total
}
