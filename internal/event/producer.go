package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/louvornalaje/distribuidora-sub000/internal/domain"
	pkgkafka "github.com/louvornalaje/distribuidora-sub000/pkg/kafka"
)

// Kafka topic constants for sale domain events.
const (
	TopicSaleCreated       = "distribuidora.sale.created"
	TopicSaleStatusChanged = "distribuidora.sale.status_changed"
	TopicSaleDeleted       = "distribuidora.sale.deleted"
	TopicStockAdjusted     = "distribuidora.stock.adjusted"
)

// Aggregate type constants.
const (
	AggregateTypeSale    = "sale"
	AggregateTypeProduct = "product"
)

// Source identifier for events originating from this service.
const SourceSalesService = "sales-service"

// SaleCreatedData is the payload for a sale.created event (full sale snapshot).
type SaleCreatedData struct {
	ID            string          `json:"id"`
	ContactID     string          `json:"contact_id"`
	ContactName   string          `json:"contact_name"`
	Status        string          `json:"status"`
	Paid          bool            `json:"paid"`
	PaymentMethod string          `json:"payment_method"`
	DeliveryFee   decimal.Decimal `json:"delivery_fee"`
	Total         decimal.Decimal `json:"total"`
	Lines         []SaleLineData  `json:"lines"`
}

// SaleLineData is the event payload for one sale line.
type SaleLineData struct {
	ProductID   string          `json:"product_id"`
	ProductCode string          `json:"product_code"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// SaleStatusChangedData is the payload for a sale.status_changed event.
type SaleStatusChangedData struct {
	SaleID    string `json:"sale_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// SaleDeletedData is the payload for a sale.deleted event.
type SaleDeletedData struct {
	SaleID        string `json:"sale_id"`
	StockRestored bool   `json:"stock_restored"`
}

// StockAdjustedData is the payload for a stock.adjusted event.
type StockAdjustedData struct {
	ProductID string `json:"product_id"`
	Delta     int    `json:"delta"`
	NewValue  int    `json:"new_value"`
	Manual    bool   `json:"manual"`
}

// Producer publishes sale domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the sales service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishSaleCreated publishes a sale.created event with the full sale snapshot.
func (p *Producer) PublishSaleCreated(ctx context.Context, order *domain.Order) error {
	lines := make([]SaleLineData, len(order.Lines))
	for i, l := range order.Lines {
		lines[i] = SaleLineData{
			ProductID:   l.ProductID,
			ProductCode: l.ProductCode,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Subtotal,
		}
	}

	data := SaleCreatedData{
		ID:            order.ID,
		ContactID:     order.ContactID,
		ContactName:   order.ContactName,
		Status:        order.Status,
		Paid:          order.Paid,
		PaymentMethod: order.PaymentMethod,
		DeliveryFee:   order.DeliveryFee,
		Total:         order.Total,
		Lines:         lines,
	}

	event, err := pkgkafka.NewEvent(TopicSaleCreated, order.ID, AggregateTypeSale, SourceSalesService, data)
	if err != nil {
		return fmt.Errorf("create sale.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicSaleCreated, event); err != nil {
		return fmt.Errorf("publish sale.created event: %w", err)
	}

	return nil
}

// PublishSaleStatusChanged publishes a sale.status_changed event.
func (p *Producer) PublishSaleStatusChanged(ctx context.Context, saleID, oldStatus, newStatus string) error {
	data := SaleStatusChangedData{SaleID: saleID, OldStatus: oldStatus, NewStatus: newStatus}

	event, err := pkgkafka.NewEvent(TopicSaleStatusChanged, saleID, AggregateTypeSale, SourceSalesService, data)
	if err != nil {
		return fmt.Errorf("create sale.status_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicSaleStatusChanged, event); err != nil {
		return fmt.Errorf("publish sale.status_changed event: %w", err)
	}

	return nil
}

// PublishSaleDeleted publishes a sale.deleted event.
func (p *Producer) PublishSaleDeleted(ctx context.Context, saleID string, stockRestored bool) error {
	data := SaleDeletedData{SaleID: saleID, StockRestored: stockRestored}

	event, err := pkgkafka.NewEvent(TopicSaleDeleted, saleID, AggregateTypeSale, SourceSalesService, data)
	if err != nil {
		return fmt.Errorf("create sale.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicSaleDeleted, event); err != nil {
		return fmt.Errorf("publish sale.deleted event: %w", err)
	}

	return nil
}

// PublishStockAdjusted publishes a stock.adjusted event for a manual counter edit.
func (p *Producer) PublishStockAdjusted(ctx context.Context, productID string, delta, newValue int, manual bool) error {
	data := StockAdjustedData{ProductID: productID, Delta: delta, NewValue: newValue, Manual: manual}

	event, err := pkgkafka.NewEvent(TopicStockAdjusted, productID, AggregateTypeProduct, SourceSalesService, data)
	if err != nil {
		return fmt.Errorf("create stock.adjusted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicStockAdjusted, event); err != nil {
		return fmt.Errorf("publish stock.adjusted event: %w", err)
	}

	return nil
}
