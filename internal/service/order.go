package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/louvornalaje/distribuidora-sub000/internal/domain"
	"github.com/louvornalaje/distribuidora-sub000/internal/event"
	"github.com/louvornalaje/distribuidora-sub000/internal/repository"
	apperrors "github.com/louvornalaje/distribuidora-sub000/pkg/errors"
)

// ContactService is the external collaborator that owns customer contacts.
type ContactService interface {
	// Exists reports whether the contact is known.
	Exists(ctx context.Context, id string) (bool, error)

	// PromoteToCustomer marks the contact as a customer and refreshes its
	// last-contact timestamp. Fire-and-forget from this service's view.
	PromoteToCustomer(ctx context.Context, id string) error
}

// OrderService orchestrates the order lifecycle: create, edit, pay, status
// transitions and delete, sequencing store writes and stock reconciliation.
type OrderService struct {
	orders   repository.OrderRepository
	catalog  repository.ProductRepository
	stock    *StockReconciler
	contacts ContactService
	producer *event.Producer
	locks    *orderLocks
	logger   *slog.Logger
}

// NewOrderService creates a new order lifecycle service.
func NewOrderService(
	orders repository.OrderRepository,
	catalog repository.ProductRepository,
	stock *StockReconciler,
	contacts ContactService,
	producer *event.Producer,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		catalog:  catalog,
		stock:    stock,
		contacts: contacts,
		producer: producer,
		locks:    newOrderLocks(),
		logger:   logger,
	}
}

// OrderLineInput holds the parameters for one order line.
type OrderLineInput struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// OrderInput holds the parameters for creating or editing an order.
type OrderInput struct {
	ContactID     string
	ContactName   string
	PaymentMethod string
	Paid          bool
	DeliveryFee   decimal.Decimal
	Notes         string
	OrderDate     time.Time
	DeliveryDate  *time.Time
	Lines         []OrderLineInput
}

// Create validates the input, persists the order with its lines, and consumes
// stock for every line. Stock failures after the order is persisted are
// surfaced as a partial failure carrying the committed steps.
func (s *OrderService) Create(ctx context.Context, input OrderInput) (*domain.Order, error) {
	if err := s.validateInput(ctx, input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	orderID := uuid.New().String()

	lines, err := s.buildLines(ctx, orderID, input.Lines)
	if err != nil {
		return nil, err
	}

	orderDate := input.OrderDate
	if orderDate.IsZero() {
		orderDate = now
	}

	order := &domain.Order{
		ID:            orderID,
		ContactID:     input.ContactID,
		ContactName:   input.ContactName,
		Status:        domain.StatusPending,
		Paid:          input.Paid,
		PaymentMethod: input.PaymentMethod,
		DeliveryFee:   input.DeliveryFee,
		Total:         domain.ComputeTotal(input.DeliveryFee, lines),
		Notes:         input.Notes,
		OrderDate:     orderDate,
		DeliveryDate:  input.DeliveryDate,
		Lines:         lines,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	completed := []string{"persist order"}
	stockSteps, err := s.stock.ApplyLineSet(ctx, lines, domain.StockConsume)
	completed = append(completed, stockSteps...)
	if err != nil {
		return nil, apperrors.NewPartialFailure("create", completed, err)
	}

	if err := s.producer.PublishSaleCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish sale.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		// Event publishing never fails the operation.
	}

	s.promoteContact(ctx, order.ContactID)

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("contact_id", order.ContactID),
		slog.String("total", order.Total.String()),
	)

	return order, nil
}

// Edit replaces the order wholesale: the new lines are validated against the
// catalog before any write, then the old lines' stock is restored, the header
// and line set are replaced in one transaction, and stock is consumed for the
// new lines. A failure between restore and consume is reported as a partial
// failure listing what committed.
func (s *OrderService) Edit(ctx context.Context, orderID string, input OrderInput) (*domain.Order, error) {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	existing, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order for edit: %w", err)
	}

	if err := s.validateInput(ctx, input); err != nil {
		return nil, err
	}

	// Resolve products up front so a missing product aborts before the old
	// lines' stock is touched.
	newLines, err := s.buildLines(ctx, orderID, input.Lines)
	if err != nil {
		return nil, err
	}

	var completed []string
	consuming := existing.StockConsuming()

	if consuming {
		restored, err := s.stock.ApplyLineSet(ctx, existing.Lines, domain.StockRestore)
		completed = append(completed, restored...)
		if err != nil {
			return nil, apperrors.NewPartialFailure("edit", completed, err)
		}
	}

	updated := &domain.Order{
		ID:            orderID,
		ContactID:     input.ContactID,
		ContactName:   input.ContactName,
		Status:        existing.Status,
		Paid:          input.Paid,
		PaymentMethod: input.PaymentMethod,
		DeliveryFee:   input.DeliveryFee,
		Total:         domain.ComputeTotal(input.DeliveryFee, newLines),
		Notes:         input.Notes,
		OrderDate:     input.OrderDate,
		DeliveryDate:  input.DeliveryDate,
		Lines:         newLines,
		CreatedAt:     existing.CreatedAt,
		UpdatedAt:     time.Now().UTC(),
	}
	if updated.OrderDate.IsZero() {
		updated.OrderDate = existing.OrderDate
	}

	if err := s.orders.Replace(ctx, updated); err != nil {
		if len(completed) > 0 {
			return nil, apperrors.NewPartialFailure("edit", completed, err)
		}
		return nil, fmt.Errorf("replace order: %w", err)
	}
	completed = append(completed, "replace order")

	if consuming {
		consumed, err := s.stock.ApplyLineSet(ctx, newLines, domain.StockConsume)
		completed = append(completed, consumed...)
		if err != nil {
			return nil, apperrors.NewPartialFailure("edit", completed, err)
		}
	}

	s.logger.InfoContext(ctx, "order edited",
		slog.String("order_id", orderID),
		slog.Int("line_count", len(newLines)),
		slog.String("total", updated.Total.String()),
	)

	return updated, nil
}

// SetPaid flips the paid flag. Header-only, no stock effect.
func (s *OrderService) SetPaid(ctx context.Context, orderID string, paid bool) error {
	if err := s.orders.SetPaid(ctx, orderID, paid); err != nil {
		return fmt.Errorf("set order paid: %w", err)
	}

	s.logger.InfoContext(ctx, "order payment flag updated",
		slog.String("order_id", orderID),
		slog.Bool("paid", paid),
	)

	return nil
}

// ChangeStatus transitions the order through the status state machine. The
// transition table decides both legality and the stock side effect:
// cancellation restores stock immediately, un-cancelling consumes it again.
func (s *OrderService) ChangeStatus(ctx context.Context, orderID, target string) (*domain.Order, error) {
	if !domain.IsValidStatus(target) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q, must be one of: %s", target, strings.Join(domain.ValidStatuses(), ", ")))
	}

	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order for status change: %w", err)
	}

	effect, ok := order.Transition(target)
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("cannot transition from %q to %q", order.Status, target))
	}

	oldStatus := order.Status

	if err := s.orders.UpdateStatus(ctx, orderID, target); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	completed := []string{"update status"}
	stockSteps, err := s.stock.ApplyLineSet(ctx, order.Lines, effect)
	completed = append(completed, stockSteps...)
	if err != nil {
		return nil, apperrors.NewPartialFailure("change_status", completed, err)
	}

	if err := s.producer.PublishSaleStatusChanged(ctx, orderID, oldStatus, target); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish sale.status_changed event",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order status changed",
		slog.String("order_id", orderID),
		slog.String("old_status", oldStatus),
		slog.String("new_status", target),
	)

	order.Status = target
	return order, nil
}

// Delete restores stock for the order's lines if it is still stock-consuming
// (cancelled orders already had theirs restored), then removes the order and
// its lines permanently. A missing order reports NotFound, which double
// invocation treats as already deleted.
func (s *OrderService) Delete(ctx context.Context, orderID string) error {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get order for delete: %w", err)
	}

	var completed []string
	restored := order.StockConsuming()

	if restored {
		steps, err := s.stock.ApplyLineSet(ctx, order.Lines, domain.StockRestore)
		completed = append(completed, steps...)
		if err != nil {
			return apperrors.NewPartialFailure("delete", completed, err)
		}
	}

	if err := s.orders.Delete(ctx, orderID); err != nil {
		if len(completed) > 0 {
			return apperrors.NewPartialFailure("delete", completed, err)
		}
		return fmt.Errorf("delete order: %w", err)
	}

	if err := s.producer.PublishSaleDeleted(ctx, orderID, restored); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish sale.deleted event",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order deleted",
		slog.String("order_id", orderID),
		slog.Bool("stock_restored", restored),
	)

	return nil
}

// Get retrieves an order by its ID.
func (s *OrderService) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order by id: %w", err)
	}
	return order, nil
}

// List returns a filtered, paginated list of orders.
func (s *OrderService) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	return orders, total, nil
}

// validateInput rejects bad input before any write happens.
func (s *OrderService) validateInput(ctx context.Context, input OrderInput) error {
	if input.ContactID == "" {
		return apperrors.InvalidInput("contact_id is required")
	}
	if len(input.Lines) == 0 {
		return apperrors.InvalidInput("order must contain at least one line")
	}
	if !domain.IsValidPaymentMethod(input.PaymentMethod) {
		return apperrors.InvalidInput(fmt.Sprintf("invalid payment method %q, must be one of: %s", input.PaymentMethod, strings.Join(domain.ValidPaymentMethods(), ", ")))
	}
	if input.DeliveryFee.IsNegative() {
		return apperrors.InvalidInput("delivery_fee must not be negative")
	}
	for i, l := range input.Lines {
		if l.ProductID == "" {
			return apperrors.InvalidInput(fmt.Sprintf("line %d: product_id is required", i))
		}
		if !l.Quantity.IsPositive() {
			return apperrors.InvalidInput(fmt.Sprintf("line %d: quantity must be positive", i))
		}
	}

	exists, err := s.contacts.Exists(ctx, input.ContactID)
	if err != nil {
		return fmt.Errorf("check contact %s: %w", input.ContactID, err)
	}
	if !exists {
		return apperrors.InvalidInput(fmt.Sprintf("contact %s does not exist", input.ContactID))
	}

	return nil
}

// buildLines resolves each input line against the catalog, snapshotting the
// unit price at this moment. A missing product aborts before any write.
func (s *OrderService) buildLines(ctx context.Context, orderID string, inputs []OrderLineInput) ([]domain.OrderLine, error) {
	lines := make([]domain.OrderLine, len(inputs))
	for i, in := range inputs {
		product, err := s.catalog.GetByID(ctx, in.ProductID)
		if err != nil {
			return nil, fmt.Errorf("resolve product %s: %w", in.ProductID, err)
		}

		line := domain.OrderLine{
			ID:          uuid.New().String(),
			OrderID:     orderID,
			ProductID:   product.ID,
			ProductCode: product.Code,
			Quantity:    in.Quantity,
			UnitPrice:   product.UnitPrice,
		}
		line.Subtotal = line.ComputeSubtotal()
		lines[i] = line
	}
	return lines, nil
}

// promoteContact marks the contact as a customer after a successful sale.
// Fire and forget: failure is logged, never rolled back into the order.
func (s *OrderService) promoteContact(ctx context.Context, contactID string) {
	if err := s.contacts.PromoteToCustomer(ctx, contactID); err != nil {
		s.logger.WarnContext(ctx, "failed to promote contact to customer",
			slog.String("contact_id", contactID),
			slog.String("error", err.Error()),
		)
	}
}
