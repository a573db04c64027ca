package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/louvornalaje/distribuidora-sub000/internal/repository"
	"github.com/louvornalaje/distribuidora-sub000/internal/service"
	"github.com/louvornalaje/distribuidora-sub000/pkg/httputil"
	"github.com/louvornalaje/distribuidora-sub000/pkg/pagination"
	"github.com/louvornalaje/distribuidora-sub000/pkg/validator"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// OrderLineRequest is the JSON request body for one order line.
type OrderLineRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// OrderRequest is the JSON request body for creating or editing an order.
type OrderRequest struct {
	ContactID     string             `json:"contact_id" validate:"required"`
	ContactName   string             `json:"contact_name" validate:"required"`
	PaymentMethod string             `json:"payment_method" validate:"required,oneof=pix dinheiro cartao fiado brinde"`
	Paid          bool               `json:"paid"`
	DeliveryFee   decimal.Decimal    `json:"delivery_fee"`
	Notes         string             `json:"notes"`
	OrderDate     *time.Time         `json:"order_date"`
	DeliveryDate  *time.Time         `json:"delivery_date"`
	Lines         []OrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

func (req *OrderRequest) toInput() service.OrderInput {
	lines := make([]service.OrderLineInput, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = service.OrderLineInput{ProductID: l.ProductID, Quantity: l.Quantity}
	}

	input := service.OrderInput{
		ContactID:     req.ContactID,
		ContactName:   req.ContactName,
		PaymentMethod: req.PaymentMethod,
		Paid:          req.Paid,
		DeliveryFee:   req.DeliveryFee,
		Notes:         req.Notes,
		DeliveryDate:  req.DeliveryDate,
		Lines:         lines,
	}
	if req.OrderDate != nil {
		input.OrderDate = *req.OrderDate
	}
	return input
}

// UpdateStatusRequest is the JSON request body for a status transition.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pendente entregue cancelada"`
}

// SetPaidRequest is the JSON request body for flipping the paid flag.
type SetPaidRequest struct {
	Paid *bool `json:"paid" validate:"required"`
}

// --- Handlers ---

// CreateOrder handles POST /api/v1/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	order, err := h.service.Create(r.Context(), req.toInput())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: order})
}

// EditOrder handles PUT /api/v1/orders/{id}
func (h *OrderHandler) EditOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	order, err := h.service.Edit(r.Context(), id.String(), req.toInput())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// ListOrders handles GET /api/v1/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	filter := repository.OrderFilter{
		Page:    params.Page,
		PerPage: params.PerPage,
	}

	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		filter.Status = &v
	}
	if v := q.Get("payment_method"); v != "" {
		filter.PaymentMethod = &v
	}
	if v := q.Get("contact_id"); v != "" {
		filter.ContactID = &v
	}
	if v := q.Get("paid"); v != "" {
		paid := v == "true"
		filter.Paid = &paid
	}
	if v := q.Get("search"); v != "" {
		filter.Search = &v
	}
	if v := q.Get("from"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "from must be an RFC 3339 timestamp"},
			})
			return
		}
		filter.From = &ts
	}
	if v := q.Get("to"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "to must be an RFC 3339 timestamp"},
			})
			return
		}
		filter.To = &ts
	}

	orders, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(orders, total, filter.Page, filter.PerPage))
}

// GetOrder handles GET /api/v1/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.service.Get(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// UpdateOrderStatus handles PUT /api/v1/orders/{id}/status
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	order, err := h.service.ChangeStatus(r.Context(), id.String(), req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// SetOrderPaid handles PUT /api/v1/orders/{id}/paid
func (h *OrderHandler) SetOrderPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SetPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.service.SetPaid(r.Context(), id.String(), *req.Paid); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteOrder handles DELETE /api/v1/orders/{id}
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
