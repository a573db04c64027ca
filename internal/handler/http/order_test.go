package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/louvornalaje/distribuidora-sub000/internal/domain"
	"github.com/louvornalaje/distribuidora-sub000/internal/event"
	"github.com/louvornalaje/distribuidora-sub000/internal/repository"
	"github.com/louvornalaje/distribuidora-sub000/internal/repository/memory"
	"github.com/louvornalaje/distribuidora-sub000/internal/service"
	apperrors "github.com/louvornalaje/distribuidora-sub000/pkg/errors"
	"github.com/louvornalaje/distribuidora-sub000/pkg/httputil"
	pkgkafka "github.com/louvornalaje/distribuidora-sub000/pkg/kafka"
)

const (
	orderID   = "550e8400-e29b-41d4-a716-446655440001"
	productID = "550e8400-e29b-41d4-a716-446655440002"
	contactID = "550e8400-e29b-41d4-a716-446655440003"
)

// --- Mock OrderRepository ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) Replace(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockOrderRepository) SetPaid(ctx context.Context, id string, paid bool) error {
	args := m.Called(ctx, id, paid)
	return args.Error(0)
}

func (m *mockOrderRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock ContactService ---

type mockContactService struct {
	mock.Mock
}

func (m *mockContactService) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockContactService) PromoteToCustomer(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Test Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testEventProducer() *event.Producer {
	logger := testLogger()
	kafkaProducer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig([]string{"localhost:19092"}), logger)
	return event.NewProducer(kafkaProducer, logger)
}

func testCatalog() *memory.Catalog {
	c := memory.NewCatalog()
	c.Put(domain.Product{
		ID:          productID,
		Code:        "AGUA20L",
		Name:        "Galão de água 20L",
		UnitPrice:   decimal.RequireFromString("10.00"),
		StockOnHand: 50,
	})
	return c
}

func testRouter(repo *mockOrderRepository, catalog *memory.Catalog) *chi.Mux {
	logger := testLogger()
	producer := testEventProducer()
	contacts := new(mockContactService)
	contacts.On("Exists", mock.Anything, mock.Anything).Return(true, nil)
	contacts.On("PromoteToCustomer", mock.Anything, mock.Anything).Return(nil)

	reconciler := service.NewStockReconciler(catalog, logger)
	orderSvc := service.NewOrderService(repo, catalog, reconciler, contacts, producer, logger)
	catalogSvc := service.NewCatalogService(catalog, reconciler, producer, logger)
	metricsSvc := service.NewMetricsService(repo, logger)

	orderHandler := NewOrderHandler(orderSvc, logger)
	catalogHandler := NewCatalogHandler(catalogSvc, logger)
	dashboardHandler := NewDashboardHandler(metricsSvc, logger)

	r := chi.NewRouter()
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Post("/", orderHandler.CreateOrder)
		r.Get("/", orderHandler.ListOrders)
		r.Get("/{id}", orderHandler.GetOrder)
		r.Put("/{id}", orderHandler.EditOrder)
		r.Put("/{id}/status", orderHandler.UpdateOrderStatus)
		r.Put("/{id}/paid", orderHandler.SetOrderPaid)
		r.Delete("/{id}", orderHandler.DeleteOrder)
	})
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Get("/", catalogHandler.ListProducts)
		r.Get("/{id}", catalogHandler.GetProduct)
		r.Post("/{id}/stock", catalogHandler.AdjustStock)
	})
	r.Get("/api/v1/dashboard", dashboardHandler.GetDashboard)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func validOrderBody() map[string]any {
	return map[string]any{
		"contact_id":     contactID,
		"contact_name":   "Maria Souza",
		"payment_method": "pix",
		"delivery_fee":   "5.00",
		"lines": []map[string]any{
			{"product_id": productID, "quantity": "2"},
		},
	}
}

// --- Create ---

func TestCreateOrder_Success(t *testing.T) {
	repo := new(mockOrderRepository)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
	catalog := testCatalog()
	router := testRouter(repo, catalog)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/orders", validOrderBody())

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Data domain.Order `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Data.Total.Equal(decimal.RequireFromString("25.00")), "total was %s", resp.Data.Total)
	assert.Equal(t, domain.StatusPending, resp.Data.Status)

	p, err := catalog.GetByID(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, 48, p.StockOnHand)
}

func TestCreateOrder_ValidationError(t *testing.T) {
	router := testRouter(new(mockOrderRepository), testCatalog())

	body := validOrderBody()
	body["payment_method"] = "cheque"

	rec := doJSON(t, router, http.MethodPost, "/api/v1/orders", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrder_EmptyLines(t *testing.T) {
	router := testRouter(new(mockOrderRepository), testCatalog())

	body := validOrderBody()
	body["lines"] = []map[string]any{}

	rec := doJSON(t, router, http.MethodPost, "/api/v1/orders", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrder_RequiresJSONContentType(t *testing.T) {
	router := testRouter(new(mockOrderRepository), testCatalog())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestCreateOrder_UnknownProductRejectedBeforeWrite(t *testing.T) {
	repo := new(mockOrderRepository)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)

	catalog := testCatalog()
	router := testRouter(repo, catalog)

	body := validOrderBody()
	body["lines"] = []map[string]any{
		{"product_id": productID, "quantity": "2"},
		{"product_id": "550e8400-e29b-41d4-a716-446655440099", "quantity": "1"},
	}

	rec := doJSON(t, router, http.MethodPost, "/api/v1/orders", body)

	// Validation resolves products before the write, so an unknown product in
	// the line set is rejected with nothing persisted.
	assert.Equal(t, http.StatusNotFound, rec.Code)
	p, err := catalog.GetByID(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, 50, p.StockOnHand)
}

// --- Get / List ---

func TestGetOrder_Success(t *testing.T) {
	repo := new(mockOrderRepository)
	o := &domain.Order{ID: orderID, Status: domain.StatusPending, Total: decimal.RequireFromString("25.00")}
	repo.On("GetByID", mock.Anything, orderID).Return(o, nil)
	router := testRouter(repo, testCatalog())

	rec := doJSON(t, router, http.MethodGet, "/api/v1/orders/"+orderID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetOrder_NotFound(t *testing.T) {
	repo := new(mockOrderRepository)
	repo.On("GetByID", mock.Anything, orderID).Return(nil, apperrors.NotFound("order", orderID))
	router := testRouter(repo, testCatalog())

	rec := doJSON(t, router, http.MethodGet, "/api/v1/orders/"+orderID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetOrder_InvalidUUID(t *testing.T) {
	router := testRouter(new(mockOrderRepository), testCatalog())

	rec := doJSON(t, router, http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrders_ForwardsFilters(t *testing.T) {
	repo := new(mockOrderRepository)
	repo.On("List", mock.Anything, mock.MatchedBy(func(f repository.OrderFilter) bool {
		return f.Status != nil && *f.Status == "pendente" &&
			f.Search != nil && *f.Search == "maria" &&
			f.PaymentMethod != nil && *f.PaymentMethod == "pix"
	})).Return([]domain.Order{}, 0, nil)
	router := testRouter(repo, testCatalog())

	rec := doJSON(t, router, http.MethodGet, "/api/v1/orders?status=pendente&search=maria&payment_method=pix", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestListOrders_BadFromTimestamp(t *testing.T) {
	router := testRouter(new(mockOrderRepository), testCatalog())

	rec := doJSON(t, router, http.MethodGet, "/api/v1/orders?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Status / paid / delete ---

func TestUpdateOrderStatus_Success(t *testing.T) {
	repo := new(mockOrderRepository)
	o := &domain.Order{ID: orderID, Status: domain.StatusPending}
	repo.On("GetByID", mock.Anything, orderID).Return(o, nil)
	repo.On("UpdateStatus", mock.Anything, orderID, domain.StatusDelivered).Return(nil)
	router := testRouter(repo, testCatalog())

	rec := doJSON(t, router, http.MethodPut, "/api/v1/orders/"+orderID+"/status",
		map[string]string{"status": "entregue"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestUpdateOrderStatus_RejectsUnknownStatus(t *testing.T) {
	router := testRouter(new(mockOrderRepository), testCatalog())

	rec := doJSON(t, router, http.MethodPut, "/api/v1/orders/"+orderID+"/status",
		map[string]string{"status": "enviada"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetOrderPaid_Success(t *testing.T) {
	repo := new(mockOrderRepository)
	repo.On("SetPaid", mock.Anything, orderID, true).Return(nil)
	router := testRouter(repo, testCatalog())

	rec := doJSON(t, router, http.MethodPut, "/api/v1/orders/"+orderID+"/paid",
		map[string]bool{"paid": true})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	repo.AssertExpectations(t)
}

func TestSetOrderPaid_MissingField(t *testing.T) {
	router := testRouter(new(mockOrderRepository), testCatalog())

	rec := doJSON(t, router, http.MethodPut, "/api/v1/orders/"+orderID+"/paid",
		map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteOrder_Success(t *testing.T) {
	repo := new(mockOrderRepository)
	o := &domain.Order{
		ID:     orderID,
		Status: domain.StatusPending,
		Lines: []domain.OrderLine{{
			ProductID: productID,
			Quantity:  decimal.NewFromInt(2),
		}},
	}
	repo.On("GetByID", mock.Anything, orderID).Return(o, nil)
	repo.On("Delete", mock.Anything, orderID).Return(nil)
	catalog := testCatalog()
	router := testRouter(repo, catalog)

	rec := doJSON(t, router, http.MethodDelete, "/api/v1/orders/"+orderID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	p, err := catalog.GetByID(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, 52, p.StockOnHand, "delete restores the lines' stock")
}

func TestDeleteOrder_NotFound(t *testing.T) {
	repo := new(mockOrderRepository)
	repo.On("GetByID", mock.Anything, orderID).Return(nil, apperrors.NotFound("order", orderID))
	router := testRouter(repo, testCatalog())

	rec := doJSON(t, router, http.MethodDelete, "/api/v1/orders/"+orderID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- Products / dashboard ---

func TestAdjustStock_ClampsAtZero(t *testing.T) {
	catalog := testCatalog()
	router := testRouter(new(mockOrderRepository), catalog)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/products/"+productID+"/stock",
		map[string]int{"delta": -80})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data AdjustStockResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 0, resp.Data.StockOnHand)
}

func TestAdjustStock_UnknownProduct(t *testing.T) {
	router := testRouter(new(mockOrderRepository), testCatalog())

	rec := doJSON(t, router, http.MethodPost, "/api/v1/products/550e8400-e29b-41d4-a716-446655440099/stock",
		map[string]int{"delta": 5})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListProducts(t *testing.T) {
	router := testRouter(new(mockOrderRepository), testCatalog())

	rec := doJSON(t, router, http.MethodGet, "/api/v1/products", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetDashboard(t *testing.T) {
	repo := new(mockOrderRepository)
	now := time.Now().UTC()
	repo.On("List", mock.Anything, mock.AnythingOfType("repository.OrderFilter")).
		Return([]domain.Order{
			{ID: "a", Status: domain.StatusPending, Total: decimal.RequireFromString("25.00"), OrderDate: now},
			{ID: "b", Status: domain.StatusDelivered, Paid: true, Total: decimal.RequireFromString("40.00"), OrderDate: now},
		}, 2, nil)
	router := testRouter(repo, testCatalog())

	rec := doJSON(t, router, http.MethodGet, "/api/v1/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Data)
}
