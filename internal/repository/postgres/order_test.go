package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/louvornalaje/distribuidora-sub000/internal/domain"
	"github.com/louvornalaje/distribuidora-sub000/internal/repository"
	"github.com/louvornalaje/distribuidora-sub000/pkg/database"
	apperrors "github.com/louvornalaje/distribuidora-sub000/pkg/errors"
)

func newTestRepo(t *testing.T) (*OrderRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewOrderRepository(mock), mock
}

func sampleOrder() *domain.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Order{
		ID:            "venda-001",
		ContactID:     "contato-001",
		ContactName:   "Maria Souza",
		Status:        domain.StatusPending,
		Paid:          false,
		PaymentMethod: domain.PaymentPix,
		DeliveryFee:   decimal.RequireFromString("5.00"),
		Total:         decimal.RequireFromString("25.00"),
		Notes:         "entregar pela manhã",
		OrderDate:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
		Lines: []domain.OrderLine{
			{
				ID:          "linha-001",
				OrderID:     "venda-001",
				ProductID:   "prod-001",
				ProductCode: "AGUA20L",
				Quantity:    decimal.NewFromInt(2),
				UnitPrice:   decimal.RequireFromString("10.00"),
				Subtotal:    decimal.RequireFromString("20.00"),
			},
		},
	}
}

func orderRows(mock pgxmock.PgxPoolIface, o *domain.Order) *pgxmock.Rows {
	return mock.NewRows([]string{
		"id", "contact_id", "contact_name", "status", "paid", "payment_method",
		"delivery_fee", "total", "notes", "order_date", "delivery_date",
		"created_at", "updated_at",
	}).AddRow(
		o.ID, o.ContactID, o.ContactName, o.Status, o.Paid, o.PaymentMethod,
		o.DeliveryFee, o.Total, o.Notes, o.OrderDate, o.DeliveryDate,
		o.CreatedAt, o.UpdatedAt,
	)
}

func lineRows(mock pgxmock.PgxPoolIface, lines []domain.OrderLine) *pgxmock.Rows {
	rows := mock.NewRows([]string{
		"id", "order_id", "product_id", "product_code", "quantity", "unit_price", "subtotal",
	})
	for _, l := range lines {
		rows.AddRow(l.ID, l.OrderID, l.ProductID, l.ProductCode, l.Quantity, l.UnitPrice, l.Subtotal)
	}
	return rows
}

func TestOrderRepository_Create_Success(t *testing.T) {
	repo, mock := newTestRepo(t)

	o := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(
			o.ID, o.ContactID, o.ContactName, o.Status, o.Paid, o.PaymentMethod,
			o.DeliveryFee, o.Total, o.Notes, o.OrderDate, o.DeliveryDate,
			o.CreatedAt, o.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	for _, l := range o.Lines {
		mock.ExpectExec("INSERT INTO order_lines").
			WithArgs(l.ID, l.OrderID, l.ProductID, l.ProductCode, l.Quantity, l.UnitPrice, l.Subtotal).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	err := repo.Create(context.Background(), o)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_LineInsertFails(t *testing.T) {
	repo, mock := newTestRepo(t)

	o := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(
			o.ID, o.ContactID, o.ContactName, o.Status, o.Paid, o.PaymentMethod,
			o.DeliveryFee, o.Total, o.Notes, o.OrderDate, o.DeliveryDate,
			o.CreatedAt, o.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_lines").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), o)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByID_Success(t *testing.T) {
	repo, mock := newTestRepo(t)

	o := sampleOrder()

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE id").
		WithArgs(o.ID).
		WillReturnRows(orderRows(mock, o))
	mock.ExpectQuery("SELECT (.+) FROM order_lines").
		WithArgs([]string{o.ID}).
		WillReturnRows(lineRows(mock, o.Lines))

	got, err := repo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, o.ContactName, got.ContactName)
	assert.Len(t, got.Lines, 1)
	assert.True(t, got.Total.Equal(o.Total))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOrderRepository_List_WithFilters(t *testing.T) {
	repo, mock := newTestRepo(t)

	o := sampleOrder()
	status := domain.StatusPending
	search := "maria"

	rows := mock.NewRows([]string{
		"id", "contact_id", "contact_name", "status", "paid", "payment_method",
		"delivery_fee", "total", "notes", "order_date", "delivery_date",
		"created_at", "updated_at", "total_count",
	}).AddRow(
		o.ID, o.ContactID, o.ContactName, o.Status, o.Paid, o.PaymentMethod,
		o.DeliveryFee, o.Total, o.Notes, o.OrderDate, o.DeliveryDate,
		o.CreatedAt, o.UpdatedAt, 1,
	)

	mock.ExpectQuery("SELECT (.+) FROM orders").
		WithArgs(status, "%"+search+"%", 20, 0).
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT (.+) FROM order_lines").
		WithArgs([]string{o.ID}).
		WillReturnRows(lineRows(mock, o.Lines))

	orders, total, err := repo.List(context.Background(), repository.OrderFilter{
		Status: &status,
		Search: &search,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, orders, 1)
	assert.Len(t, orders[0].Lines, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Replace_Success(t *testing.T) {
	repo, mock := newTestRepo(t)

	o := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders").
		WithArgs(
			o.ContactID, o.ContactName, o.Status, o.Paid, o.PaymentMethod,
			o.DeliveryFee, o.Total, o.Notes, o.OrderDate, o.DeliveryDate,
			o.UpdatedAt, o.ID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("DELETE FROM order_lines").
		WithArgs(o.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	for _, l := range o.Lines {
		mock.ExpectExec("INSERT INTO order_lines").
			WithArgs(l.ID, l.OrderID, l.ProductID, l.ProductCode, l.Quantity, l.UnitPrice, l.Subtotal).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	err := repo.Replace(context.Background(), o)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Replace_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	o := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders").
		WithArgs(
			o.ContactID, o.ContactName, o.Status, o.Paid, o.PaymentMethod,
			o.DeliveryFee, o.Total, o.Notes, o.OrderDate, o.DeliveryDate,
			o.UpdatedAt, o.ID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := repo.Replace(context.Background(), o)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec("UPDATE orders").
		WithArgs(domain.StatusCancelled, pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusCancelled)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOrderRepository_SetPaid_Success(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec("UPDATE orders").
		WithArgs(true, pgxmock.AnyArg(), "venda-001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.SetPaid(context.Background(), "venda-001", true)
	assert.NoError(t, err)
}

func TestOrderRepository_Delete_Success(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM order_lines").
		WithArgs("venda-001").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec("DELETE FROM orders").
		WithArgs("venda-001").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), "venda-001")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM order_lines").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("DELETE FROM orders").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
