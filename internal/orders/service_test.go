package orders

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/toppizza/backend/pkg/models"
)

var fixedNow = time.Date(2026, 3, 14, 18, 30, 5, 0, time.UTC)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	svc := NewService(db, nil, nil, logger)
	svc.now = func() time.Time { return fixedNow }
	return svc, mock, db
}

func TestCreateOrderPersistsMergedLines(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO orders (date, time, user_id) VALUES ($1, $2, $3) RETURNING order_id`)).
		WithArgs("2026-03-14", "18:30:05", "user-7").
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow(int64(42)))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_details (order_id, pizza_id, quantity) VALUES ($1, $2, $3)`)).
		WithArgs(int64(42), "5_l", 3).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	cart := []models.CartEntry{entry(5, "L"), entry(5, "l"), entry(5, "L")}
	resp, err := svc.CreateOrder(context.Background(), "user-7", cart)
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}

	if resp.OrderID != 42 {
		t.Errorf("expected order id 42, got %d", resp.OrderID)
	}
	if resp.UserID != "user-7" {
		t.Errorf("expected user id to be echoed, got %q", resp.UserID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateOrderGeneratesUserID(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO orders`)).
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow(int64(1)))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_details`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	resp, err := svc.CreateOrder(context.Background(), "", []models.CartEntry{entry(1, "m")})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}

	if resp.UserID == "" {
		t.Fatal("expected a generated user id")
	}
	if _, err := uuid.Parse(resp.UserID); err != nil {
		t.Errorf("generated user id %q is not a UUID: %v", resp.UserID, err)
	}
}

func TestCreateOrderInvalidCartSkipsDatabase(t *testing.T) {
	svc, mock, _ := newTestService(t)

	_, err := svc.CreateOrder(context.Background(), "user-7", nil)
	if !errors.Is(err, ErrInvalidCart) {
		t.Fatalf("expected ErrInvalidCart, got %v", err)
	}

	// No transaction may have been opened.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database activity: %v", err)
	}
}

func TestCreateOrderRollsBackOnLineFailure(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO orders`)).
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow(int64(9)))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_details`)).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	cart := []models.CartEntry{entry(1, "m"), entry(1, "m")}
	_, err := svc.CreateOrder(context.Background(), "user-7", cart)
	if err == nil {
		t.Fatal("expected CreateOrder to fail")
	}
	if errors.Is(err, ErrInvalidCart) {
		t.Fatalf("persistence failure must not look like invalid input: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expected rollback, no commit: %v", err)
	}
}

func TestGetOrderReconcilesTotal(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT order_id, date, time FROM orders WHERE order_id = $1 AND user_id = $2`)).
		WithArgs(int64(42), "user-7").
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "date", "time"}).
			AddRow(int64(42), time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), "18:30:05"))
	mock.ExpectQuery(`SELECT t.pizza_type_id, t.name, t.category, t.ingredients, d.quantity, p.price, p.size`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"pizza_type_id", "name", "category", "ingredients", "quantity", "price", "size"}).
			AddRow(5, "Diavola", "spicy", "tomato, salami", 2, "10.50", "l").
			AddRow(2, "Margherita", "classic", "tomato, mozzarella", 1, "8.00", "m"))

	detail, err := svc.GetOrder(context.Background(), "user-7", 42)
	if err != nil {
		t.Fatalf("GetOrder returned error: %v", err)
	}

	if detail.Order.Date != "2026-03-14" {
		t.Errorf("unexpected date %q", detail.Order.Date)
	}
	if len(detail.OrderItems) != 2 {
		t.Fatalf("expected 2 items, got %d", len(detail.OrderItems))
	}

	want := decimal.RequireFromString("29.00")
	if !detail.Order.Total.Equal(want) {
		t.Errorf("expected total %s, got %s", want, detail.Order.Total)
	}

	sum := decimal.Zero
	for _, item := range detail.OrderItems {
		lineTotal := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if !item.Total.Equal(lineTotal) {
			t.Errorf("line total for %s: expected %s, got %s", item.Name, lineTotal, item.Total)
		}
		sum = sum.Add(item.Total)
	}
	if !detail.Order.Total.Equal(sum) {
		t.Errorf("order total %s does not reconcile with item sum %s", detail.Order.Total, sum)
	}

	if detail.OrderItems[0].Image != "/pizzas/5.webp" {
		t.Errorf("unexpected image path %q", detail.OrderItems[0].Image)
	}
}

func TestGetOrderWrongUserIsNotFound(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT order_id, date, time FROM orders WHERE order_id = $1 AND user_id = $2`)).
		WithArgs(int64(42), "someone-else").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.GetOrder(context.Background(), "someone-else", 42)
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestListPastOrdersPagination(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT order_id, date, time FROM orders WHERE user_id = $1 ORDER BY order_id DESC LIMIT $2 OFFSET $3`)).
		WithArgs("user-7", 20, 20).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "date", "time"}))

	orders, err := svc.ListPastOrders(context.Background(), "user-7", 2)
	if err != nil {
		t.Fatalf("ListPastOrders returned error: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("expected empty page, got %d rows", len(orders))
	}
	if orders == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestListPastOrdersClampsPage(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`LIMIT $2 OFFSET $3`)).
		WithArgs("user-7", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "date", "time"}).
			AddRow(int64(3), time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), "12:00:00").
			AddRow(int64(1), time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), "11:00:00"))

	orders, err := svc.ListPastOrders(context.Background(), "user-7", 0)
	if err != nil {
		t.Fatalf("ListPastOrders returned error: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(orders))
	}
	if orders[0].OrderID != 3 || orders[1].OrderID != 1 {
		t.Errorf("expected newest first, got %+v", orders)
	}
	if orders[0].Date != "2026-03-10" {
		t.Errorf("unexpected date %q", orders[0].Date)
	}
}
