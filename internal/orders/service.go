package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/toppizza/backend/internal/events"
	"github.com/toppizza/backend/internal/ws"
	"github.com/toppizza/backend/pkg/models"
)

// pageSize is the fixed page length of the past-orders listing.
const pageSize = 20

// Service owns the order write path and the priced read paths. The database
// handle is the only shared mutable state; atomicity of order creation is
// delegated entirely to its transactions.
type Service struct {
	db       *sql.DB
	producer *events.Producer
	hub      *ws.Hub
	logger   *logrus.Logger
	now      func() time.Time
}

// NewService creates an order service. producer and hub may be nil; order
// correctness never depends on either.
func NewService(db *sql.DB, producer *events.Producer, hub *ws.Hub, logger *logrus.Logger) *Service {
	return &Service{
		db:       db,
		producer: producer,
		hub:      hub,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateOrder validates and merges the cart, resolves the user identifier
// (generating one when absent) and persists the order with its line items in
// a single transaction. Nothing survives a mid-write failure.
func (s *Service) CreateOrder(ctx context.Context, userID string, cart []models.CartEntry) (*models.CreateOrderResponse, error) {
	merged, err := mergeCart(cart)
	if err != nil {
		return nil, err
	}

	if userID == "" {
		userID = uuid.NewString()
	}

	now := s.now()
	date := now.Format("2006-01-02")
	clock := now.Format("15:04:05")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var orderID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (date, time, user_id) VALUES ($1, $2, $3) RETURNING order_id`,
		date, clock, userID,
	).Scan(&orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	for _, line := range merged {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO order_details (order_id, pizza_id, quantity) VALUES ($1, $2, $3)`,
			orderID, line.PizzaID, line.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert order line %s: %w", line.PizzaID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	s.notifyOrderPlaced(orderID, userID, merged, now)

	return &models.CreateOrderResponse{OrderID: orderID, UserID: userID}, nil
}

// notifyOrderPlaced publishes the order to Kafka and the live feed. Both are
// strictly after commit and fire-and-forget: a failure is logged, never
// surfaced to the order's caller.
func (s *Service) notifyOrderPlaced(orderID int64, userID string, merged map[string]events.OrderLine, placedAt time.Time) {
	lines := make([]events.OrderLine, 0, len(merged))
	for _, line := range merged {
		lines = append(lines, line)
	}

	event := events.OrderPlacedEvent{
		OrderID:  orderID,
		UserID:   userID,
		Items:    lines,
		PlacedAt: placedAt,
	}

	if s.producer != nil {
		if err := s.producer.PublishOrderPlaced(event); err != nil {
			s.logger.WithError(err).WithField("order_id", orderID).Error("Failed to publish order placed event")
		}
	}

	if s.hub != nil {
		s.hub.Broadcast("order_placed", event)
	}
}

// GetOrder returns the priced view of one order. The (orderID, userID) pair
// must match a row; a miss for either reason is the same ErrOrderNotFound.
func (s *Service) GetOrder(ctx context.Context, userID string, orderID int64) (*models.OrderDetail, error) {
	var (
		order models.Order
		date  time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT order_id, date, time FROM orders WHERE order_id = $1 AND user_id = $2`,
		orderID, userID,
	).Scan(&order.OrderID, &date, &order.Time)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}
	order.Date = date.Format("2006-01-02")

	items, total, err := s.orderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Total = total

	return &models.OrderDetail{Order: order, OrderItems: items}, nil
}

// orderItems joins the line items against the catalog to recover names and
// unit prices, and derives line and order totals.
func (s *Service) orderItems(ctx context.Context, orderID int64) ([]models.OrderItem, decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.pizza_type_id, t.name, t.category, t.ingredients, d.quantity, p.price, p.size
		 FROM order_details d
		 JOIN pizzas p ON d.pizza_id = p.pizza_id
		 JOIN pizza_types t ON p.pizza_type_id = t.pizza_type_id
		 WHERE d.order_id = $1`,
		orderID,
	)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to fetch order items for %d: %w", orderID, err)
	}
	defer rows.Close()

	items := make([]models.OrderItem, 0)
	total := decimal.Zero
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(&item.PizzaTypeID, &item.Name, &item.Category, &item.Description,
			&item.Quantity, &item.Price, &item.Size)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("failed to scan order item: %w", err)
		}
		item.Total = item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		item.Image = models.PizzaImagePath(item.PizzaTypeID)
		total = total.Add(item.Total)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to read order items: %w", err)
	}

	return items, total, nil
}

// ListOrders returns the caller's full order history, newest first.
func (s *Service) ListOrders(ctx context.Context, userID string) ([]models.OrderSummary, error) {
	return s.listOrders(ctx,
		`SELECT order_id, date, time FROM orders WHERE user_id = $1 ORDER BY order_id DESC`,
		userID)
}

// ListPastOrders returns one page of the caller's order history. Pages are
// 1-indexed and 20 rows long; there is no total count, a short or empty page
// is the only end-of-history signal.
func (s *Service) ListPastOrders(ctx context.Context, userID string, page int) ([]models.OrderSummary, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	return s.listOrders(ctx,
		`SELECT order_id, date, time FROM orders WHERE user_id = $1 ORDER BY order_id DESC LIMIT $2 OFFSET $3`,
		userID, pageSize, offset)
}

func (s *Service) listOrders(ctx context.Context, query string, args ...interface{}) ([]models.OrderSummary, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	defer rows.Close()

	orders := make([]models.OrderSummary, 0)
	for rows.Next() {
		var (
			summary models.OrderSummary
			date    time.Time
		)
		if err := rows.Scan(&summary.OrderID, &date, &summary.Time); err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		summary.Date = date.Format("2006-01-02")
		orders = append(orders, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order rows: %w", err)
	}

	return orders, nil
}
