package models

import (
	"github.com/shopspring/decimal"
)

// CartEntry is one user-selected pizza before merging. Size comparison is
// case-insensitive.
type CartEntry struct {
	Pizza CartPizza `json:"pizza"`
	Size  string    `json:"size"`
}

type CartPizza struct {
	ID int `json:"id"`
}

type CreateOrderRequest struct {
	Cart []CartEntry `json:"cart"`
}

// CreateOrderResponse echoes the user identifier so first-time callers can
// persist it and resend it on subsequent requests.
type CreateOrderResponse struct {
	OrderID int64  `json:"orderId"`
	UserID  string `json:"userId"`
}

// OrderSummary is one row of a user's order history.
type OrderSummary struct {
	OrderID int64  `json:"order_id"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

// Order is the header of a priced order view. Total is derived from the
// line items at read time, never stored.
type Order struct {
	OrderID int64           `json:"order_id"`
	Date    string          `json:"date"`
	Time    string          `json:"time"`
	Total   decimal.Decimal `json:"total"`
}

// OrderItem is one priced line of an order, joined against the catalog.
type OrderItem struct {
	PizzaTypeID int             `json:"pizzaTypeId"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Total       decimal.Decimal `json:"total"`
	Size        string          `json:"size"`
	Image       string          `json:"image"`
}

type OrderDetail struct {
	Order      Order       `json:"order"`
	OrderItems []OrderItem `json:"orderItems"`
}

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}
