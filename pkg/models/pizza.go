package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices serialize as JSON numbers; the storefront client does
	// arithmetic on them directly.
	decimal.MarshalJSONWithoutQuotes = true
}

// PizzaType is a row of the immutable pizza catalog.
type PizzaType struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// PizzaVariant is one orderable (type, size) combination with its unit price.
type PizzaVariant struct {
	PizzaTypeID int             `json:"pizzaTypeId"`
	Size        string          `json:"size"`
	Price       decimal.Decimal `json:"price"`
}

// Pizza is the menu view of a pizza type: the catalog row plus a map of
// size label to unit price.
type Pizza struct {
	ID          int                        `json:"id"`
	Name        string                     `json:"name"`
	Category    string                     `json:"category"`
	Description string                     `json:"description"`
	Image       string                     `json:"image"`
	Sizes       map[string]decimal.Decimal `json:"sizes"`
}

// PizzaImagePath returns the static image path for a pizza type.
func PizzaImagePath(pizzaTypeID int) string {
	return fmt.Sprintf("/pizzas/%d.webp", pizzaTypeID)
}
