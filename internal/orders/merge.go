package orders

import (
	"errors"
	"fmt"
	"strings"

	"github.com/toppizza/backend/internal/events"
	"github.com/toppizza/backend/pkg/models"
)

var (
	// ErrInvalidCart covers a missing/empty cart and entries that don't
	// resolve to a pizza and size.
	ErrInvalidCart = errors.New("invalid order data")

	// ErrOrderNotFound is returned both when an order doesn't exist and
	// when it belongs to a different user; callers can't tell the two
	// apart.
	ErrOrderNotFound = errors.New("order not found or unauthorized")
)

// mergeCart collapses duplicate (pizza, size) selections into one line per
// composite key "{pizzaTypeId}_{size}", size lowercased. Line order is not
// significant.
func mergeCart(cart []models.CartEntry) (map[string]events.OrderLine, error) {
	if len(cart) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrInvalidCart)
	}

	merged := make(map[string]events.OrderLine, len(cart))
	for _, entry := range cart {
		size := strings.ToLower(entry.Size)
		if entry.Pizza.ID <= 0 || size == "" {
			return nil, fmt.Errorf("%w: cart entry missing pizza id or size", ErrInvalidCart)
		}

		pizzaID := fmt.Sprintf("%d_%s", entry.Pizza.ID, size)
		line := merged[pizzaID]
		line.PizzaID = pizzaID
		line.Quantity++
		merged[pizzaID] = line
	}

	return merged, nil
}
