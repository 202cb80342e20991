package orders

import (
	"errors"
	"testing"

	"github.com/toppizza/backend/pkg/models"
)

func entry(id int, size string) models.CartEntry {
	return models.CartEntry{Pizza: models.CartPizza{ID: id}, Size: size}
}

func TestMergeCartCombinesDuplicates(t *testing.T) {
	cart := []models.CartEntry{
		entry(1, "M"),
		entry(1, "m"),
		entry(2, "L"),
	}

	merged, err := mergeCart(cart)
	if err != nil {
		t.Fatalf("mergeCart returned error: %v", err)
	}

	if len(merged) != 2 {
		t.Fatalf("expected 2 merged lines, got %d", len(merged))
	}
	if merged["1_m"].Quantity != 2 {
		t.Errorf("expected quantity 2 for 1_m, got %d", merged["1_m"].Quantity)
	}
	if merged["2_l"].Quantity != 1 {
		t.Errorf("expected quantity 1 for 2_l, got %d", merged["2_l"].Quantity)
	}
}

func TestMergeCartIdempotentAcrossOrder(t *testing.T) {
	a := []models.CartEntry{entry(3, "s"), entry(1, "M"), entry(3, "S"), entry(3, "s")}
	b := []models.CartEntry{entry(3, "S"), entry(3, "s"), entry(3, "s"), entry(1, "m")}

	mergedA, err := mergeCart(a)
	if err != nil {
		t.Fatalf("mergeCart(a) returned error: %v", err)
	}
	mergedB, err := mergeCart(b)
	if err != nil {
		t.Fatalf("mergeCart(b) returned error: %v", err)
	}

	if len(mergedA) != len(mergedB) {
		t.Fatalf("merged sizes differ: %d vs %d", len(mergedA), len(mergedB))
	}
	for key, line := range mergedA {
		if mergedB[key].Quantity != line.Quantity {
			t.Errorf("quantity mismatch for %s: %d vs %d", key, line.Quantity, mergedB[key].Quantity)
		}
	}
	if mergedA["3_s"].Quantity != 3 {
		t.Errorf("expected quantity 3 for 3_s, got %d", mergedA["3_s"].Quantity)
	}
}

func TestMergeCartRejectsEmptyCart(t *testing.T) {
	for _, cart := range [][]models.CartEntry{nil, {}} {
		if _, err := mergeCart(cart); !errors.Is(err, ErrInvalidCart) {
			t.Errorf("expected ErrInvalidCart for cart %v, got %v", cart, err)
		}
	}
}

func TestMergeCartRejectsBadEntries(t *testing.T) {
	cases := []struct {
		name string
		cart []models.CartEntry
	}{
		{"missing pizza id", []models.CartEntry{entry(0, "m")}},
		{"negative pizza id", []models.CartEntry{entry(-4, "m")}},
		{"missing size", []models.CartEntry{entry(1, "")}},
		{"bad entry after good one", []models.CartEntry{entry(1, "m"), entry(2, "")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := mergeCart(tc.cart); !errors.Is(err, ErrInvalidCart) {
				t.Errorf("expected ErrInvalidCart, got %v", err)
			}
		})
	}
}
