package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/toppizza/backend/internal/cache"
	"github.com/toppizza/backend/pkg/models"
)

const (
	menuCacheKey = "menu:pizzas"
	menuCacheTTL = 5 * time.Minute
)

// ErrEmptyCatalog is returned by PizzaOfTheDay when no pizza types exist.
var ErrEmptyCatalog = errors.New("pizza catalog is empty")

// Store reads the immutable pizza catalog. The cache is optional; on any
// cache error the database is the fallback.
type Store struct {
	db     *sql.DB
	cache  cache.Cache
	logger *logrus.Logger
	now    func() time.Time
}

func NewStore(db *sql.DB, c cache.Cache, logger *logrus.Logger) *Store {
	return &Store{
		db:     db,
		cache:  c,
		logger: logger,
		now:    time.Now,
	}
}

// ListPizzas returns the full menu: every pizza type with its size→price
// map. Read-through cached as a JSON payload when a cache is configured.
func (s *Store) ListPizzas(ctx context.Context) ([]models.Pizza, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, menuCacheKey)
		if err != nil {
			s.logger.WithError(err).Warn("Menu cache read failed, falling back to database")
		} else if cached != "" {
			var pizzas []models.Pizza
			if err := json.Unmarshal([]byte(cached), &pizzas); err == nil {
				return pizzas, nil
			} else {
				s.logger.WithError(err).Warn("Menu cache payload unreadable, falling back to database")
			}
		}
	}

	types, err := s.listPizzaTypes(ctx)
	if err != nil {
		return nil, err
	}
	variants, err := s.listVariants(ctx)
	if err != nil {
		return nil, err
	}

	sizesByType := make(map[int]map[string]decimal.Decimal, len(types))
	for _, v := range variants {
		if sizesByType[v.PizzaTypeID] == nil {
			sizesByType[v.PizzaTypeID] = make(map[string]decimal.Decimal)
		}
		sizesByType[v.PizzaTypeID][v.Size] = v.Price
	}

	pizzas := make([]models.Pizza, 0, len(types))
	for _, t := range types {
		sizes := sizesByType[t.ID]
		if sizes == nil {
			sizes = map[string]decimal.Decimal{}
		}
		pizzas = append(pizzas, models.Pizza{
			ID:          t.ID,
			Name:        t.Name,
			Category:    t.Category,
			Description: t.Description,
			Image:       models.PizzaImagePath(t.ID),
			Sizes:       sizes,
		})
	}

	if s.cache != nil {
		if payload, err := json.Marshal(pizzas); err == nil {
			if err := s.cache.Set(ctx, menuCacheKey, string(payload), menuCacheTTL); err != nil {
				s.logger.WithError(err).Warn("Menu cache write failed")
			}
		}
	}

	return pizzas, nil
}

// PizzaOfTheDay picks catalog[daysSinceEpoch % len(catalog)]. The selection
// is stable for the whole calendar day and rotates at midnight UTC.
func (s *Store) PizzaOfTheDay(ctx context.Context) (*models.Pizza, error) {
	types, err := s.listPizzaTypes(ctx)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return nil, ErrEmptyCatalog
	}

	daysSinceEpoch := s.now().Unix() / 86400
	t := types[int(daysSinceEpoch%int64(len(types)))]

	rows, err := s.db.QueryContext(ctx,
		`SELECT size, price FROM pizzas WHERE pizza_type_id = $1`, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sizes for pizza %d: %w", t.ID, err)
	}
	defer rows.Close()

	sizes := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			size  string
			price decimal.Decimal
		)
		if err := rows.Scan(&size, &price); err != nil {
			return nil, fmt.Errorf("failed to scan pizza size: %w", err)
		}
		sizes[size] = price
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pizza sizes: %w", err)
	}

	return &models.Pizza{
		ID:          t.ID,
		Name:        t.Name,
		Category:    t.Category,
		Description: t.Description,
		Image:       models.PizzaImagePath(t.ID),
		Sizes:       sizes,
	}, nil
}

// listPizzaTypes returns the catalog in pizza_type_id order; PizzaOfTheDay
// relies on that order being stable.
func (s *Store) listPizzaTypes(ctx context.Context) ([]models.PizzaType, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pizza_type_id, name, category, ingredients FROM pizza_types ORDER BY pizza_type_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pizza types: %w", err)
	}
	defer rows.Close()

	types := make([]models.PizzaType, 0)
	for rows.Next() {
		var t models.PizzaType
		if err := rows.Scan(&t.ID, &t.Name, &t.Category, &t.Description); err != nil {
			return nil, fmt.Errorf("failed to scan pizza type: %w", err)
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pizza types: %w", err)
	}

	return types, nil
}

func (s *Store) listVariants(ctx context.Context) ([]models.PizzaVariant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pizza_type_id, size, price FROM pizzas`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pizza variants: %w", err)
	}
	defer rows.Close()

	variants := make([]models.PizzaVariant, 0)
	for rows.Next() {
		var v models.PizzaVariant
		if err := rows.Scan(&v.PizzaTypeID, &v.Size, &v.Price); err != nil {
			return nil, fmt.Errorf("failed to scan pizza variant: %w", err)
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pizza variants: %w", err)
	}

	return variants, nil
}
