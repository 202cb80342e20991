package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Connect opens a Postgres connection and waits for it to become reachable.
// Container setups routinely win the race against the database, so the ping
// is retried before giving up.
func Connect(dsn string, logger *logrus.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var pingErr error
	for i := 0; i < 30; i++ {
		if pingErr = db.Ping(); pingErr == nil {
			logger.Info("Database connection established")
			return db, nil
		}
		logger.Info("Waiting for database...")
		time.Sleep(2 * time.Second)
	}

	db.Close()
	return nil, fmt.Errorf("database not reachable: %w", pingErr)
}

// EnsureSchema creates the four tables if they don't exist. pizza_types and
// pizzas are reference data loaded out of band; orders and order_details are
// written by the service.
func EnsureSchema(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS pizza_types (
			pizza_type_id INTEGER PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			category VARCHAR(100) NOT NULL,
			ingredients TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pizzas (
			pizza_id VARCHAR(50) PRIMARY KEY,
			pizza_type_id INTEGER NOT NULL REFERENCES pizza_types(pizza_type_id),
			size VARCHAR(10) NOT NULL,
			price DECIMAL(10,2) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			order_id SERIAL PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			date DATE NOT NULL,
			time VARCHAR(8) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS order_details (
			id SERIAL PRIMARY KEY,
			order_id INTEGER NOT NULL REFERENCES orders(order_id),
			pizza_id VARCHAR(50) NOT NULL,
			quantity INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_order_details_order_id ON order_details(order_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
