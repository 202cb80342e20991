package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Retention deletes orders older than the retention window once per
// interval. Line items go first so no orphaned order_details are left
// behind. Failures are logged; the loop never exits on error.
type Retention struct {
	db            *sql.DB
	interval      time.Duration
	retentionDays int
	logger        *logrus.Logger
}

func NewRetention(db *sql.DB, interval time.Duration, retentionDays int, logger *logrus.Logger) *Retention {
	return &Retention{
		db:            db,
		interval:      interval,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

func (r *Retention) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Retention sweep stopped")
			return
		case <-ticker.C:
			deleted, err := r.sweep(ctx)
			if err != nil {
				r.logger.WithError(err).Error("Retention sweep failed")
				continue
			}
			r.logger.WithFields(logrus.Fields{
				"orders_deleted": deleted,
				"retention_days": r.retentionDays,
			}).Info("Retention sweep completed")
		}
	}
}

// sweep removes expired orders and their line items in one transaction and
// reports how many orders went.
func (r *Retention) sweep(ctx context.Context) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin retention transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM order_details WHERE order_id IN
			(SELECT order_id FROM orders WHERE date < CURRENT_DATE - $1::int)`,
		r.retentionDays,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired order details: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM orders WHERE date < CURRENT_DATE - $1::int`,
		r.retentionDays,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired orders: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit retention sweep: %w", err)
	}

	deleted, _ := result.RowsAffected()
	return deleted, nil
}
