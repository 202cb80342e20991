package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/toppizza/backend/internal/events"
)

// kitchen-display tails the order.placed topic and logs a ticket for each
// order. It sits strictly downstream of the server; losing it never affects
// order correctness.

type ticketPrinter struct {
	logger *logrus.Logger
}

func (p *ticketPrinter) HandleOrderPlaced(event events.OrderPlacedEvent) error {
	entry := p.logger.WithFields(logrus.Fields{
		"order_id":  event.OrderID,
		"user_id":   event.UserID,
		"placed_at": event.PlacedAt,
	})
	entry.Info("New kitchen ticket")

	for _, line := range event.Items {
		p.logger.WithFields(logrus.Fields{
			"order_id": event.OrderID,
			"pizza_id": line.PizzaID,
			"quantity": line.Quantity,
		}).Info("Ticket line")
	}

	return nil
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		logger.Fatal("KAFKA_BROKERS is required")
	}
	groupID := os.Getenv("KITCHEN_GROUP_ID")
	if groupID == "" {
		groupID = "kitchen-display"
	}

	consumer, err := events.NewConsumer(brokers, groupID, &ticketPrinter{logger: logger}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create Kafka consumer")
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.WithError(err).Error("Consumer stopped with error")
			cancel()
		}
	}()

	logger.WithField("brokers", brokers).Info("Kitchen display started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("Shutting down kitchen display...")
	case <-ctx.Done():
	}
}
