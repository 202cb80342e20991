package events

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

const (
	OrderPlacedTopic = "order.placed"
)

// OrderPlacedEvent is emitted after an order commits. Totals are not part of
// the event; prices are joined at read time only.
type OrderPlacedEvent struct {
	OrderID  int64       `json:"order_id"`
	UserID   string      `json:"user_id"`
	Items    []OrderLine `json:"items"`
	PlacedAt time.Time   `json:"placed_at"`
}

// OrderLine references a pizza variant by its composite key
// "{pizzaTypeId}_{size}".
type OrderLine struct {
	PizzaID  string `json:"pizza_id"`
	Quantity int    `json:"quantity"`
}

type Producer struct {
	producer sarama.SyncProducer
	logger   *logrus.Logger
}

func NewProducer(brokers string, logger *logrus.Logger) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewSyncProducer(strings.Split(brokers, ","), config)
	if err != nil {
		return nil, err
	}

	return &Producer{
		producer: producer,
		logger:   logger,
	}, nil
}

func (p *Producer) PublishOrderPlaced(event OrderPlacedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: OrderPlacedTopic,
		Key:   sarama.StringEncoder(event.UserID),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"order_id":  event.OrderID,
		"topic":     OrderPlacedTopic,
		"partition": partition,
		"offset":    offset,
	}).Info("Published order placed event")

	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
