package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/mamadbah2/shopledger/internal/domain/models"
)

// EventTransactionRecorded is the event type of every published message.
const EventTransactionRecorded = "transaction_recorded"

// TransactionEvent is the message body published for a committed transaction.
type TransactionEvent struct {
	Event       string             `json:"event"`
	PublishedAt time.Time          `json:"published_at"`
	Transaction models.Transaction `json:"transaction"`
}

// MessageWriter is the subset of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer MessageWriter
	logger *zap.Logger
	now    func() time.Time
}

// NewPublisher builds an asynchronous writer so publishing never waits on
// the brokers. Delivery failures are only logged.
func NewPublisher(brokers []string, topic string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warn("kafka delivery failed", zap.Int("messages", len(messages)), zap.Error(err))
			}
		},
	}
	return NewPublisherWithWriter(writer, logger)
}

// NewPublisherWithWriter wraps an existing writer.
func NewPublisherWithWriter(writer MessageWriter, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{writer: writer, logger: logger, now: time.Now}
}

// PublishTransaction emits tx keyed by its id.
func (p *Publisher) PublishTransaction(ctx context.Context, tx models.Transaction) error {
	data, err := json.Marshal(TransactionEvent{
		Event:       EventTransactionRecorded,
		PublishedAt: p.now().UTC(),
		Transaction: tx,
	})
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(tx.ID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(EventTransactionRecorded)},
			{Key: "transaction_type", Value: []byte(tx.Type)},
		},
	})
}

// Close flushes pending messages.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
