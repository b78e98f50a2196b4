package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"golang-signal-scryper/internal/scanner/dto"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of kafka.Writer used for publishing.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaDispatcher publishes notifications as JSON events keyed by account handle.
type KafkaDispatcher struct {
	writer MessageWriter
	Topic  string
}

// NewKafkaWriter builds the writer used by KafkaDispatcher.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		RequiredAcks:           kafka.RequireAll,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaDispatcher creates a KafkaDispatcher on top of writer.
func NewKafkaDispatcher(writer MessageWriter, topic string) *KafkaDispatcher {
	return &KafkaDispatcher{writer: writer, Topic: topic}
}

func (d *KafkaDispatcher) Name() string { return "kafka" }

func (d *KafkaDispatcher) Dispatch(ctx context.Context, n dto.Notification) error {
	value, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	key, _ := n.Data[DataHandle].(string)
	if key == "" {
		key, _ = n.Data[DataPostID].(string)
	}

	if err := d.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value}); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close closes the underlying Kafka writer.
func (d *KafkaDispatcher) Close() error {
	return d.writer.Close()
}
