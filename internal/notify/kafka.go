package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"smartmoney/internal/config"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes each notification as a JSON record keyed by a fresh id.
type Kafka struct {
	writer messageWriter
	clock  func() time.Time
}

type kafkaRecord struct {
	ID     string    `json:"id"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

func NewKafka(cfg config.KafkaConfig) *Kafka {
	return newKafka(&kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	})
}

func newKafka(w messageWriter) *Kafka {
	return &Kafka{writer: w, clock: func() time.Time { return time.Now().UTC() }}
}

func (k *Kafka) Send(ctx context.Context, text string) error {
	id := uuid.NewString()
	value, err := json.Marshal(kafkaRecord{ID: id, Text: text, SentAt: k.clock()})
	if err != nil {
		return err
	}
	if err := k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(id), Value: value}); err != nil {
		return fmt.Errorf("kafka publish: %w", err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
