package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event описывает сообщение, которое KafkaSink публикует в топик.
type Event struct {
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// KafkaSink публикует уведомления в топик Kafka для внешних потребителей.
type KafkaSink struct {
	writer messageWriter
	now    func() time.Time
}

// NewKafkaSink создаёт продюсера уведомлений.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		MaxAttempts:            5,
		ReadTimeout:            10 * time.Second,
		WriteTimeout:           10 * time.Second,
		AllowAutoTopicCreation: true,
	}

	return &KafkaSink{writer: w, now: time.Now}
}

// Send публикует сообщение синхронно.
func (s *KafkaSink) Send(ctx context.Context, text string) error {
	payload, err := json.Marshal(Event{Text: text, SentAt: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	if err := s.writer.WriteMessages(ctx, kafka.Message{Value: payload}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// Close закрывает продюсера.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
