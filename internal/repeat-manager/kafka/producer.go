package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"repeat-task-service/internal/repeat-manager/events"
)

const (
	DefaultKafkaBrokers       = "localhost:9092"
	DefaultInstanceEventTopic = "repeat_instance_created"

	writeTimeout = 10 * time.Second
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaProducer(brokers []string, topic string) *kafka.Writer {
	if len(brokers) == 0 {
		brokers = []string{DefaultKafkaBrokers}
	}
	if topic == "" {
		topic = DefaultInstanceEventTopic
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
}

// InstancePublisher announces created instances on Kafka, keyed by template.
type InstancePublisher struct {
	Writer MessageWriter
}

func NewInstancePublisher(w MessageWriter) *InstancePublisher {
	return &InstancePublisher{Writer: w}
}

func (p *InstancePublisher) PublishInstanceCreated(ctx context.Context, payload events.InstanceCreatedPayload) error {
	value, err := payload.Marshal()
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	msg := kafka.Message{Key: []byte(payload.TemplateID), Value: value}
	if err := p.Writer.WriteMessages(writeCtx, msg); err != nil {
		return fmt.Errorf("failed to publish instance %s: %w", payload.InstanceID, err)
	}
	return nil
}

func (p *InstancePublisher) Close() error {
	return p.Writer.Close()
}
