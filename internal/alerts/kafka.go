package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/frankdevcode/lp2-taller3/internal/weather"
)

// messageWriter is the subset of *kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaPublisher produces alert events to a Kafka topic.
// It implements weather.AlertPublisher.
type KafkaPublisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewKafkaPublisher creates a Kafka producer for the alert topic.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaPublisher{writer: w, logger: logger}
}

// PublishAlerts serializes and publishes the events in a single WriteMessages call.
// Messages are keyed by station and variable so one series keeps its ordering.
func (p *KafkaPublisher) PublishAlerts(ctx context.Context, events []weather.AlertEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d alert messages: %w", len(msgs), err)
	}
	p.logger.Debug("alerts published", "count", len(msgs))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an AlertEvent into a Kafka message.
func serializeToMessage(event weather.AlertEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.StationID + "/" + event.Variable),
		Value: data,
		Time:  event.RaisedAt,
		Headers: []kafkago.Header{
			{Key: "alert_id", Value: []byte(event.ID)},
			{Key: "category", Value: []byte(event.Alert.Category)},
			{Key: "severity", Value: []byte(event.Alert.Severity)},
		},
	}, nil
}
