package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Sink receives audit events after the worker dequeues them.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// LogSink writes events to the structured log. Always wired; it is the
// baseline trail when no broker is configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, "audit",
		"action", event.Action,
		"actor", event.Actor,
		"actor_id", event.ActorID,
		"subject", event.Subject,
		"reason", event.Reason,
		"request_id", event.RequestID,
		"ip", event.IP,
	)
	return nil
}

// KafkaSink publishes events to a Kafka topic for downstream consumers.
// Production is fire-and-forget: a broker outage must not stall the worker,
// so delivery failures are logged and counted instead of propagated.
type KafkaSink struct {
	client *kgo.Client
	logger *slog.Logger
}

// NewKafkaSink connects to the given brokers and produces to topic.
func NewKafkaSink(brokers []string, topic string, logger *slog.Logger) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	return &KafkaSink{client: client, logger: logger}, nil
}

func (s *KafkaSink) Write(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	record := &kgo.Record{
		Key:   []byte(event.Action),
		Value: payload,
	}
	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			deliveryFailures.Inc()
			s.logger.Error("audit event delivery failed",
				"error", err,
				"action", event.Action,
			)
		}
	})
	return nil
}

// Close flushes buffered records and releases the client.
func (s *KafkaSink) Close(ctx context.Context) error {
	if err := s.client.Flush(ctx); err != nil {
		return fmt.Errorf("flush audit events: %w", err)
	}
	s.client.Close()
	return nil
}
