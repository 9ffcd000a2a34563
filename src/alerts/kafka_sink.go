package alerts

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"budgetpilot/src/model"
)

// KafkaSink publishes guardrail alerts to a Kafka topic consumed by the
// alerting/notification service. Messages are keyed by workspace so alerts
// for one workspace stay ordered.
type KafkaSink struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaSink(config Config) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(config.Brokers()...),
			Balancer:     &kafka.LeastBytes{},
			WriteTimeout: config.WriteTimeout,
		},
		topic: config.Topic,
	}
}

func (s *KafkaSink) Send(ctx context.Context, alert model.AutopilotAlert) error {
	value, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	return s.writer.WriteMessages(ctx, kafka.Message{
		Topic: s.topic,
		Key:   []byte(alert.WorkspaceID),
		Value: value,
		Time:  time.Now(),
	})
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
