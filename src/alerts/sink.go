package alerts

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"budgetpilot/src/model"
)

// Sink receives guardrail alerts. Delivery is best-effort by contract:
// callers fire-and-forget and must never let a sink failure affect a
// guardrail decision.
type Sink interface {
	Send(ctx context.Context, alert model.AutopilotAlert) error
}

// LogSink writes alerts to the application log. It is the fallback when no
// broker is configured, so that alert content is still observable.
type LogSink struct{}

func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) Send(_ context.Context, alert model.AutopilotAlert) error {
	logger.WithFields(map[string]interface{}{
		"alert_type":   alert.AlertType,
		"severity":     alert.Severity,
		"workspace_id": alert.WorkspaceID,
	}).Warn(alert.Message)

	return nil
}

// NewSinkFromEnv picks the Kafka sink when brokers are configured and falls
// back to log-only delivery otherwise.
func NewSinkFromEnv() Sink {
	config := GetConfig()

	if len(config.Brokers()) == 0 {
		logger.Info("[alerts] no Kafka brokers configured, using log sink")
		return NewLogSink()
	}

	return NewKafkaSink(config)
}
