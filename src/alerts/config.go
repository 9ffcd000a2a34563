package alerts

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	KafkaBrokers string        `envconfig:"ALERT_KAFKA_BROKERS" default:""`
	Topic        string        `envconfig:"ALERT_KAFKA_TOPIC" default:"autopilot-alerts"`
	WriteTimeout time.Duration `envconfig:"ALERT_KAFKA_WRITE_TIMEOUT" default:"5s"`
}

// Brokers splits the comma-separated broker list, dropping empty entries.
func (c Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
