package anomaly

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BaseURL    string        `envconfig:"ANOMALY_SERVICE_URL" default:"http://localhost:8090"`
	Timeout    time.Duration `envconfig:"ANOMALY_SERVICE_TIMEOUT" default:"5s"`
	RetryCount int           `envconfig:"ANOMALY_SERVICE_RETRIES" default:"1"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
