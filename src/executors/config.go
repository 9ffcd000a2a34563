package executors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LoopPeriod time.Duration `envconfig:"LOOP_PERIOD" default:"60s"`
	BatchSize  int           `envconfig:"BATCH_SIZE" default:"20"`
	// Optional workspace filter; empty drains pending work for all workspaces.
	WorkspaceID string `envconfig:"WORKSPACE_ID" default:""`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
