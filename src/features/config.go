package features

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	RedisAddr     string `envconfig:"FEATURES_REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"FEATURES_REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"FEATURES_REDIS_DB" default:"0"`

	// Comma-separated flags that default to enabled when no per-workspace
	// key exists.
	DefaultEnabled string `envconfig:"FEATURES_DEFAULT_ENABLED" default:""`
}

func (c Config) DefaultEnabledSet() map[string]bool {
	set := make(map[string]bool)
	for _, flag := range strings.Split(c.DefaultEnabled, ",") {
		if flag = strings.TrimSpace(flag); flag != "" {
			set[flag] = true
		}
	}
	return set
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
