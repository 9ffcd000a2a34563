package features

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	logger "github.com/sirupsen/logrus"
)

// Gate answers whether a feature flag is enabled for a workspace. Only config
// mutation consults it; evaluation and execution never do, so a flag-store
// outage can never disable budget protection.
type Gate interface {
	IsEnabled(ctx context.Context, flag string, workspaceID string) (bool, error)
}

// RedisGate reads per-workspace flags from Redis. A missing key falls back to
// the FEATURES_DEFAULT_ENABLED allowlist.
type RedisGate struct {
	client   *redis.Client
	defaults map[string]bool
}

func NewRedisGate() *RedisGate {
	config := GetConfig()

	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})

	return &RedisGate{client: client, defaults: config.DefaultEnabledSet()}
}

// WithClient overrides the redis client, useful for tests with miniredis-style fakes.
func (g *RedisGate) WithClient(client *redis.Client) *RedisGate {
	return &RedisGate{client: client, defaults: g.defaults}
}

func flagKey(flag, workspaceID string) string {
	return fmt.Sprintf("feature:%s:%s", flag, workspaceID)
}

func (g *RedisGate) IsEnabled(ctx context.Context, flag string, workspaceID string) (bool, error) {
	value, err := g.client.Get(ctx, flagKey(flag, workspaceID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return g.defaults[flag], nil
		}

		logger.WithFields(map[string]interface{}{
			"flag":         flag,
			"workspace_id": workspaceID,
		}).WithError(err).Error("Failed to read feature flag")

		return false, err
	}

	return value == "1" || value == "true", nil
}

// StaticGate is a fixed in-memory gate for tests and single-tenant deployments.
type StaticGate map[string]bool

func (g StaticGate) IsEnabled(_ context.Context, flag string, _ string) (bool, error) {
	return g[flag], nil
}
