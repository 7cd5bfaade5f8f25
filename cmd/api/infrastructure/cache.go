package infrastructure

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/polymorphisma/userhub/internal/config"
	redisclient "github.com/polymorphisma/userhub/pkg/redis"
)

// NewRedisClient creates a new Redis client with configuration.
// Returns (nil, nil) when Redis is disabled: the caller degrades to
// uncached operation.
func NewRedisClient(cfg *config.Config, l *zap.Logger) (*redisclient.Client, error) {
	if !cfg.Redis.Enabled {
		l.Info("Redis disabled, caching and rate limiting run without it")
		return nil, nil
	}

	redisConfig := redisclient.Config{
		Host:        cfg.Redis.Host,
		Port:        cfg.Redis.Port,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		MaxRetries:  cfg.Redis.MaxRetries,
		PoolSize:    cfg.Redis.PoolSize,
		MinIdleConn: cfg.Redis.MinIdleConn,
	}

	rdb, err := redisclient.NewClient(redisConfig, l)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return rdb, nil
}
