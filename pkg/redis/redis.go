package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/kuotechnology-ui/kindworld-backend/config"
	"github.com/kuotechnology-ui/kindworld-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const connectTimeout = 5 * time.Second

// Connect 피드 전파용 Redis 연결 (ping으로 확인)
func Connect(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := c.Ping(pingCtx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr(), err)
	}

	logger.Info("Redis connection established", map[string]interface{}{
		"addr": cfg.Addr(),
		"db":   cfg.DB,
	})
	return c, nil
}
