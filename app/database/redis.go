package database

import (
	"context"
	"time"

	"github.com/worckyky/sport-booking-backend/config"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const redisPingTimeout = 2 * time.Second

// OpenRedis returns nil when redis is not configured or unreachable; callers
// degrade by disabling rate limiting and session revocation.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		logrus.Info("REDIS_ADDR not set, rate limiting and session revocation disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logrus.WithError(err).WithField("addr", cfg.Addr).Warn("Redis unreachable, continuing without it")
		_ = client.Close()
		return nil
	}

	return client
}
