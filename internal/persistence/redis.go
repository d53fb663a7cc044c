package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk/internal/config"
)

// Redis wraps the go-redis client backing browser sessions.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis, retrying the initial ping with exponential
// backoff for up to cfg.ConnectRetrySec seconds. Sessions cannot be served
// without it, so an unreachable server is an error.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ping := func() (struct{}, error) {
		return struct{}{}, client.Ping(ctx).Err()
	}
	_, err := backoff.Retry(ctx, ping,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(time.Duration(cfg.ConnectRetrySec)*time.Second),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn("redis not ready, retrying", zap.Error(err), zap.Duration("next", next))
		}),
	)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("connected to redis", zap.String("addr", cfg.Addr))
	return &Redis{Client: client}, nil
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
