package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "helpdesk:session:"

// SessionStorage adapts a Redis client to fiber.Storage so browser sessions
// survive restarts and can be shared between instances.
type SessionStorage struct {
	client *redis.Client
	prefix string
}

// NewSessionStorage returns storage keyed under the helpdesk session prefix.
func NewSessionStorage(r *Redis) *SessionStorage {
	return &SessionStorage{client: r.Client, prefix: sessionKeyPrefix}
}

// Get returns nil, nil for unknown keys as fiber.Storage requires.
func (s *SessionStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	val, err := s.client.Get(context.Background(), s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

// Set stores val with expiry exp; zero means no expiry.
func (s *SessionStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	return s.client.Set(context.Background(), s.prefix+key, val, exp).Err()
}

func (s *SessionStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	return s.client.Del(context.Background(), s.prefix+key).Err()
}

// Reset removes every session key.
func (s *SessionStorage) Reset() error {
	ctx := context.Background()
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close is a no-op; the client belongs to Redis.
func (s *SessionStorage) Close() error {
	return nil
}
