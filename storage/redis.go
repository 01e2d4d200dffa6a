package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/clipbridge/clipbridge/model"
)

// RedisBackend stores the slot as a single redis key, for deployments where the
// store server host has no stable filesystem.
type RedisBackend struct {
	client *redis.Client
	key    string
}

// Load implements Backend interface.
func (b *RedisBackend) Load(ctx context.Context) (*model.Clip, error) {
	data, err := b.client.Get(ctx, b.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("redis GET (%s): %w", b.key, err)
	}

	clip := model.Clip{}
	if err := json.Unmarshal(data, &clip); err != nil {
		// Corrupt state degrades to an empty slot
		return nil, nil
	}
	if _, err := model.ParseKind(string(clip.Type)); err != nil {
		return nil, nil
	}

	return &clip, nil
}

// Save implements Backend interface.
func (b *RedisBackend) Save(ctx context.Context, clip *model.Clip) error {
	data, err := json.Marshal(clip)
	if err != nil {
		return fmt.Errorf("JSON marshal: %w", err)
	}

	if err := b.client.Set(ctx, b.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis SET (%s): %w", b.key, err)
	}

	return nil
}

// Close releases the redis connection pool.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

// NewRedisBackend creates a new RedisBackend object.
func NewRedisBackend(addr, key string) (*RedisBackend, error) {
	if addr == "" {
		return nil, fmt.Errorf("%s: must be non-empty", "addr")
	}
	if key == "" {
		return nil, fmt.Errorf("%s: must be non-empty", "key")
	}

	return &RedisBackend{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		key:    key,
	}, nil
}
