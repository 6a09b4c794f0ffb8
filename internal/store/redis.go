package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/codemytelab/gamezone/internal/game"
)

const redisKeyPrefix = "gamezone:session:"

var _ Store = (*Redis)(nil)

// Redis stores sessions as JSON strings that expire after ttl without activity.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// OpenRedis parses a redis:// URL, connects and pings the server.
func OpenRedis(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return NewRedis(client, ttl), nil
}

// NewRedis wraps an existing client. A zero ttl keeps keys until deleted.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Close closes the underlying client.
func (r *Redis) Close() error { return r.client.Close() }

func (r *Redis) Save(ctx context.Context, s game.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	return r.client.Set(ctx, redisKeyPrefix+s.ID, data, r.ttl).Err()
}

func (r *Redis) Get(ctx context.Context, id string) (game.Session, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return game.Session{}, ErrNotFound
	}
	if err != nil {
		return game.Session{}, err
	}
	var s game.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return game.Session{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return s, nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, redisKeyPrefix+id).Err()
}
