package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/villa-web/internal/store"
)

// SessionRepo loads and saves persisted store snapshots by session id.
type SessionRepo interface {
	Load(ctx context.Context, id string) (store.Snapshot, error)
	Save(ctx context.Context, id string, snap store.Snapshot) error
	Delete(ctx context.Context, id string) error
}

// RedisSessionRepo keeps one JSON value per session, refreshing its TTL on
// every save.
type RedisSessionRepo struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSessionRepo returns a repo writing keys "villa:session:<id>".
func NewRedisSessionRepo(client *redis.Client, ttl time.Duration) *RedisSessionRepo {
	return &RedisSessionRepo{client: client, prefix: "villa:session:", ttl: ttl}
}

func (r *RedisSessionRepo) key(id string) string { return r.prefix + id }

// Load returns ErrSessionNotFound when the key is missing or expired.
func (r *RedisSessionRepo) Load(ctx context.Context, id string) (store.Snapshot, error) {
	if id == "" {
		return store.Snapshot{}, ErrInvalidSessionID
	}
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return store.Snapshot{}, ErrSessionNotFound
	}
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("load session: %w", err)
	}
	var snap store.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return store.Snapshot{}, fmt.Errorf("decode session: %w", err)
	}
	return snap, nil
}

// Save overwrites the snapshot and resets its TTL.
func (r *RedisSessionRepo) Save(ctx context.Context, id string, snap store.Snapshot) error {
	if id == "" {
		return ErrInvalidSessionID
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return r.client.Set(ctx, r.key(id), data, r.ttl).Err()
}

// Delete is a no-op for unknown ids.
func (r *RedisSessionRepo) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}
