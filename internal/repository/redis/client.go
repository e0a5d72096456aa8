package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iamasit07/connect4-arena/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// NewClient connects to redis. A failed ping is returned so the caller can
// run without the cache.
func NewClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", addr, err)
	}

	log.Info().Str("component", "redis").Str("addr", addr).Msg("connected successfully")
	return client, nil
}

// SnapshotCache keeps the latest snapshot of each game under
// game:<id>:snapshot.
type SnapshotCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewSnapshotCache(client redis.Cmdable, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl}
}

func snapshotKey(gameID string) string {
	return "game:" + gameID + ":snapshot"
}

func (c *SnapshotCache) SaveSnapshot(ctx context.Context, gameID string, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := c.client.Set(ctx, snapshotKey(gameID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache snapshot %s: %w", gameID, err)
	}
	return nil
}

// GetSnapshot returns domain.ErrGameNotFound on a cache miss.
func (c *SnapshotCache) GetSnapshot(ctx context.Context, gameID string) (domain.Snapshot, error) {
	data, err := c.client.Get(ctx, snapshotKey(gameID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Snapshot{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read snapshot %s: %w", gameID, err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", gameID, err)
	}
	return snap, nil
}
