package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache holds full dataset snapshots keyed by id. Datasets never change
// after they are written, so a snapshot is either current or deleted.
type RedisCache struct {
	client      *redis.Client
	snapshotTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, snapshotTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:      redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		snapshotTTL: snapshotTTL,
	}
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, snapshotTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, snapshotTTL: snapshotTTL}
}

// GetDataset returns nil, nil on a miss.
func (c *RedisCache) GetDataset(ctx context.Context, id int64) (*domain.Dataset, error) {
	data, err := c.client.Get(ctx, datasetKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var ds domain.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("decode dataset snapshot %d: %w", id, err)
	}
	return &ds, nil
}

func (c *RedisCache) SetDataset(ctx context.Context, ds *domain.Dataset) error {
	payload, err := json.Marshal(ds)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, datasetKey(ds.ID), payload, c.snapshotTTL).Err()
}

func (c *RedisCache) DeleteDatasets(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, datasetKey(id))
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func datasetKey(id int64) string {
	return fmt.Sprintf("cache:dataset:%d", id)
}
