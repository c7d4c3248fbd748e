package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "technews:summary:"

// RedisStore keeps summaries as JSON strings that expire on their own.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a Redis client and verifies connectivity.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{rdb: rdb, ttl: ttl}, nil
}

func redisKey(url string) string {
	return redisKeyPrefix + URLHash(url)
}

func (rs *RedisStore) Get(ctx context.Context, url string) (SummaryRecord, error) {
	val, err := rs.rdb.Get(ctx, redisKey(url)).Result()
	if errors.Is(err, redis.Nil) {
		return SummaryRecord{}, ErrNotFound
	}
	if err != nil {
		return SummaryRecord{}, fmt.Errorf("redis get failed: %w", err)
	}

	var rec SummaryRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return SummaryRecord{}, fmt.Errorf("corrupt summary record: %w", err)
	}
	return rec, nil
}

// Put stores rec; the key expires ttl after rec.CreatedAt.
func (rs *RedisStore) Put(ctx context.Context, rec SummaryRecord) error {
	expiry := rs.ttl - time.Since(rec.CreatedAt)
	if expiry <= 0 {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	return rs.rdb.Set(ctx, redisKey(rec.URL), data, expiry).Err()
}

func (rs *RedisStore) Close() error {
	return rs.rdb.Close()
}
