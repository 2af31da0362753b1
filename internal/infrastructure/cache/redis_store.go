package cache

import (
	"agri_service/internal/domain/model"
	"agri_service/internal/telemetry"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const DefaultRedisKey = "agri:water_sources"

// RedisClient is the subset of the go-redis client the store needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisStore mirrors the catalog into Redis so several instances can share one fetch.
// Entries never expire, same as the file cache.
type RedisStore struct {
	client RedisClient
	key    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:       cfg.Addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		MaxRetries: 3,
	})
	telemetry.InstrumentRedisClient(rdb)

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreWithClient(rdb, cfg.Key), nil
}

func NewRedisStoreWithClient(client RedisClient, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Name() string {
	return "redis:" + s.key
}

func (s *RedisStore) Load(ctx context.Context) ([]model.WaterFeature, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get key %s: %w", s.key, err)
	}

	var features []model.WaterFeature
	if err := json.Unmarshal([]byte(val), &features); err != nil {
		return nil, fmt.Errorf("%w: redis key %s: %v", ErrCacheCorrupt, s.key, err)
	}
	if features == nil {
		features = []model.WaterFeature{}
	}
	return features, nil
}

func (s *RedisStore) Save(ctx context.Context, features []model.WaterFeature) error {
	data, err := json.Marshal(features)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
