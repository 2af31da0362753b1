package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRedisClient struct {
	mock.Mock
}

func (m *mockRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return redis.NewStringResult(args.String(0), args.Error(1))
}

func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return redis.NewStatusResult(args.String(0), args.Error(1))
}

func (m *mockRedisClient) Ping(ctx context.Context) *redis.StatusCmd {
	args := m.Called(ctx)
	return redis.NewStatusResult(args.String(0), args.Error(1))
}

func (m *mockRedisClient) Close() error {
	return m.Called().Error(0)
}

func TestRedisStoreLoad(t *testing.T) {
	ctx := context.Background()
	payload, err := json.Marshal(sampleFeatures())
	require.NoError(t, err)

	client := new(mockRedisClient)
	client.On("Get", ctx, DefaultRedisKey).Return(string(payload), nil)

	store := NewRedisStoreWithClient(client, "")
	loaded, err := store.Load(ctx)

	require.NoError(t, err)
	assert.Equal(t, sampleFeatures(), loaded)
	client.AssertExpectations(t)
}

func TestRedisStoreMiss(t *testing.T) {
	ctx := context.Background()
	client := new(mockRedisClient)
	client.On("Get", ctx, "water").Return("", redis.Nil)

	_, err := NewRedisStoreWithClient(client, "water").Load(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisStoreCorrupt(t *testing.T) {
	ctx := context.Background()
	client := new(mockRedisClient)
	client.On("Get", ctx, "water").Return("[{", nil)

	_, err := NewRedisStoreWithClient(client, "water").Load(ctx)
	assert.ErrorIs(t, err, ErrCacheCorrupt)
}

func TestRedisStoreLoadError(t *testing.T) {
	ctx := context.Background()
	connErr := errors.New("connection reset")
	client := new(mockRedisClient)
	client.On("Get", ctx, "water").Return("", connErr)

	_, err := NewRedisStoreWithClient(client, "water").Load(ctx)
	assert.ErrorIs(t, err, connErr)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestRedisStoreSave(t *testing.T) {
	ctx := context.Background()
	payload, err := json.Marshal(sampleFeatures())
	require.NoError(t, err)

	client := new(mockRedisClient)
	client.On("Set", ctx, "water", payload, time.Duration(0)).Return("OK", nil)

	store := NewRedisStoreWithClient(client, "water")
	require.NoError(t, store.Save(ctx, sampleFeatures()))
	assert.Equal(t, "redis:water", store.Name())
	client.AssertExpectations(t)
}

func TestRedisStoreSaveError(t *testing.T) {
	ctx := context.Background()
	client := new(mockRedisClient)
	client.On("Set", ctx, "water", mock.Anything, time.Duration(0)).Return("", errors.New("READONLY"))

	err := NewRedisStoreWithClient(client, "water").Save(ctx, sampleFeatures())
	assert.ErrorContains(t, err, "READONLY")
}
