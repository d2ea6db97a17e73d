package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedis(t *testing.T) *RedisClient {
	t.Helper()
	mr := miniredis.RunT(t)
	return &RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
}

func TestRedisCacheOperations(t *testing.T) {
	client := testRedis(t)
	defer client.Close()
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "dashboard:snapshot", `{"theses":[]}`, time.Minute))

	value, err := client.Get(ctx, "dashboard:snapshot")
	require.NoError(t, err)
	assert.Equal(t, `{"theses":[]}`, value)

	require.NoError(t, client.Delete(ctx, "dashboard:snapshot"))
	_, err = client.Get(ctx, "dashboard:snapshot")
	assert.ErrorIs(t, err, redis.Nil)
}

func TestRedisHealthCheck(t *testing.T) {
	client := testRedis(t)
	defer client.Close()

	assert.NoError(t, client.HealthCheck(context.Background()))
}
