package db

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/bohemiyan/cruces/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClientDisabled(t *testing.T) {
	client, err := NewRedisClient(context.Background(), &config.Config{RedisEnabled: false})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	client, err := NewRedisClient(context.Background(), &config.Config{
		RedisEnabled: true,
		RedisHost:    mr.Host(),
		RedisPort:    port,
	})
	require.NoError(t, err)
	require.NotNil(t, client)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	assert.True(t, mr.Exists("k"))
}

func TestNewRedisClientUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	mr.Close()

	_, err = NewRedisClient(context.Background(), &config.Config{
		RedisEnabled: true,
		RedisHost:    "127.0.0.1",
		RedisPort:    port,
	})
	assert.Error(t, err)
}
