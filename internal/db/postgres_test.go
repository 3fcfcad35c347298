package db

import (
	"context"
	"testing"

	"github.com/bohemiyan/cruces/internal/config"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewPostgresDBUnreachable(t *testing.T) {
	cfg := &config.Config{
		PostgresHost:    "127.0.0.1",
		PostgresPort:    1,
		PostgresUser:    "cruces",
		PostgresDB:      "cruces",
		PostgresSSLMode: "disable",
	}

	pg, err := NewPostgresDB(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, pg)
	assert.Contains(t, err.Error(), "ping postgres at 127.0.0.1:1")
}

func TestPostgresDBPingAndClose(t *testing.T) {
	store, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	health, err := store.DB()
	require.NoError(t, err)

	pg := &PostgresDB{DB: health, GormDB: store}
	require.NoError(t, pg.Ping(context.Background()))
	require.NoError(t, pg.Close())
	assert.Error(t, pg.Ping(context.Background()))
}
