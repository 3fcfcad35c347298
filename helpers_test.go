package cruces

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory SQLite database. One connection keeps
// the memory database alive and serialises access like a single writer.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func newTestService(t *testing.T, opts ...func(*Config)) *Service {
	t.Helper()

	cfg := Config{DB: newTestDB(t), AutoMigrate: true, EnableAuditLogging: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	svc, err := NewService(cfg)
	require.NoError(t, err)
	return svc
}

// seedMember creates a grupo and a user inside it.
func seedMember(t *testing.T, svc *Service, grupoName, username string) (*Grupo, *Usuario) {
	t.Helper()
	ctx := context.Background()

	grupo, err := svc.CreateGroup(ctx, grupoName)
	require.NoError(t, err)
	user, err := svc.CreateUser(ctx, username, &grupo.ID)
	require.NoError(t, err)
	return grupo, user
}

func seedMenu(t *testing.T, svc *Service, name string) *Menu {
	t.Helper()
	menu, err := svc.EnsureMenu(context.Background(), name, "ver", "editar")
	require.NoError(t, err)
	return menu
}

func uintPtr(v uint) *uint { return &v }
