// Package cruces implements the authorization core of the traffic-signal
// incident system: grupo → menu grants, the request gate that evaluates them,
// and the nested-set tree of incident types.
package cruces

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config holds the configuration for the Service.
type Config struct {
	DB                 *gorm.DB
	RedisClient        *redis.Client // optional; nil disables the check cache
	CacheTTL           time.Duration
	CachePrefix        string
	AutoMigrate        bool
	EnableAuditLogging bool
	Logger             *zap.SugaredLogger
}

// Service exposes the permission admin API, the permission check, the
// request gate and the category tree manager. It keeps no per-request state.
type Service struct {
	db           *gorm.DB
	redis        *redis.Client
	cacheTTL     time.Duration
	cachePrefix  string
	auditEnabled bool
	log          *zap.SugaredLogger

	// treeMu serialises structural tree mutations within this process.
	treeMu sync.Mutex
}

// NewService validates cfg, migrates the schema when asked to and returns a ready Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	if cfg.CachePrefix == "" {
		cfg.CachePrefix = "cruces:"
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	if cfg.AutoMigrate {
		if err := cfg.DB.AutoMigrate(&Grupo{}, &Menu{}, &Accion{}, &Usuario{}, &Permiso{}, &Tipo{}, &AuditLog{}); err != nil {
			return nil, fmt.Errorf("failed to auto-migrate: %w", err)
		}
	}

	return &Service{
		db:           cfg.DB,
		redis:        cfg.RedisClient,
		cacheTTL:     cfg.CacheTTL,
		cachePrefix:  cfg.CachePrefix,
		auditEnabled: cfg.EnableAuditLogging,
		log:          cfg.Logger,
	}, nil
}

type ctxKey int

const (
	actorKey ctxKey = iota
	requestIDKey
)

// WithActor records the acting user on ctx for audit entries.
func WithActor(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, actorKey, userID)
}

// ActorFromContext returns the acting user set by WithActor.
func ActorFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(actorKey).(uint)
	return id, ok
}

// WithRequestID tags ctx with a correlation id. An empty id generates one.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the correlation id, or "" when none was set.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
