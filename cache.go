package cruces

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// cacheGen stamps cached checks. Invalidation bumps a generation, so a check
// that read the store before the bump writes under a key no later check reads.
type cacheGen struct {
	all, user int64
}

func (s *Service) genKey(userID uint) string {
	if userID == 0 {
		return s.cachePrefix + "gen"
	}
	return fmt.Sprintf("%sgen:%d", s.cachePrefix, userID)
}

// cacheGeneration reads the global and per-user generations. ok is false when
// caching is disabled or Redis is unreachable; the check then skips the cache.
func (s *Service) cacheGeneration(ctx context.Context, userID uint) (gen cacheGen, ok bool) {
	if s.redis == nil {
		return cacheGen{}, false
	}

	vals, err := s.redis.MGet(ctx, s.genKey(0), s.genKey(userID)).Result()
	if err != nil {
		s.log.Warnw("permission cache generation read failed", "user_id", userID, "error", err)
		return cacheGen{}, false
	}
	parse := func(v interface{}) int64 {
		str, _ := v.(string)
		n, _ := strconv.ParseInt(str, 10, 64)
		return n
	}
	return cacheGen{all: parse(vals[0]), user: parse(vals[1])}, true
}

// getCacheKey generates the Redis key for a cached permission check. Action names are
// not part of the key since checks are decided per menu.
func (s *Service) getCacheKey(userID uint, menuName string, gen cacheGen) string {
	return fmt.Sprintf("%sperm:%d:%s:%d.%d", s.cachePrefix, userID, menuName, gen.all, gen.user)
}

// checkCache returns the cached result of a check and whether one was present.
func (s *Service) checkCache(ctx context.Context, userID uint, menuName string, gen cacheGen) (allowed, hit bool) {
	val, err := s.redis.Get(ctx, s.getCacheKey(userID, menuName, gen)).Result()
	if errors.Is(err, redis.Nil) {
		return false, false
	}
	if err != nil {
		s.log.Warnw("permission cache read failed", "user_id", userID, "menu", menuName, "error", err)
		return false, false
	}
	return val == "1", true
}

// setCache caches a permission check result under the generation read before the store was queried.
func (s *Service) setCache(ctx context.Context, userID uint, menuName string, gen cacheGen, allowed bool) {
	val := "0"
	if allowed {
		val = "1"
	}
	if err := s.redis.Set(ctx, s.getCacheKey(userID, menuName, gen), val, s.cacheTTL).Err(); err != nil {
		s.log.Warnw("permission cache write failed", "user_id", userID, "menu", menuName, "error", err)
	}
}

// invalidateCache drops cached checks for one user, or for everybody when userID is 0.
// Grant mutations touch every member of a grupo, so they clear the lot.
func (s *Service) invalidateCache(ctx context.Context, userID uint) {
	if s.redis == nil {
		return
	}

	if err := s.redis.Incr(ctx, s.genKey(userID)).Err(); err != nil {
		s.log.Warnw("permission cache generation bump failed", "user_id", userID, "error", err)
	}

	pattern := s.cachePrefix + "perm:*"
	if userID != 0 {
		pattern = fmt.Sprintf("%sperm:%d:*", s.cachePrefix, userID)
	}
	if err := s.deleteMatching(ctx, pattern); err != nil {
		s.log.Warnw("permission cache invalidation failed", "pattern", pattern, "error", err)
	}
}

func (s *Service) deleteMatching(ctx context.Context, pattern string) error {
	iter := s.redis.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.redis.Del(ctx, keys...).Err()
}

// ClearAllCache drops every cached check.
func (s *Service) ClearAllCache(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	if err := s.redis.Incr(ctx, s.genKey(0)).Err(); err != nil {
		return err
	}
	return s.deleteMatching(ctx, s.cachePrefix+"perm:*")
}

// GetCacheStats returns cache statistics
func (s *Service) GetCacheStats(ctx context.Context) map[string]interface{} {
	stats := map[string]interface{}{
		"cache_prefix":  s.cachePrefix,
		"redis_enabled": s.redis != nil,
		"ttl_minutes":   s.cacheTTL.Minutes(),
	}

	if s.redis != nil {
		var count int
		iter := s.redis.Scan(ctx, 0, s.cachePrefix+"perm:*", 100).Iterator()
		for iter.Next(ctx) {
			count++
		}
		if iter.Err() == nil {
			stats["cache_keys_count"] = count
		}
	}

	return stats
}
