package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hrms/internal/platform/config"
)

// Cache wraps the redis client used for schedule readiness results and
// login throttling counters. A nil client degrades to a no-op so the
// server keeps working without redis.
type Cache struct {
	rdb          *redis.Client
	readinessTTL time.Duration
}

func New(cfg *config.Config) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})
	return &Cache{
		rdb:          rdb,
		readinessTTL: time.Duration(cfg.Redis.ReadinessTTL) * time.Second,
	}
}

func NewDisabled() *Cache {
	return &Cache{}
}

func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *Cache) Ping(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

func readinessKey(scheduleID string) string {
	return "readiness:" + scheduleID
}

func (c *Cache) GetReadiness(ctx context.Context, scheduleID string) ([]byte, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	payload, err := c.rdb.Get(ctx, readinessKey(scheduleID)).Bytes()
	if err != nil {
		return nil, false
	}
	return payload, true
}

func (c *Cache) SetReadiness(ctx context.Context, scheduleID string, payload []byte) {
	if c == nil || c.rdb == nil {
		return
	}
	_ = c.rdb.Set(ctx, readinessKey(scheduleID), payload, c.readinessTTL).Err()
}

func (c *Cache) InvalidateReadiness(ctx context.Context, scheduleID string) {
	if c == nil || c.rdb == nil {
		return
	}
	_ = c.rdb.Del(ctx, readinessKey(scheduleID)).Err()
}

// CountLoginAttempt bumps the per-login failure counter and returns the
// total within the window.
func (c *Cache) CountLoginAttempt(ctx context.Context, login string, window time.Duration) (int64, error) {
	if c == nil || c.rdb == nil {
		return 0, nil
	}
	key := "login_attempts:" + login
	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	if count == 1 {
		_ = c.rdb.Expire(ctx, key, window).Err()
	}
	return count, nil
}

func (c *Cache) ResetLoginAttempts(ctx context.Context, login string) {
	if c == nil || c.rdb == nil {
		return
	}
	_ = c.rdb.Del(ctx, "login_attempts:"+login).Err()
}
