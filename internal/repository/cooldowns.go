package repository

import (
	"context"
	"errors"
	"time"

	"WhaleWatch/pkg/cache"
	applogger "WhaleWatch/pkg/logger"
)

// CacheCooldowns tracks per-trader alert cooldowns as TTL keys. The
// cache owns expiry; there is nothing to sweep.
type CacheCooldowns struct {
	cache  cache.Service
	logger *applogger.Logger
}

func NewCacheCooldowns(cacheSvc cache.Service, logger *applogger.Logger) *CacheCooldowns {
	return &CacheCooldowns{cache: cacheSvc, logger: logger}
}

// OnCooldown reports whether the trader alerted recently. A cache
// error reads as not-on-cooldown; a duplicate alert beats a missed one.
func (c *CacheCooldowns) OnCooldown(ctx context.Context, trader string) bool {
	var marker string
	err := c.cache.Get(ctx, cooldownKey(trader), &marker)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.Warn("cooldown lookup failed",
			applogger.String("trader", trader),
			applogger.Error(err))
	}
	return false
}

func (c *CacheCooldowns) Mark(ctx context.Context, trader string, window time.Duration) {
	if err := c.cache.Set(ctx, cooldownKey(trader), "1", window); err != nil {
		c.logger.Warn("cooldown mark failed",
			applogger.String("trader", trader),
			applogger.Error(err))
	}
}

func cooldownKey(trader string) string {
	return cache.Key("cooldown", trader)
}
