package repository

import (
	"context"
	"testing"
	"time"

	"WhaleWatch/pkg/cache"
	applogger "WhaleWatch/pkg/logger"
)

func TestCooldownMarkAndCheck(t *testing.T) {
	mem := cache.NewMemoryCache(time.Minute)
	defer mem.Close()
	cd := NewCacheCooldowns(mem, applogger.Nop())
	ctx := context.Background()

	if cd.OnCooldown(ctx, "0xabc") {
		t.Fatalf("fresh trader must not be on cooldown")
	}
	cd.Mark(ctx, "0xabc", time.Hour)
	if !cd.OnCooldown(ctx, "0xabc") {
		t.Fatalf("marked trader must be on cooldown")
	}
	if cd.OnCooldown(ctx, "0xother") {
		t.Fatalf("other trader must not be affected")
	}
}

func TestCooldownExpires(t *testing.T) {
	mem := cache.NewMemoryCache(time.Minute)
	defer mem.Close()
	cd := NewCacheCooldowns(mem, applogger.Nop())
	ctx := context.Background()

	cd.Mark(ctx, "0xabc", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	if cd.OnCooldown(ctx, "0xabc") {
		t.Fatalf("cooldown must expire with the key")
	}
}
