package revocation

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ventionteams/medfast-credentials/internal/common/clock"
	"github.com/ventionteams/medfast-credentials/internal/common/constants"
	"github.com/ventionteams/medfast-credentials/internal/common/logger"
	"github.com/ventionteams/medfast-credentials/internal/observability/metrics"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

type MemoryCache struct {
	entries sync.Map
	size    atomic.Int64
	clock   clock.Clock
	log     *logger.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewMemoryCache(ctx context.Context, clock clock.Clock, log *logger.Logger) *MemoryCache {
	return newMemoryCache(ctx, clock, log, constants.RevocationCacheCleanupInterval)
}

func newMemoryCache(ctx context.Context, clock clock.Clock, log *logger.Logger, sweepEvery time.Duration) *MemoryCache {
	cacheCtx, cancel := context.WithCancel(ctx)
	cache := &MemoryCache{
		clock:  clock,
		log:    log,
		ctx:    cacheCtx,
		cancel: cancel,
	}

	if sweepEvery > 0 {
		go cache.cleanup(sweepEvery)
	}

	return cache
}

func (c *MemoryCache) Put(_ context.Context, key, value string, ttl time.Duration) error {
	entry := &memoryEntry{
		value:     value,
		expiresAt: c.clock.Now().Add(ttl),
	}
	if _, loaded := c.entries.Swap(key, entry); !loaded {
		c.size.Add(1)
	}
	c.report()
	return nil
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	raw, ok := c.entries.Load(key)
	if !ok {
		return "", false, nil
	}
	entry := raw.(*memoryEntry)
	if c.clock.Now().Before(entry.expiresAt) {
		return entry.value, true, nil
	}
	c.evict(key, entry)
	return "", false, nil
}

func (c *MemoryCache) Len() int {
	return int(c.size.Load())
}

// Sweep removes every expired entry and returns how many were dropped.
func (c *MemoryCache) Sweep() int {
	now := c.clock.Now()
	removed := 0
	c.entries.Range(func(key, value interface{}) bool {
		entry := value.(*memoryEntry)
		if !now.Before(entry.expiresAt) && c.evict(key.(string), entry) {
			removed++
		}
		return true
	})
	return removed
}

func (c *MemoryCache) evict(key string, entry *memoryEntry) bool {
	if c.entries.CompareAndDelete(key, entry) {
		c.size.Add(-1)
		c.report()
		return true
	}
	return false
}

func (c *MemoryCache) report() {
	metrics.RevocationCacheEntries.Set(float64(c.size.Load()))
}

func (c *MemoryCache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if removed := c.Sweep(); removed > 0 && c.log != nil {
				c.log.Debugf("revocation cache cleaned up %d expired entries", removed)
			}
		}
	}
}

func (c *MemoryCache) Close() {
	c.cancel()
}
