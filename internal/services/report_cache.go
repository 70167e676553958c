package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/callsight/backend/internal/config"
	"github.com/callsight/backend/pkg/logger"
)

// ReportCache memoizes computed reports for a bounded time window. It is an
// explicit instance owned by the report service, not a package global, and it
// is local to one process: separate instances do not share entries.
type ReportCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry

	defaultTTL    time.Duration
	sweepInterval time.Duration
	stopSweep     chan struct{}

	hits      int64
	misses    int64
	evictions int64
}

type cacheEntry struct {
	report    *ReportData
	createdAt time.Time
	expiresAt time.Time
}

// CacheStats is the snapshot exposed by the inspection endpoint.
type CacheStats struct {
	Entries   int   `json:"entries"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// CacheKey builds the exact lookup tuple. Date strings are not normalized:
// two spellings of the same day are two keys.
func CacheKey(rt ReportType, startDate, endDate string) string {
	return fmt.Sprintf("%s|%s|%s", rt, startDate, endDate)
}

func NewReportCache(cfg *config.CacheConfig) *ReportCache {
	return &ReportCache{
		entries:       make(map[string]*cacheEntry),
		defaultTTL:    time.Duration(cfg.TTLMinutes) * time.Minute,
		sweepInterval: time.Duration(cfg.SweepIntervalMinutes) * time.Minute,
		stopSweep:     make(chan struct{}),
	}
}

// Get returns the cached report for key, treating an entry past its expiry as
// absent and evicting it.
func (c *ReportCache) Get(key string) (*ReportData, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		c.evictions++
		c.misses++
		return nil, false
	}
	c.hits++
	return entry.report, true
}

// Set stores a report under key. ttl <= 0 uses the configured default.
// Concurrent computations of the same key are not deduplicated; the later
// Set wins.
func (c *ReportCache) Set(key string, report *ReportData, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &cacheEntry{
		report:    report,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
}

func (c *ReportCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *ReportCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

func (c *ReportCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Entries:   len(c.entries),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// StartSweeper launches the periodic expired-entry sweep. Expired entries are
// also evicted lazily on Get, so the sweeper only bounds memory between
// lookups.
func (c *ReportCache) StartSweeper() {
	go func() {
		ticker := time.NewTicker(c.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.sweep()
			case <-c.stopSweep:
				return
			}
		}
	}()
	logger.Infof("[ReportCache] Sweeper started, interval %v, default TTL %v", c.sweepInterval, c.defaultTTL)
}

func (c *ReportCache) StopSweeper() {
	close(c.stopSweep)
}

func (c *ReportCache) sweep() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			c.evictions++
		}
	}
}
