// Package cache memoises search results in two tiers: an in-process LRU
// and, when configured, a shared Redis store guarded by a circuit breaker.
// Keys embed the result scope of the engine that produced them, so results
// from a different corpus, local or on another replica, are never served.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/filter"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/resilience"
)

const keyPrefix = "lexsearch:search:"

// Remote is the shared tier. *redis.Client from pkg/redis satisfies it.
type Remote interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type Config struct {
	LocalSize int
	TTL       time.Duration
	Breaker   resilience.CircuitBreakerConfig
}

// Stats is a point-in-time view of cache effectiveness.
type Stats struct {
	LocalHits     int64  `json:"local_hits"`
	RemoteHits    int64  `json:"remote_hits"`
	Misses        int64  `json:"misses"`
	LocalEntries  int    `json:"local_entries"`
	RemoteEnabled bool   `json:"remote_enabled"`
	BreakerState  string `json:"breaker_state,omitempty"`
}

type QueryCache struct {
	local   *lru.Cache[string, *executor.SearchResult]
	remote  Remote
	breaker *resilience.CircuitBreaker
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger

	localHits  atomic.Int64
	remoteHits atomic.Int64
	misses     atomic.Int64
}

// New builds a cache. remote may be nil for a local-only cache; m may be
// nil to skip Prometheus reporting.
func New(cfg Config, remote Remote, m *metrics.Metrics) (*QueryCache, error) {
	if cfg.LocalSize <= 0 {
		cfg.LocalSize = 1024
	}
	local, err := lru.New[string, *executor.SearchResult](cfg.LocalSize)
	if err != nil {
		return nil, fmt.Errorf("creating local cache: %w", err)
	}
	c := &QueryCache{
		local:   local,
		remote:  remote,
		ttl:     cfg.TTL,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
	if remote != nil {
		breakerCfg := cfg.Breaker
		if m != nil {
			breakerCfg.OnStateChange = func(name string, _, to resilience.State) {
				m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			}
		}
		c.breaker = resilience.NewCircuitBreaker("redis-cache", breakerCfg)
	}
	return c, nil
}

// Key identifies one search: the engine's result scope, the set of query
// terms, the canonical filters and the limit. Term order does not matter
// because scoring does not depend on it.
func Key(scope string, terms []string, filters filter.Filters, limit int) string {
	sorted := append([]string(nil), terms...)
	sort.Strings(sorted)
	raw := fmt.Sprintf("scope=%s|terms=%s|%s|limit=%d", scope, strings.Join(sorted, ","), filters.Key(), limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// Get looks key up locally, then remotely. A remote hit is copied into the
// local tier.
func (c *QueryCache) Get(ctx context.Context, key string) (*executor.SearchResult, bool) {
	if result, ok := c.local.Get(key); ok {
		c.localHits.Add(1)
		c.recordHit("local")
		return result, true
	}
	if result, ok := c.getRemote(ctx, key); ok {
		c.local.Add(key, result)
		c.remoteHits.Add(1)
		c.recordHit("redis")
		return result, true
	}
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
	return nil, false
}

func (c *QueryCache) getRemote(ctx context.Context, key string) (*executor.SearchResult, bool) {
	if c.remote == nil {
		return nil, false
	}
	var data string
	var found bool
	err := c.breaker.Execute(func() error {
		var err error
		data, found, err = c.remote.Get(ctx, key)
		return err
	})
	if err != nil {
		c.logger.Warn("remote cache get failed", "key", key, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return &result, true
}

// Set stores result in both tiers. Remote failures are logged and
// otherwise ignored.
func (c *QueryCache) Set(ctx context.Context, key string, result *executor.SearchResult) {
	c.local.Add(key, result)
	if c.remote == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.remote.Set(ctx, key, data, c.ttl)
	})
	if err != nil {
		c.logger.Warn("remote cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for key or computes, stores and
// returns it. Concurrent misses on one key share a single computation.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	key string,
	computeFn func() *executor.SearchResult,
) (*executor.SearchResult, bool) {
	if result, ok := c.Get(ctx, key); ok {
		return result, true
	}
	val, _, _ := c.group.Do(key, func() (interface{}, error) {
		if result, ok := c.local.Get(key); ok {
			return result, nil
		}
		result := computeFn()
		c.Set(ctx, key, result)
		return result, nil
	})
	return val.(*executor.SearchResult), false
}

// Invalidate drops every cached result in both tiers.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	purged := c.local.Len()
	c.local.Purge()
	if c.remote == nil {
		c.logger.Info("cache invalidated", "local_entries", purged)
		return nil
	}
	var deleted int64
	err := c.breaker.Execute(func() error {
		var err error
		deleted, err = c.remote.FlushByPattern(ctx, keyPrefix+"*")
		return err
	})
	if err != nil {
		return fmt.Errorf("invalidating remote cache: %w", err)
	}
	c.logger.Info("cache invalidated", "local_entries", purged, "remote_keys", deleted)
	return nil
}

// PurgeLocal drops the in-process tier only. Remote entries for older
// corpus versions become unreachable and expire on their TTL.
func (c *QueryCache) PurgeLocal() {
	c.local.Purge()
}

func (c *QueryCache) Stats() Stats {
	s := Stats{
		LocalHits:     c.localHits.Load(),
		RemoteHits:    c.remoteHits.Load(),
		Misses:        c.misses.Load(),
		LocalEntries:  c.local.Len(),
		RemoteEnabled: c.remote != nil,
	}
	if c.breaker != nil {
		s.BreakerState = c.breaker.CurrentState().String()
	}
	return s
}

func (c *QueryCache) recordHit(tier string) {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues(tier).Inc()
	}
}
