package service

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gradff/backend/internal/model"
	"gradff/backend/internal/repository"
)

var (
	requestCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gradff_request_cache_hits_total",
		Help: "申请列表缓存命中次数",
	})
	requestCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gradff_request_cache_misses_total",
		Help: "申请列表缓存未命中次数",
	})
	requestCacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gradff_request_cache_invalidations_total",
		Help: "因写入而失效的缓存条目数",
	})
)

// requestCache 按学期缓存的申请查询结果。
// 键为 "{学期}|{排序后的条件}"，同一学期的所有条件组合在该学期有写入时一并失效。
// 每个学期维护一个写入代数：查询前记下代数，写回时代数已变化则丢弃结果，
// 避免并发写入之后把旧结果放回缓存。
type requestCache struct {
	lru *expirable.LRU[string, []model.Request]

	mu   sync.Mutex
	gens map[string]uint64
}

// newRequestCache ttl <= 0 表示不过期
func newRequestCache(size int, ttl time.Duration) *requestCache {
	return &requestCache{
		lru:  expirable.NewLRU[string, []model.Request](size, nil, ttl),
		gens: make(map[string]uint64),
	}
}

// cacheKey 仅当条件中含 semester 时可缓存，同时返回该学期
func cacheKey(filters []repository.Filter) (key, semester string, ok bool) {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		if f.Field == "semester" {
			semester = f.Value
		}
		parts = append(parts, f.Field+"="+f.Value)
	}
	if semester == "" {
		return "", "", false
	}
	sort.Strings(parts)
	return semester + "|" + strings.Join(parts, "&"), semester, true
}

func (c *requestCache) generation(semester string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[semester]
}

func (c *requestCache) get(key string) ([]model.Request, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		requestCacheHits.Inc()
		return v, true
	}
	requestCacheMisses.Inc()
	return nil, false
}

// put 仅当学期代数仍为 gen 时写入
func (c *requestCache) put(key, semester string, gen uint64, list []model.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[semester] != gen {
		return
	}
	c.lru.Add(key, list)
}

// invalidate 删除某学期下的所有缓存结果
func (c *requestCache) invalidate(semester string) {
	if semester == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[semester]++

	prefix := semester + "|"
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.lru.Remove(k)
			requestCacheInvalidations.Inc()
		}
	}
}
