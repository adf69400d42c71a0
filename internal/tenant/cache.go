// internal/tenant/cache.go
//
// Read-mostly tenant cache.
//
// Context
// -------
// Every request resolves a slug before any data access, so the tenant
// row is the hottest read in the system.  The cache loads rows lazily
// through a singleflight group (one DB round trip per slug under
// thundering-herd load), stores them in a sync.Map, and evicts on idle
// TTL or LRU pressure.  Mutating handlers call Invalidate after a tenant
// update so the next request observes the new row.
package tenant

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/singleflight"

	"github.com/keelhq/tenantcore/internal/metrics"
)

// Static defaults.  Override via the cache section of the config.
const (
	IdleTTL       = 30 * time.Minute
	MaxEntries    = 1000
	EvictInterval = 5 * time.Minute
)

type entry struct {
	tenant   *Tenant
	lastSeen int64 // UnixNano
}

// Cache lazily loads tenant rows by slug and evicts them on idle TTL or
// LRU pressure.
type Cache struct {
	db          *sqlx.DB
	sfg         singleflight.Group
	m           sync.Map
	evictTicker *time.Ticker
	idleTTL     time.Duration
	maxEntries  int
}

// NewCache constructs a Cache and starts the background evictor.
func NewCache(db *sqlx.DB, idleTTL time.Duration, maxEntries int) *Cache {
	if idleTTL <= 0 {
		idleTTL = IdleTTL
	}
	if maxEntries <= 0 {
		maxEntries = MaxEntries
	}
	c := &Cache{
		db:         db,
		idleTTL:    idleTTL,
		maxEntries: maxEntries,
	}
	c.evictTicker = time.NewTicker(EvictInterval)
	go c.evictLoop()
	return c
}

// Get returns the Tenant for slug, loading it on demand.
func (c *Cache) Get(ctx context.Context, slug string) (*Tenant, error) {
	if v, ok := c.m.Load(slug); ok {
		ent := v.(*entry)
		atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
		return ent.tenant, nil
	}

	v, err, _ := c.sfg.Do(slug, func() (interface{}, error) {
		// Double-check after the singleflight barrier.
		if v, ok := c.m.Load(slug); ok {
			ent := v.(*entry)
			atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
			return ent.tenant, nil
		}
		ten, err := BySlug(ctx, c.db, slug)
		if err != nil {
			metrics.TenantLoadErrorsTotal.Inc()
			return nil, err
		}
		c.m.Store(slug, &entry{
			tenant:   ten,
			lastSeen: time.Now().UnixNano(),
		})
		metrics.TenantLoadTotal.Inc()
		metrics.ActiveTenants.Inc()
		return ten, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Tenant), nil
}

// Invalidate drops slug from the cache so the next Get reloads it.
func (c *Cache) Invalidate(slug string) {
	if _, ok := c.m.LoadAndDelete(slug); ok {
		metrics.ActiveTenants.Dec()
	}
}

// evictLoop scans the map every EvictInterval and removes tenants idle
// longer than idleTTL, then trims least-recently-used entries once the
// map exceeds maxEntries.
func (c *Cache) evictLoop() {
	for range c.evictTicker.C {
		now := time.Now().UnixNano()
		var count int

		c.m.Range(func(key, value any) bool {
			count++
			ent := value.(*entry)
			idle := time.Duration(now - atomic.LoadInt64(&ent.lastSeen))
			if idle > c.idleTTL {
				c.m.Delete(key)
				count--
				metrics.TenantEvictTotal.Inc()
				metrics.ActiveTenants.Dec()
			}
			return true
		})

		if c.maxEntries > 0 && count > c.maxEntries {
			c.evictLRU(count - c.maxEntries)
		}
	}
}

func (c *Cache) evictLRU(n int) {
	type kv struct {
		key string
		at  int64
	}
	var all []kv
	c.m.Range(func(key, value any) bool {
		all = append(all, kv{key: key.(string), at: atomic.LoadInt64(&value.(*entry).lastSeen)})
		return true
	})

	sort.Slice(all, func(i, j int) bool { return all[i].at < all[j].at })
	for i := 0; i < n && i < len(all); i++ {
		if _, ok := c.m.LoadAndDelete(all[i].key); ok {
			metrics.TenantEvictTotal.Inc()
			metrics.ActiveTenants.Dec()
		}
	}
}
