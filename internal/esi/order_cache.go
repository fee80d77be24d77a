package esi

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// orderCacheTTL is how long a fetched order book snapshot stays fresh. ESI
// caches the endpoint for 5 minutes server-side, so a shorter TTL only burns
// requests for identical data.
const orderCacheTTL = 5 * time.Minute

type orderCacheEntry struct {
	orders    []MarketOrder
	fetchedAt time.Time
}

// OrderCache is a TTL cache of per-type order books keyed by
// (region, type, side). Concurrent misses for the same key are collapsed
// through singleflight so a burst of verifications issues one upstream fetch.
type OrderCache struct {
	mu      sync.RWMutex
	entries map[string]orderCacheEntry
	group   singleflight.Group

	now func() time.Time
}

func NewOrderCache() *OrderCache {
	return &OrderCache{
		entries: make(map[string]orderCacheEntry),
		now:     time.Now,
	}
}

func orderKey(regionID, typeID int32, side string) string {
	return fmt.Sprintf("%d:%d:%s", regionID, typeID, side)
}

// Get returns the cached order book for a key, or calls fetch to fill it.
// A fetch error is returned to every collapsed caller and nothing is cached.
func (oc *OrderCache) Get(regionID, typeID int32, side string, fetch func() ([]MarketOrder, error)) ([]MarketOrder, error) {
	key := orderKey(regionID, typeID, side)

	oc.mu.RLock()
	entry, ok := oc.entries[key]
	oc.mu.RUnlock()
	if ok && oc.now().Sub(entry.fetchedAt) < orderCacheTTL {
		return entry.orders, nil
	}

	v, err, _ := oc.group.Do(key, func() (interface{}, error) {
		// Another collapsed caller may have filled the entry already.
		oc.mu.RLock()
		entry, ok := oc.entries[key]
		oc.mu.RUnlock()
		if ok && oc.now().Sub(entry.fetchedAt) < orderCacheTTL {
			return entry.orders, nil
		}

		orders, err := fetch()
		if err != nil {
			return nil, err
		}
		oc.mu.Lock()
		oc.entries[key] = orderCacheEntry{orders: orders, fetchedAt: oc.now()}
		oc.mu.Unlock()
		return orders, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]MarketOrder), nil
}

// Invalidate drops one cached order book.
func (oc *OrderCache) Invalidate(regionID, typeID int32, side string) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	delete(oc.entries, orderKey(regionID, typeID, side))
}

// Len returns the number of cached order books.
func (oc *OrderCache) Len() int {
	oc.mu.RLock()
	defer oc.mu.RUnlock()
	return len(oc.entries)
}

// TypeOrders fetches a type's order book through the cache.
func (c *Client) TypeOrders(regionID, typeID int32, side string) ([]MarketOrder, error) {
	return c.orderCache.Get(regionID, typeID, side, func() ([]MarketOrder, error) {
		return c.FetchTypeOrders(regionID, typeID, side)
	})
}
