package graph

import "sync"

// pairKey is an unordered system pair. Normalizing the order guarantees that
// Distance(a,b) and Distance(b,a) hit the same entry.
type pairKey struct {
	lo, hi int32
}

func makePairKey(a, b int32) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// DistanceCache memoizes shortest-path lookups against a Universe. It is
// owned by whoever constructs it (not a package global) so tests can Reset it
// and a long-lived service could swap in an evicting variant later. Entries
// accumulate for the process lifetime; only successful lookups are stored.
type DistanceCache struct {
	mu       sync.RWMutex
	universe *Universe
	dist     map[pairKey]int
}

// NewDistanceCache creates an empty cache over the given universe.
func NewDistanceCache(u *Universe) *DistanceCache {
	return &DistanceCache{
		universe: u,
		dist:     make(map[pairKey]int),
	}
}

// Distance returns the shortest jump count between two systems, consulting
// the memo first. Returns NoPath for unreachable or unknown systems; NoPath
// results are not cached so a later graph rebuild is not poisoned by them.
func (c *DistanceCache) Distance(a, b int32) int {
	key := makePairKey(a, b)

	c.mu.RLock()
	d, ok := c.dist[key]
	c.mu.RUnlock()
	if ok {
		return d
	}

	d = c.universe.ShortestPath(a, b)
	if d == NoPath {
		return NoPath
	}

	c.mu.Lock()
	c.dist[key] = d
	c.mu.Unlock()
	return d
}

// Matrix computes all pairwise distances for a set of systems, reusing the
// memo. Unreachable pairs are omitted from the result. The diagonal is
// always present with distance 0 for known systems.
func (c *DistanceCache) Matrix(systems []int32) map[int32]map[int32]int {
	out := make(map[int32]map[int32]int, len(systems))
	for _, a := range systems {
		for _, b := range systems {
			d := c.Distance(a, b)
			if d == NoPath {
				continue
			}
			if out[a] == nil {
				out[a] = make(map[int32]int)
			}
			out[a][b] = d
		}
	}
	return out
}

// Len returns the number of memoized pairs.
func (c *DistanceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.dist)
}

// Reset drops all memoized distances.
func (c *DistanceCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dist = make(map[pairKey]int)
}
