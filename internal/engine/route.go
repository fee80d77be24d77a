package engine

import (
	"errors"
	"fmt"

	"github.com/Gularscopter/EVE-Intel/internal/graph"
)

// MaxRouteWaypoints bounds the exhaustive permutation search. Factorial cost
// makes larger sets impractical; this is a documented operating constraint.
const MaxRouteWaypoints = 10

// ErrRouteInfeasible reports that no permutation of the waypoints is fully
// connected in the graph.
var ErrRouteInfeasible = errors.New("route infeasible: no fully connected visiting order")

// FindVisitOrder finds the hop-minimal order to visit a set of systems
// starting from start, by exhaustive permutation over the memoized distance
// cache. Duplicate waypoints and the start itself are dropped before
// enumeration. Permutations containing an unreachable step are skipped, not
// fatal. Ties keep the first minimal permutation in enumeration order.
func FindVisitOrder(dist *graph.DistanceCache, start int32, waypoints []int32) (Route, error) {
	unique := make([]int32, 0, len(waypoints))
	seen := map[int32]bool{start: true}
	for _, w := range waypoints {
		if !seen[w] {
			seen[w] = true
			unique = append(unique, w)
		}
	}

	if len(unique) == 0 {
		return Route{Systems: []int32{start}}, nil
	}
	if len(unique) > MaxRouteWaypoints {
		return Route{}, fmt.Errorf("too many waypoints: %d exceeds limit of %d", len(unique), MaxRouteWaypoints)
	}

	best := Route{}
	found := false
	permute(unique, 0, func(order []int32) {
		total := 0
		prev := start
		for _, next := range order {
			d := dist.Distance(prev, next)
			if d == graph.NoPath {
				return
			}
			total += d
			prev = next
		}
		if !found || total < best.TotalJumps {
			found = true
			systems := make([]int32, 0, len(order)+1)
			systems = append(systems, start)
			systems = append(systems, order...)
			best = Route{Systems: systems, TotalJumps: total}
		}
	})

	if !found {
		return Route{}, ErrRouteInfeasible
	}
	return best, nil
}

// permute enumerates all permutations of s in-place via recursive swaps,
// invoking visit for each. Enumeration order is deterministic and starts
// with the slice's original order.
func permute(s []int32, k int, visit func([]int32)) {
	if k == len(s) {
		visit(s)
		return
	}
	for i := k; i < len(s); i++ {
		s[k], s[i] = s[i], s[k]
		permute(s, k+1, visit)
		s[k], s[i] = s[i], s[k]
	}
}
