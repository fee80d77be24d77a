package graph

// NoPath is returned by ShortestPath when two systems are not connected
// or when either system is absent from the graph.
const NoPath = -1

// ShortestPath returns the minimum jump count between origin and dest using
// breadth-first search. Every edge costs one jump. Returns NoPath when either
// system is unknown or the frontier empties before reaching dest.
func (u *Universe) ShortestPath(origin, dest int32) int {
	if !u.Contains(origin) || !u.Contains(dest) {
		return NoPath
	}
	if origin == dest {
		return 0
	}

	dist := map[int32]int{origin: 0}
	queue := []int32{origin}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		d := dist[current]
		for _, neighbor := range u.Adj[current] {
			if _, visited := dist[neighbor]; visited {
				continue
			}
			if neighbor == dest {
				return d + 1
			}
			dist[neighbor] = d + 1
			queue = append(queue, neighbor)
		}
	}
	return NoPath
}

// SystemsWithinRadius returns all systems reachable from origin within
// maxJumps, mapped to their distance in jumps. Origin itself is included
// with distance 0.
func (u *Universe) SystemsWithinRadius(origin int32, maxJumps int) map[int32]int {
	result := make(map[int32]int)
	if !u.Contains(origin) {
		return result
	}
	result[origin] = 0

	queue := []int32{origin}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		dist := result[current]
		if dist >= maxJumps {
			continue
		}
		for _, neighbor := range u.Adj[current] {
			if _, visited := result[neighbor]; !visited {
				result[neighbor] = dist + 1
				queue = append(queue, neighbor)
			}
		}
	}
	return result
}

// RegionsInSet returns the unique region IDs for a set of systems.
func (u *Universe) RegionsInSet(systems map[int32]int) map[int32]bool {
	regions := make(map[int32]bool)
	for sysID := range systems {
		if r, ok := u.SystemRegion[sysID]; ok {
			regions[r] = true
		}
	}
	return regions
}
