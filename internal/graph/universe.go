package graph

// Universe holds the adjacency list of solar systems connected by stargates,
// plus mappings from system to region and security status.
type Universe struct {
	// Adj maps systemID -> list of neighboring systemIDs
	Adj map[int32][]int32
	// SystemRegion maps systemID -> regionID
	SystemRegion map[int32]int32
	// SystemSecurity maps systemID -> security (0.0 null to 1.0 highsec)
	SystemSecurity map[int32]float64
}

// NewUniverse creates an empty Universe with initialized maps.
func NewUniverse() *Universe {
	return &Universe{
		Adj:            make(map[int32][]int32),
		SystemRegion:   make(map[int32]int32),
		SystemSecurity: make(map[int32]float64),
	}
}

// AddGate adds one direction of a stargate connection. Stargate links in the
// static data come as directed pairs; callers add both directions.
func (u *Universe) AddGate(fromSystem, toSystem int32) {
	u.Adj[fromSystem] = append(u.Adj[fromSystem], toSystem)
}

// AddLink adds an undirected connection between two systems.
func (u *Universe) AddLink(a, b int32) {
	u.Adj[a] = append(u.Adj[a], b)
	u.Adj[b] = append(u.Adj[b], a)
}

// SetRegion associates a system with a region.
func (u *Universe) SetRegion(systemID, regionID int32) {
	u.SystemRegion[systemID] = regionID
}

// SetSecurity sets the security level for a system (0.0–1.0).
func (u *Universe) SetSecurity(systemID int32, security float64) {
	u.SystemSecurity[systemID] = security
}

// Contains reports whether a system is part of the stargate graph.
func (u *Universe) Contains(systemID int32) bool {
	_, ok := u.Adj[systemID]
	return ok
}
