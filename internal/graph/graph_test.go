package graph

import "testing"

// lineUniverse builds the chain 1-2-3-4 used by several tests.
func lineUniverse() *Universe {
	u := NewUniverse()
	u.AddLink(1, 2)
	u.AddLink(2, 3)
	u.AddLink(3, 4)
	return u
}

func TestShortestPath_SameSystem(t *testing.T) {
	u := lineUniverse()
	if d := u.ShortestPath(2, 2); d != 0 {
		t.Errorf("ShortestPath(2,2) = %d, want 0", d)
	}
}

func TestShortestPath_LineGraph(t *testing.T) {
	u := lineUniverse()
	if d := u.ShortestPath(1, 4); d != 3 {
		t.Errorf("ShortestPath(1,4) = %d, want 3", d)
	}
	if d := u.ShortestPath(1, 2); d != 1 {
		t.Errorf("ShortestPath(1,2) = %d, want 1", d)
	}
}

func TestShortestPath_Symmetry(t *testing.T) {
	u := lineUniverse()
	if a, b := u.ShortestPath(1, 4), u.ShortestPath(4, 1); a != b {
		t.Errorf("ShortestPath(1,4)=%d != ShortestPath(4,1)=%d", a, b)
	}
}

func TestShortestPath_TriangleEquality(t *testing.T) {
	// 3 lies on the shortest path from 1 to 4.
	u := lineUniverse()
	total := u.ShortestPath(1, 4)
	via := u.ShortestPath(1, 3) + u.ShortestPath(3, 4)
	if total != via {
		t.Errorf("d(1,4)=%d, d(1,3)+d(3,4)=%d, want equal", total, via)
	}
}

func TestShortestPath_UnknownSystem(t *testing.T) {
	u := lineUniverse()
	if d := u.ShortestPath(1, 5); d != NoPath {
		t.Errorf("ShortestPath(1,5) = %d, want NoPath", d)
	}
	if d := u.ShortestPath(5, 1); d != NoPath {
		t.Errorf("ShortestPath(5,1) = %d, want NoPath", d)
	}
	// Deterministic: repeated queries keep returning NoPath, never panic.
	for i := 0; i < 3; i++ {
		if d := u.ShortestPath(1, 5); d != NoPath {
			t.Fatalf("repeat %d: ShortestPath(1,5) = %d, want NoPath", i, d)
		}
	}
}

func TestShortestPath_DisconnectedComponents(t *testing.T) {
	u := NewUniverse()
	u.AddLink(1, 2)
	u.AddLink(10, 11)
	if d := u.ShortestPath(1, 11); d != NoPath {
		t.Errorf("ShortestPath(1,11) = %d, want NoPath", d)
	}
}

func TestShortestPath_PicksShorterBranch(t *testing.T) {
	// 1-2-5 and 1-3-4-5: BFS must find the 2-jump route.
	u := NewUniverse()
	u.AddLink(1, 2)
	u.AddLink(2, 5)
	u.AddLink(1, 3)
	u.AddLink(3, 4)
	u.AddLink(4, 5)
	if d := u.ShortestPath(1, 5); d != 2 {
		t.Errorf("ShortestPath(1,5) = %d, want 2", d)
	}
}

func TestSystemsWithinRadius(t *testing.T) {
	u := lineUniverse()
	got := u.SystemsWithinRadius(1, 2)
	want := map[int32]int{1: 0, 2: 1, 3: 2}
	if len(got) != len(want) {
		t.Fatalf("SystemsWithinRadius(1,2) = %v, want %v", got, want)
	}
	for sys, d := range want {
		if got[sys] != d {
			t.Errorf("radius[%d] = %d, want %d", sys, got[sys], d)
		}
	}
}

func TestSystemsWithinRadius_UnknownOrigin(t *testing.T) {
	u := lineUniverse()
	if got := u.SystemsWithinRadius(99, 5); len(got) != 0 {
		t.Errorf("SystemsWithinRadius(99,5) = %v, want empty", got)
	}
}

func TestDistanceCache_SymmetricKey(t *testing.T) {
	u := lineUniverse()
	c := NewDistanceCache(u)

	if d := c.Distance(1, 4); d != 3 {
		t.Fatalf("Distance(1,4) = %d, want 3", d)
	}
	if c.Len() != 1 {
		t.Fatalf("cache len = %d, want 1", c.Len())
	}
	// Reverse query must hit the same entry, not add a second one.
	if d := c.Distance(4, 1); d != 3 {
		t.Errorf("Distance(4,1) = %d, want 3", d)
	}
	if c.Len() != 1 {
		t.Errorf("cache len after reverse query = %d, want 1", c.Len())
	}
}

func TestDistanceCache_NoPathNotCached(t *testing.T) {
	u := lineUniverse()
	c := NewDistanceCache(u)
	if d := c.Distance(1, 99); d != NoPath {
		t.Fatalf("Distance(1,99) = %d, want NoPath", d)
	}
	if c.Len() != 0 {
		t.Errorf("cache len = %d, want 0 (failed lookups are not stored)", c.Len())
	}
}

func TestDistanceCache_Reset(t *testing.T) {
	u := lineUniverse()
	c := NewDistanceCache(u)
	c.Distance(1, 2)
	c.Distance(1, 3)
	if c.Len() != 2 {
		t.Fatalf("cache len = %d, want 2", c.Len())
	}
	c.Reset()
	if c.Len() != 0 {
		t.Errorf("cache len after Reset = %d, want 0", c.Len())
	}
}

func TestDistanceCache_Matrix(t *testing.T) {
	u := NewUniverse()
	u.AddLink(1, 2)
	u.AddLink(2, 3)
	u.AddLink(10, 11) // disconnected island

	c := NewDistanceCache(u)
	m := c.Matrix([]int32{1, 3, 10})

	if m[1][3] != 2 || m[3][1] != 2 {
		t.Errorf("matrix[1][3]=%d matrix[3][1]=%d, want 2/2", m[1][3], m[3][1])
	}
	if m[1][1] != 0 {
		t.Errorf("matrix[1][1] = %d, want 0", m[1][1])
	}
	// Unreachable pairs are omitted entirely.
	if _, ok := m[1][10]; ok {
		t.Error("matrix[1][10] present, want omitted (unreachable)")
	}
	if _, ok := m[10][1]; ok {
		t.Error("matrix[10][1] present, want omitted (unreachable)")
	}
	if m[10][10] != 0 {
		t.Errorf("matrix[10][10] = %d, want 0", m[10][10])
	}
}

func TestRegionsInSet(t *testing.T) {
	u := lineUniverse()
	u.SetRegion(1, 100)
	u.SetRegion(2, 100)
	u.SetRegion(3, 200)
	regions := u.RegionsInSet(map[int32]int{1: 0, 2: 1, 3: 2})
	if len(regions) != 2 || !regions[100] || !regions[200] {
		t.Errorf("RegionsInSet = %v, want {100,200}", regions)
	}
}
