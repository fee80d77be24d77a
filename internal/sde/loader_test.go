package sde

import (
	"os"
	"path/filepath"
	"testing"
)

// writeJSONL drops a .jsonl fixture into dir.
func writeJSONL(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".jsonl"), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func fixtureData(t *testing.T) *Data {
	t.Helper()
	dir := t.TempDir()

	writeJSONL(t, dir, "mapRegions",
		`{"_key":10000002,"name":{"en":"The Forge"}}
{"_key":10000043,"name":{"en":"Domain"}}`)

	writeJSONL(t, dir, "mapSolarSystems",
		`{"_key":30000142,"name":{"en":"Jita"},"regionID":10000002,"securityStatus":0.945}
{"_key":30000144,"name":{"en":"Perimeter"},"regionID":10000002,"securityStatus":0.949}
{"_key":30002187,"name":{"en":"Amarr"},"regionID":10000043,"securityStatus":1.0}`)

	writeJSONL(t, dir, "types",
		`{"_key":34,"name":{"en":"Tritanium"},"volume":0.01,"published":true,"marketGroupID":18}
{"_key":35,"name":{"en":"Pyerite"},"volume":0.01,"packagedVolume":0.02,"published":true,"marketGroupID":18}
{"_key":99,"name":{"en":"Unpublished Thing"},"volume":1,"published":false,"marketGroupID":18}
{"_key":100,"name":{"en":"No Market"},"volume":1,"published":true}`)

	writeJSONL(t, dir, "npcStations",
		`{"_key":60003760,"solarSystemID":30000142}
{"_key":60008494,"solarSystemID":30002187}`)

	writeJSONL(t, dir, "mapStargates",
		`{"solarSystemID":30000142,"destination":{"solarSystemID":30000144}}
{"solarSystemID":30000144,"destination":{"solarSystemID":30000142}}`)

	d := newData()
	for _, load := range []func(string) error{
		d.loadRegions, d.loadSystems, d.loadTypes, d.loadStations, d.loadStargates,
	} {
		if err := load(dir); err != nil {
			t.Fatalf("load: %v", err)
		}
	}
	d.resolveStationNames()
	return d
}

func TestLoad_SystemsAndRegions(t *testing.T) {
	d := fixtureData(t)

	if len(d.Regions) != 2 {
		t.Errorf("regions = %d, want 2", len(d.Regions))
	}
	id, ok := d.SystemID("jita")
	if !ok || id != 30000142 {
		t.Errorf("SystemID(jita) = %d, %v", id, ok)
	}
	if _, ok := d.SystemID("Nonexistent"); ok {
		t.Error("SystemID(Nonexistent) should miss")
	}
	sys := d.Systems[30000142]
	if sys.RegionID != 10000002 || sys.Security != 0.945 {
		t.Errorf("Jita = %+v", sys)
	}
}

func TestLoad_TypesFiltered(t *testing.T) {
	d := fixtureData(t)

	// Unpublished and non-market types are skipped.
	if len(d.Types) != 2 {
		t.Fatalf("types = %d, want 2", len(d.Types))
	}
	if v := d.UnitVolume(34); v != 0.01 {
		t.Errorf("UnitVolume(34) = %v, want 0.01", v)
	}
	// Packaged volume wins over base volume.
	if v := d.UnitVolume(35); v != 0.02 {
		t.Errorf("UnitVolume(35) = %v, want 0.02", v)
	}
	if v := d.UnitVolume(99999); v != 0 {
		t.Errorf("UnitVolume(unknown) = %v, want 0", v)
	}
	if name := d.TypeName(34); name != "Tritanium" {
		t.Errorf("TypeName(34) = %q", name)
	}
	if name := d.TypeName(99999); name != "Type 99999" {
		t.Errorf("TypeName(unknown) = %q", name)
	}
}

func TestLoad_StationsAndGates(t *testing.T) {
	d := fixtureData(t)

	sys, ok := d.StationSystem(60003760)
	if !ok || sys != 30000142 {
		t.Errorf("StationSystem(60003760) = %d, %v", sys, ok)
	}
	if _, ok := d.StationSystem(1035466617946); ok {
		t.Error("StationSystem(structure) should miss")
	}
	if d.Stations[60003760].Name != "Station in Jita" {
		t.Errorf("station name = %q", d.Stations[60003760].Name)
	}

	if dHops := d.Universe.ShortestPath(30000142, 30000144); dHops != 1 {
		t.Errorf("Jita-Perimeter = %d jumps, want 1", dHops)
	}
}

func TestStationsInSystems(t *testing.T) {
	d := fixtureData(t)

	got := d.StationsInSystems(map[int32]int{30000142: 0, 30000144: 1})
	if len(got) != 1 || got[0] != 60003760 {
		t.Errorf("StationsInSystems = %v, want [60003760]", got)
	}
}
