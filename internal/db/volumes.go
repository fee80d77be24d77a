package db

import "time"

// GetAvgVolume retrieves a cached average daily volume for a region/type pair.
// Returns 0, false if not cached or if the entry is older than maxAge.
func (d *DB) GetAvgVolume(regionID, typeID int32, maxAge time.Duration) (float64, bool) {
	var avg float64
	var updatedAt string
	err := d.sql.QueryRow(
		"SELECT avg_volume, updated_at FROM volume_cache WHERE region_id=? AND type_id=?",
		regionID, typeID,
	).Scan(&avg, &updatedAt)
	if err != nil {
		return 0, false
	}

	t, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil || time.Since(t) > maxAge {
		return 0, false
	}
	return avg, true
}

// SetAvgVolume stores an average daily volume with the current timestamp.
func (d *DB) SetAvgVolume(regionID, typeID int32, avgVolume float64) {
	d.sql.Exec(
		"INSERT OR REPLACE INTO volume_cache (region_id, type_id, avg_volume, updated_at) VALUES (?,?,?,?)",
		regionID, typeID, avgVolume, time.Now().UTC().Format(time.RFC3339),
	)
}

// CleanupStaleVolumes removes volume entries not refreshed within maxAge.
// Called on startup to bound database growth.
func (d *DB) CleanupStaleVolumes(maxAge time.Duration) int64 {
	cutoff := time.Now().Add(-maxAge).UTC().Format(time.RFC3339)
	res, err := d.sql.Exec("DELETE FROM volume_cache WHERE updated_at < ?", cutoff)
	if err != nil {
		return 0
	}
	n, _ := res.RowsAffected()
	return n
}
