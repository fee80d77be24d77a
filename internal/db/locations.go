package db

// GetLocation retrieves a cached location name.
func (d *DB) GetLocation(locationID int64) (string, bool) {
	var name string
	err := d.sql.QueryRow(
		"SELECT name FROM location_cache WHERE location_id=?", locationID,
	).Scan(&name)
	if err != nil {
		return "", false
	}
	return name, true
}

// SetLocation stores a location name. Names never change once resolved, so
// INSERT OR REPLACE is safe.
func (d *DB) SetLocation(locationID int64, name string) {
	d.sql.Exec(
		"INSERT OR REPLACE INTO location_cache (location_id, name) VALUES (?,?)",
		locationID, name,
	)
}

// LocationCount returns the number of cached location names.
func (d *DB) LocationCount() int {
	var n int
	d.sql.QueryRow("SELECT COUNT(*) FROM location_cache").Scan(&n)
	return n
}
