package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Gularscopter/EVE-Intel/internal/logger"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	sql *sql.DB
}

func defaultPath() string {
	// Prefer working directory so the DB is stable across go run / go build.
	// Fall back to executable directory for deployed builds.
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, "eve-intel.db")
	}
	exe, _ := os.Executable()
	return filepath.Join(filepath.Dir(exe), "eve-intel.db")
}

// Open opens (or creates) the SQLite database and runs migrations.
// An empty path uses the default location next to the working directory.
func Open(path string) (*DB, error) {
	if path == "" {
		path = defaultPath()
	}
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	logger.Success("DB", fmt.Sprintf("Opened %s", path))
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	version := 0
	// Try to read current version
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS location_cache (
				location_id INTEGER PRIMARY KEY,
				name        TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS volume_cache (
				region_id  INTEGER NOT NULL,
				type_id    INTEGER NOT NULL,
				avg_volume REAL NOT NULL,
				updated_at TEXT NOT NULL,
				PRIMARY KEY (region_id, type_id)
			);

			CREATE TABLE IF NOT EXISTS scan_history (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				timestamp    TEXT NOT NULL,
				system       TEXT NOT NULL,
				params_json  TEXT NOT NULL DEFAULT '{}',
				count        INTEGER NOT NULL,
				total_profit REAL NOT NULL,
				duration_ms  INTEGER NOT NULL DEFAULT 0
			);
			CREATE INDEX IF NOT EXISTS idx_scan_history_ts ON scan_history(timestamp);

			CREATE TABLE IF NOT EXISTS opportunity_results (
				id              INTEGER PRIMARY KEY AUTOINCREMENT,
				scan_id         INTEGER NOT NULL REFERENCES scan_history(id),
				type_id         INTEGER,
				type_name       TEXT,
				buy_location_id INTEGER,
				buy_system_id   INTEGER,
				buy_station     TEXT,
				sell_location_id INTEGER,
				sell_system_id  INTEGER,
				sell_station    TEXT,
				buy_price       REAL,
				sell_price      REAL,
				units           INTEGER,
				profit_per_unit REAL,
				total_profit    REAL,
				margin_percent  REAL,
				avg_daily_vol   REAL,
				strategy        TEXT
			);
			CREATE INDEX IF NOT EXISTS idx_opp_scan ON opportunity_results(scan_id);
			CREATE INDEX IF NOT EXISTS idx_opp_type ON opportunity_results(type_id);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		logger.Info("DB", "Applied migration v1")
	}

	return nil
}

// SqlDB returns the underlying *sql.DB for use by other packages.
func (d *DB) SqlDB() *sql.DB {
	return d.sql
}
