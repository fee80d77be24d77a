package db

import (
	"time"

	"github.com/Gularscopter/EVE-Intel/internal/engine"
)

// ScanRecord is one row of the scan history.
type ScanRecord struct {
	ID          int64
	Timestamp   string
	System      string
	ParamsJSON  string
	Count       int
	TotalProfit float64
	DurationMS  int64
}

// InsertScan records a completed scan and returns its ID (0 on failure).
func (d *DB) InsertScan(system, paramsJSON string, count int, totalProfit float64, duration time.Duration) int64 {
	res, err := d.sql.Exec(
		"INSERT INTO scan_history (timestamp, system, params_json, count, total_profit, duration_ms) VALUES (?,?,?,?,?,?)",
		time.Now().UTC().Format(time.RFC3339), system, paramsJSON, count, totalProfit, duration.Milliseconds(),
	)
	if err != nil {
		return 0
	}
	id, _ := res.LastInsertId()
	return id
}

// GetScans returns the most recent scans, newest first.
func (d *DB) GetScans(limit int) []ScanRecord {
	rows, err := d.sql.Query(
		"SELECT id, timestamp, system, params_json, count, total_profit, duration_ms FROM scan_history ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var records []ScanRecord
	for rows.Next() {
		var r ScanRecord
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.System, &r.ParamsJSON, &r.Count, &r.TotalProfit, &r.DurationMS); err != nil {
			continue
		}
		records = append(records, r)
	}
	return records
}

// InsertOpportunities stores a scan's verified opportunities. A scanID of 0
// means the scan row was never created, so nothing is stored.
func (d *DB) InsertOpportunities(scanID int64, opps []engine.Opportunity) {
	if scanID <= 0 {
		return
	}
	tx, err := d.sql.Begin()
	if err != nil {
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO opportunity_results
		(scan_id, type_id, type_name, buy_location_id, buy_system_id, buy_station,
		 sell_location_id, sell_system_id, sell_station,
		 buy_price, sell_price, units, profit_per_unit, total_profit, margin_percent,
		 avg_daily_vol, strategy)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return
	}
	defer stmt.Close()

	for _, o := range opps {
		stmt.Exec(scanID, o.TypeID, o.TypeName, o.BuyLocationID, o.BuySystemID, o.BuyStation,
			o.SellLocationID, o.SellSystemID, o.SellStation,
			o.BuyPrice, o.SellPrice, o.UnitsAvailable, o.ProfitPerUnit, o.TotalProfit,
			o.MarginPercent, o.AvgDailyVolume, o.Strategy.String())
	}
	tx.Commit()
}

// GetOpportunities returns the stored opportunities for a scan.
func (d *DB) GetOpportunities(scanID int64) []engine.Opportunity {
	rows, err := d.sql.Query(`SELECT type_id, type_name, buy_location_id, buy_system_id,
		buy_station, sell_location_id, sell_system_id, sell_station,
		buy_price, sell_price, units, profit_per_unit, total_profit,
		margin_percent, avg_daily_vol, strategy
		FROM opportunity_results WHERE scan_id=? ORDER BY total_profit DESC`, scanID)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var opps []engine.Opportunity
	for rows.Next() {
		var o engine.Opportunity
		var strategy string
		if err := rows.Scan(&o.TypeID, &o.TypeName, &o.BuyLocationID, &o.BuySystemID,
			&o.BuyStation, &o.SellLocationID, &o.SellSystemID, &o.SellStation,
			&o.BuyPrice, &o.SellPrice, &o.UnitsAvailable, &o.ProfitPerUnit,
			&o.TotalProfit, &o.MarginPercent, &o.AvgDailyVolume, &strategy); err != nil {
			continue
		}
		o.Strategy = engine.ParseSellStrategy(strategy)
		opps = append(opps, o)
	}
	return opps
}
