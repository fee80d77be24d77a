package config

import "fmt"

// Config holds application settings (in-memory representation). Values are
// populated from CLI flags; persistence of caches lives in internal/db.
type Config struct {
	SystemName    string  `json:"system_name"`
	Budget        float64 `json:"budget"`
	CargoCapacity float64 `json:"cargo_capacity"`
	BuyRadius     int     `json:"buy_radius"`

	// ReferenceLocationID is the sell-side hub station. 0 picks the engine
	// default (Jita IV - Moon 4).
	ReferenceLocationID int64 `json:"reference_location_id"`

	SalesTaxPercent     float64 `json:"sales_tax_percent"`
	BrokerFeePercent    float64 `json:"broker_fee_percent"`
	BuyBrokerFeePercent float64 `json:"buy_broker_fee_percent"`
	UndercutSell        bool    `json:"undercut_sell"`
	MergeLocations      bool    `json:"merge_locations"`

	MinProfit      float64 `json:"min_profit"`
	MinDailyVolume float64 `json:"min_daily_volume"`

	DBPath  string `json:"db_path"`
	SDEPath string `json:"sde_path"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		SystemName:          "Jita",
		Budget:              100_000_000,
		CargoCapacity:       5000,
		BuyRadius:           5,
		SalesTaxPercent:     8,
		BrokerFeePercent:    3,
		BuyBrokerFeePercent: 0,
		MinProfit:           100_000,
		MinDailyVolume:      100,
		SDEPath:             "sde.zip",
	}
}

// Validate rejects settings the scan cannot run with.
func (c *Config) Validate() error {
	if c.SystemName == "" {
		return fmt.Errorf("system name is required")
	}
	if c.Budget <= 0 {
		return fmt.Errorf("budget must be positive, got %v", c.Budget)
	}
	if c.CargoCapacity <= 0 {
		return fmt.Errorf("cargo capacity must be positive, got %v", c.CargoCapacity)
	}
	if c.BuyRadius < 0 {
		return fmt.Errorf("buy radius must be non-negative, got %d", c.BuyRadius)
	}
	if c.ReferenceLocationID < 0 {
		return fmt.Errorf("reference location id must be non-negative, got %d", c.ReferenceLocationID)
	}
	if c.SalesTaxPercent < 0 || c.SalesTaxPercent > 100 {
		return fmt.Errorf("sales tax must be between 0 and 100, got %v", c.SalesTaxPercent)
	}
	if c.BrokerFeePercent < 0 || c.BrokerFeePercent > 100 {
		return fmt.Errorf("broker fee must be between 0 and 100, got %v", c.BrokerFeePercent)
	}
	if c.BuyBrokerFeePercent < 0 || c.BuyBrokerFeePercent > 100 {
		return fmt.Errorf("buy broker fee must be between 0 and 100, got %v", c.BuyBrokerFeePercent)
	}
	return nil
}
