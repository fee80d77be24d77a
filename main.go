package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Gularscopter/EVE-Intel/internal/config"
	"github.com/Gularscopter/EVE-Intel/internal/db"
	"github.com/Gularscopter/EVE-Intel/internal/engine"
	"github.com/Gularscopter/EVE-Intel/internal/esi"
	"github.com/Gularscopter/EVE-Intel/internal/logger"
	"github.com/Gularscopter/EVE-Intel/internal/sde"
)

var version = "dev"

func main() {
	cfg := config.Default()
	flag.StringVar(&cfg.SystemName, "system", cfg.SystemName, "origin solar system")
	flag.Float64Var(&cfg.Budget, "budget", cfg.Budget, "ISK budget for the purchase plan")
	flag.Float64Var(&cfg.CargoCapacity, "cargo", cfg.CargoCapacity, "cargo capacity in m3")
	flag.IntVar(&cfg.BuyRadius, "radius", cfg.BuyRadius, "buy search radius in jumps")
	flag.Int64Var(&cfg.ReferenceLocationID, "reference", cfg.ReferenceLocationID, "sell-side hub station id (0 = Jita IV - Moon 4)")
	flag.Float64Var(&cfg.SalesTaxPercent, "tax", cfg.SalesTaxPercent, "sales tax percent")
	flag.Float64Var(&cfg.BrokerFeePercent, "broker", cfg.BrokerFeePercent, "broker fee percent (undercut strategy)")
	flag.BoolVar(&cfg.UndercutSell, "undercut", cfg.UndercutSell, "list undercut sell orders instead of selling to buy orders")
	flag.BoolVar(&cfg.MergeLocations, "merge", cfg.MergeLocations, "build one merged bundle across buy locations")
	flag.Float64Var(&cfg.MinProfit, "min-profit", cfg.MinProfit, "minimum total profit per opportunity")
	flag.Float64Var(&cfg.MinDailyVolume, "min-volume", cfg.MinDailyVolume, "minimum average daily traded volume")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite cache path (empty = working directory)")
	flag.Parse()

	logger.Banner(version)

	if err := cfg.Validate(); err != nil {
		logger.Error("Config", err.Error())
		os.Exit(1)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("DB", fmt.Sprintf("Failed to open database: %v", err))
		os.Exit(1)
	}
	defer database.Close()
	database.CleanupStaleVolumes(30 * 24 * time.Hour)

	client := esi.NewClient(database)
	client.SetHistoryStore(database)
	if !client.HealthCheck() {
		logger.Warn("ESI", "Market API unreachable, scan may fail")
	}

	wd, _ := os.Getwd()
	dataDir := filepath.Join(wd, "data")
	os.MkdirAll(dataDir, 0755)
	data, err := sde.Load(dataDir)
	if err != nil {
		logger.Error("SDE", fmt.Sprintf("Load failed: %v", err))
		os.Exit(1)
	}

	params := engine.ScanParams{
		SystemName:          cfg.SystemName,
		ReferenceLocationID: cfg.ReferenceLocationID,
		Budget:              cfg.Budget,
		CargoCapacity:       cfg.CargoCapacity,
		BuyRadius:           cfg.BuyRadius,
		SalesTaxPercent:     cfg.SalesTaxPercent,
		BrokerFeePercent:    cfg.BrokerFeePercent,
		BuyBrokerFeePercent: cfg.BuyBrokerFeePercent,
		MinProfit:           cfg.MinProfit,
		MinDailyVolume:      cfg.MinDailyVolume,
		MergeLocations:      cfg.MergeLocations,
	}
	if cfg.UndercutSell {
		params.Strategy = engine.UndercutSellOrders
	}

	scanner := engine.NewScanner(data, client)
	logger.Section(fmt.Sprintf("Scanning from %s (radius %d)", cfg.SystemName, cfg.BuyRadius))

	start := time.Now()
	result, err := scanner.Scan(params, func(p engine.Progress) {
		if p.Total > 0 && p.Current != p.Total && p.Current%25 != 0 {
			return
		}
		logger.Info("Scan", p.Message)
	})
	if err != nil {
		logger.Error("Scan", err.Error())
		os.Exit(1)
	}

	report(data, result)
	persist(database, cfg, params, result, time.Since(start))
}

func report(data *sde.Data, result *engine.ScanResult) {
	logger.Section("Opportunities")
	if len(result.Opportunities) == 0 {
		logger.Info("Scan", "No profitable opportunities found")
		return
	}
	for i, o := range result.Opportunities {
		if i >= 20 {
			logger.Info("Scan", fmt.Sprintf("... and %d more", len(result.Opportunities)-20))
			break
		}
		logger.Info("Scan", fmt.Sprintf("%-30s buy %s @ %s ISK, sell @ %s ISK, %s profit (%s/unit, %.1f%%)",
			o.TypeName, o.BuyStation,
			humanize.CommafWithDigits(o.BuyPrice, 2),
			humanize.CommafWithDigits(o.SellPrice, 2),
			humanize.CommafWithDigits(o.TotalProfit, 0),
			humanize.CommafWithDigits(o.ProfitPerUnit, 2),
			o.MarginPercent))
	}

	logger.Section("Purchase Plan")
	for _, b := range result.Bundles {
		logger.Success("Plan", fmt.Sprintf("[%s] %d items, cost %s ISK, profit %s ISK, cargo %.1f%%",
			b.SourceLabel, len(b.Items),
			humanize.CommafWithDigits(b.TotalCost, 0),
			humanize.CommafWithDigits(b.TotalProfit, 0),
			b.CargoPercent))
		for _, item := range b.Items {
			logger.Info("Plan", fmt.Sprintf("  %dx %s from %s",
				item.Units, item.Opportunity.TypeName, item.Opportunity.BuyStation))
		}
	}

	if result.Route != nil {
		names := make([]string, len(result.Route.Systems))
		for i, sys := range result.Route.Systems {
			if s, ok := data.Systems[sys]; ok {
				names[i] = s.Name
			} else {
				names[i] = fmt.Sprintf("System %d", sys)
			}
		}
		logger.Section("Route")
		logger.Success("Route", fmt.Sprintf("%s (%d jumps)", strings.Join(names, " -> "), result.Route.TotalJumps))
	}
}

func persist(database *db.DB, cfg *config.Config, params engine.ScanParams, result *engine.ScanResult, elapsed time.Duration) {
	var totalProfit float64
	for _, b := range result.Bundles {
		totalProfit += b.TotalProfit
	}
	paramsJSON, _ := json.Marshal(cfg)
	scanID := database.InsertScan(params.SystemName, string(paramsJSON), len(result.Opportunities), totalProfit, elapsed)
	database.InsertOpportunities(scanID, result.Opportunities)

	logger.Section("Summary")
	logger.Stats("Opportunities", len(result.Opportunities))
	logger.Stats("Bundles", len(result.Bundles))
	logger.Stats("Projected profit", humanize.CommafWithDigits(totalProfit, 0)+" ISK")
	logger.Stats("Duration", elapsed.Round(time.Millisecond).String())
}
