package engine

import (
	"fmt"
	"strings"
)

// SellStrategy selects how the sell leg of an opportunity is priced. The two
// modes carry different fee models, so the choice is explicit per scan rather
// than inferred.
type SellStrategy int

const (
	// SellToBuyOrders sells instantly into the best standing buy order.
	// Only sales tax applies on the sell leg.
	SellToBuyOrders SellStrategy = iota
	// UndercutSellOrders lists one increment below the best competing sell
	// order. Broker fee and sales tax both apply on the sell leg.
	UndercutSellOrders
)

// PriceIncrement is the smallest price step used when undercutting.
const PriceIncrement = 0.01

func (s SellStrategy) String() string {
	switch s {
	case SellToBuyOrders:
		return "sell_to_buy_orders"
	case UndercutSellOrders:
		return "undercut_sell_orders"
	}
	return fmt.Sprintf("SellStrategy(%d)", int(s))
}

// ParseSellStrategy maps a stored strategy name back to its value. Unknown
// names fall back to SellToBuyOrders.
func ParseSellStrategy(s string) SellStrategy {
	if strings.EqualFold(strings.TrimSpace(s), UndercutSellOrders.String()) {
		return UndercutSellOrders
	}
	return SellToBuyOrders
}

// Opportunity is one verified profitable buy-here/sell-there instance for an
// item. Records are immutable once emitted; net profit per unit is always
// positive for anything that survives verification.
type Opportunity struct {
	TypeID     int32
	TypeName   string
	UnitVolume float64 // m³ per unit

	BuyLocationID int64
	BuySystemID   int32
	BuyStation    string
	BuyPrice      float64

	SellLocationID int64
	SellSystemID   int32
	SellStation    string
	SellPrice      float64 // gross realizable price before fees

	BuyVolume      int32 // units offered on the buy leg
	SellVolume     int32 // units absorbable on the sell leg
	UnitsAvailable int32 // min of the two sides

	ProfitPerUnit  float64 // net of fees and tax
	TotalProfit    float64
	MarginPercent  float64
	AvgDailyVolume float64
	Strategy       SellStrategy
}

// BundleItem is one allocation within a purchase plan.
type BundleItem struct {
	Opportunity Opportunity
	Units       int32
	Cost        float64
	Profit      float64
	Volume      float64 // m³ consumed
}

// Bundle is a purchase plan respecting a cargo cap and a budget cap. Built
// once, read-only afterward.
type Bundle struct {
	SourceLabel  string // buy location name, or "merged" for multi-location plans
	Items        []BundleItem
	TotalCost    float64
	TotalProfit  float64
	TotalVolume  float64
	CargoPercent float64 // share of cargo capacity consumed
}

// Route is an ordered visiting plan over network systems.
type Route struct {
	Systems    []int32 // visit order, starting at the origin
	TotalJumps int
}

// ScanParams holds the validated inputs for one opportunity scan.
type ScanParams struct {
	SystemName          string
	ReferenceLocationID int64 // station whose aggregates drive the prefilter
	Budget              float64
	CargoCapacity       float64
	BuyRadius           int

	Strategy            SellStrategy
	SalesTaxPercent     float64
	BrokerFeePercent    float64
	BuyBrokerFeePercent float64 // usually 0: buying from sell orders costs no broker fee

	MinProfit      float64 // minimum total profit per opportunity
	MinDailyVolume float64 // minimum recent average daily traded volume
	MergeLocations bool    // one merged bundle instead of per-station bundles
	MaxCandidates  int     // 0 = DefaultMaxCandidates
}

// DefaultMaxCandidates bounds how many prefilter survivors are verified.
const DefaultMaxCandidates = 150

// Validate fails fast on settings the scan cannot run with, before any
// network calls are issued.
func (p *ScanParams) Validate() error {
	if strings.TrimSpace(p.SystemName) == "" {
		return fmt.Errorf("system name is required")
	}
	if p.Budget <= 0 {
		return fmt.Errorf("budget must be positive, got %v", p.Budget)
	}
	if p.CargoCapacity <= 0 {
		return fmt.Errorf("cargo capacity must be positive, got %v", p.CargoCapacity)
	}
	if p.BuyRadius < 0 {
		return fmt.Errorf("buy radius must be non-negative, got %d", p.BuyRadius)
	}
	if p.Strategy != SellToBuyOrders && p.Strategy != UndercutSellOrders {
		return fmt.Errorf("unknown sell strategy %d", p.Strategy)
	}
	if p.SalesTaxPercent < 0 || p.BrokerFeePercent < 0 || p.BuyBrokerFeePercent < 0 {
		return fmt.Errorf("fee percentages must be non-negative")
	}
	return nil
}

// ScanState is the orchestrator's lifecycle phase.
type ScanState int

const (
	StateIdle ScanState = iota
	StatePrefiltering
	StateVerifying
	StateBuilding
	StateDone
	StateCancelled
	StateFailed
)

func (s ScanState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePrefiltering:
		return "prefiltering"
	case StateVerifying:
		return "verifying"
	case StateBuilding:
		return "building"
	case StateDone:
		return "done"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("ScanState(%d)", int(s))
}

// Progress is one incremental status event delivered to the scan's caller.
// During verification, each surviving result rides along on its event, so a
// consumer can render partial results long before the scan completes.
type Progress struct {
	State   ScanState
	Message string
	Current int // items handled within the stage, 0 when not applicable
	Total   int

	// Opportunity is set on the verification event that produced it.
	// Location names are resolved later; the final result carries them.
	Opportunity *Opportunity
}

// ScanResult is the terminal output of a completed scan.
type ScanResult struct {
	Opportunities []Opportunity
	Bundles       []Bundle
	Route         *Route // nil when no multi-location route was planned
}
