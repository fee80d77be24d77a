package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/Gularscopter/EVE-Intel/internal/esi"
	"github.com/Gularscopter/EVE-Intel/internal/graph"
	"github.com/Gularscopter/EVE-Intel/internal/logger"
	"github.com/Gularscopter/EVE-Intel/internal/sde"
)

// DefaultReferenceLocationID is Jita IV - Moon 4, the de facto central
// market, used as the prefilter and sell-side reference when none is given.
const DefaultReferenceLocationID = 60003760

// ErrScanCancelled is returned when the cooperative cancellation flag is
// observed at a stage boundary.
var ErrScanCancelled = errors.New("scan cancelled")

// MarketSource is the market data surface a scan consumes. *esi.Client
// implements it; tests substitute a fake.
type MarketSource interface {
	FetchAggregatePrices(stationID int64, typeIDs []int32) (map[int32]esi.Aggregates, error)
	TypeOrders(regionID, typeID int32, side string) ([]esi.MarketOrder, error)
	AvgDailyVolume(regionID, typeID int32) (float64, error)
	LocationName(locationID int64) string
	PrefetchLocationNames(locationIDs map[int64]bool)
}

// Scanner orchestrates opportunity scans over static data and a market
// source. One Scanner runs one scan at a time; the cancellation flag is safe
// to set from another goroutine.
type Scanner struct {
	SDE    *sde.Data
	Market MarketSource
	Dist   *graph.DistanceCache

	Thresholds PrefilterThresholds

	cancel atomic.Bool
	state  atomic.Int32
}

// NewScanner creates a Scanner with its own distance cache over the loaded
// universe.
func NewScanner(data *sde.Data, market MarketSource) *Scanner {
	return &Scanner{
		SDE:        data,
		Market:     market,
		Dist:       graph.NewDistanceCache(data.Universe),
		Thresholds: DefaultPrefilterThresholds(),
	}
}

// Cancel requests cooperative cancellation. The scan stops at the next stage
// boundary or batch loop; in-flight network calls are never interrupted.
func (s *Scanner) Cancel() {
	s.cancel.Store(true)
}

func (s *Scanner) cancelled() bool {
	return s.cancel.Load()
}

// State reports the current scan lifecycle phase.
func (s *Scanner) State() ScanState {
	return ScanState(s.state.Load())
}

func (s *Scanner) enterState(st ScanState, progress func(Progress), msg string) {
	s.state.Store(int32(st))
	progress(Progress{State: st, Message: msg})
}

// Scan runs the full funnel: prefilter, verify, bundle, optional route.
// Progress events are delivered via the callback throughout, including each
// verified Opportunity as it is found; the returned result is terminal.
// Callback invocations are serialized, so the callback itself needs no
// locking, but it must return promptly because workers block on it.
func (s *Scanner) Scan(params ScanParams, progress func(Progress)) (*ScanResult, error) {
	if progress == nil {
		progress = func(Progress) {}
	}
	cb := progress
	var cbMu sync.Mutex
	progress = func(p Progress) {
		cbMu.Lock()
		cb(p)
		cbMu.Unlock()
	}
	s.cancel.Store(false)
	s.state.Store(int32(StateIdle))

	fail := func(err error) (*ScanResult, error) {
		s.enterState(StateFailed, progress, err.Error())
		return nil, err
	}

	// Setup failures happen before any network call.
	if err := params.Validate(); err != nil {
		return fail(fmt.Errorf("invalid scan parameters: %w", err))
	}
	if params.ReferenceLocationID == 0 {
		params.ReferenceLocationID = DefaultReferenceLocationID
	}
	if params.MaxCandidates <= 0 {
		params.MaxCandidates = DefaultMaxCandidates
	}
	originID, ok := s.SDE.SystemID(params.SystemName)
	if !ok {
		return fail(fmt.Errorf("system not found: %s", params.SystemName))
	}
	refSystemID, ok := s.SDE.StationSystem(params.ReferenceLocationID)
	if !ok {
		return fail(fmt.Errorf("reference location %d is not a known station", params.ReferenceLocationID))
	}
	buySystems := s.SDE.Universe.SystemsWithinRadius(originID, params.BuyRadius)
	if len(buySystems) == 0 {
		return fail(fmt.Errorf("no reachable systems from %s", params.SystemName))
	}

	s.enterState(StatePrefiltering, progress, "Prefiltering item universe...")
	candidates, err := s.prefilter(params.ReferenceLocationID, s.typeUniverse(), s.Thresholds, progress)
	if err != nil {
		return s.abort(err, progress)
	}
	if len(candidates) > params.MaxCandidates {
		candidates = candidates[:params.MaxCandidates]
	}
	logger.Info("Scan", fmt.Sprintf("%d candidates after prefilter", len(candidates)))
	if s.cancelled() {
		return s.abort(ErrScanCancelled, progress)
	}

	s.enterState(StateVerifying, progress, fmt.Sprintf("Verifying %d candidates...", len(candidates)))
	opps, err := s.verifyCandidates(params, buySystems, refSystemID, candidates, progress)
	if err != nil {
		return s.abort(err, progress)
	}
	sort.Slice(opps, func(i, j int) bool {
		if opps[i].TotalProfit == opps[j].TotalProfit {
			return opps[i].TypeID < opps[j].TypeID
		}
		return opps[i].TotalProfit > opps[j].TotalProfit
	})
	s.fillLocationNames(opps)
	logger.Info("Scan", fmt.Sprintf("%d opportunities verified", len(opps)))
	if s.cancelled() {
		return s.abort(ErrScanCancelled, progress)
	}

	s.enterState(StateBuilding, progress, "Building purchase plan...")
	result := &ScanResult{Opportunities: opps}
	result.Bundles = s.buildBundles(params, opps)
	result.Route = s.planBundleRoute(params, originID, refSystemID, result.Bundles)

	s.enterState(StateDone, progress, fmt.Sprintf("Scan complete: %d opportunities, %d bundles", len(opps), len(result.Bundles)))
	return result, nil
}

// abort maps an error to the Cancelled or Failed terminal state.
func (s *Scanner) abort(err error, progress func(Progress)) (*ScanResult, error) {
	if errors.Is(err, ErrScanCancelled) {
		s.enterState(StateCancelled, progress, "Scan cancelled")
	} else {
		s.enterState(StateFailed, progress, err.Error())
	}
	return nil, err
}

// typeUniverse returns all known market type IDs in deterministic order.
func (s *Scanner) typeUniverse() []int32 {
	ids := make([]int32, 0, len(s.SDE.Types))
	for id := range s.SDE.Types {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Scanner) fillLocationNames(opps []Opportunity) {
	if len(opps) == 0 {
		return
	}
	wanted := make(map[int64]bool)
	for i := range opps {
		wanted[opps[i].BuyLocationID] = true
		wanted[opps[i].SellLocationID] = true
	}
	s.Market.PrefetchLocationNames(wanted)
	for i := range opps {
		opps[i].BuyStation = s.Market.LocationName(opps[i].BuyLocationID)
		opps[i].SellStation = s.Market.LocationName(opps[i].SellLocationID)
	}
}

// buildBundles groups opportunities and packs each group under the scan's
// cargo and budget caps. With MergeLocations one plan spans every buy
// location; otherwise each buy station gets its own plan.
func (s *Scanner) buildBundles(params ScanParams, opps []Opportunity) []Bundle {
	if len(opps) == 0 {
		return nil
	}

	if params.MergeLocations {
		b := BuildBundle(opps, params.CargoCapacity, params.Budget)
		if len(b.Items) == 0 {
			return nil
		}
		b.SourceLabel = "merged"
		return []Bundle{b}
	}

	byLocation := make(map[int64][]Opportunity)
	var order []int64
	for _, o := range opps {
		if _, ok := byLocation[o.BuyLocationID]; !ok {
			order = append(order, o.BuyLocationID)
		}
		byLocation[o.BuyLocationID] = append(byLocation[o.BuyLocationID], o)
	}

	var bundles []Bundle
	for _, locID := range order {
		group := byLocation[locID]
		b := BuildBundle(group, params.CargoCapacity, params.Budget)
		if len(b.Items) == 0 {
			continue
		}
		b.SourceLabel = group[0].BuyStation
		bundles = append(bundles, b)
	}
	sort.SliceStable(bundles, func(i, j int) bool {
		return bundles[i].TotalProfit > bundles[j].TotalProfit
	})
	return bundles
}

// planBundleRoute orders the buy systems of a merged plan plus the sell
// system into a hop-minimal visiting order. Per-station plans need no route;
// an infeasible or oversized waypoint set degrades to no route, never an
// error.
func (s *Scanner) planBundleRoute(params ScanParams, originID, refSystemID int32, bundles []Bundle) *Route {
	if !params.MergeLocations || len(bundles) == 0 {
		return nil
	}

	seen := make(map[int32]bool)
	var waypoints []int32
	for _, item := range bundles[0].Items {
		if sys := item.Opportunity.BuySystemID; !seen[sys] {
			seen[sys] = true
			waypoints = append(waypoints, sys)
		}
	}
	if !seen[refSystemID] {
		waypoints = append(waypoints, refSystemID)
	}

	route, err := FindVisitOrder(s.Dist, originID, waypoints)
	if err != nil {
		logger.Warn("Scan", fmt.Sprintf("Route planning skipped: %v", err))
		return nil
	}
	return &route
}
