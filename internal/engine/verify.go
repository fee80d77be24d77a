package engine

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/Gularscopter/EVE-Intel/internal/esi"
	"github.com/Gularscopter/EVE-Intel/internal/logger"
)

// verifyWorkers bounds concurrent per-candidate order book fetches.
const verifyWorkers = 8

// verifyCandidates runs stage 2 of the funnel: for each candidate, check the
// authoritative order books for a profitable buy-within-radius, sell-at-
// reference pair. A single candidate's failure is logged and skipped, never
// fatal to the batch.
func (s *Scanner) verifyCandidates(
	params ScanParams,
	buySystems map[int32]int,
	refSystemID int32,
	candidates []Candidate,
	progress func(Progress),
) ([]Opportunity, error) {
	buyRegions := s.SDE.Universe.RegionsInSet(buySystems)
	refRegionID := s.SDE.Universe.SystemRegion[refSystemID]

	var mu sync.Mutex
	var opps []Opportunity
	var done int32
	var wg sync.WaitGroup
	sem := make(chan struct{}, verifyWorkers)

	for _, cand := range candidates {
		if s.cancelled() {
			wg.Wait()
			return nil, ErrScanCancelled
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(c Candidate) {
			defer wg.Done()
			defer func() { <-sem }()

			opp, err := s.verifyOne(params, c, buySystems, buyRegions, refSystemID, refRegionID)
			if err != nil {
				logger.Warn("Scan", fmt.Sprintf("Verify type %d failed: %v", c.TypeID, err))
			} else if opp != nil {
				mu.Lock()
				opps = append(opps, *opp)
				mu.Unlock()
			}

			n := atomic.AddInt32(&done, 1)
			ev := Progress{
				State:   StateVerifying,
				Message: fmt.Sprintf("Verified %d/%d candidates", n, len(candidates)),
				Current: int(n),
				Total:   len(candidates),
			}
			if err == nil && opp != nil {
				ev.Opportunity = opp
			}
			progress(ev)
		}(cand)
	}
	wg.Wait()

	if s.cancelled() {
		return nil, ErrScanCancelled
	}
	return opps, nil
}

// verifyOne checks one candidate against real order books. Returns nil, nil
// when the candidate is simply not profitable enough, an error only for
// fetch failures.
func (s *Scanner) verifyOne(
	params ScanParams,
	c Candidate,
	buySystems map[int32]int,
	buyRegions map[int32]bool,
	refSystemID int32,
	refRegionID int32,
) (*Opportunity, error) {
	unitVolume := s.SDE.UnitVolume(c.TypeID)
	if unitVolume <= 0 {
		return nil, nil
	}

	// Liquidity gate first: an illiquid item is not worth two order fetches.
	avgVolume, err := s.Market.AvgDailyVolume(refRegionID, c.TypeID)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	if avgVolume < params.MinDailyVolume {
		return nil, nil
	}

	buy, ok, err := s.bestBuyLeg(c.TypeID, buySystems, buyRegions)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	grossSell, sellUnits, err := s.sellLeg(params, c.TypeID, refRegionID, avgVolume)
	if err != nil {
		return nil, err
	}
	if grossSell <= 0 || sellUnits <= 0 {
		return nil, nil
	}

	fees := feesFor(params.Strategy, params.SalesTaxPercent, params.BrokerFeePercent, params.BuyBrokerFeePercent)
	profitPerUnit := fees.netProfitPerUnit(buy.Price, grossSell)
	if profitPerUnit <= 0 {
		return nil, nil
	}

	units := buy.VolumeRemain
	if sellUnits < units {
		units = sellUnits
	}
	if units <= 0 {
		return nil, nil
	}

	totalProfit := profitPerUnit * float64(units)
	if totalProfit < params.MinProfit {
		return nil, nil
	}

	effectiveCost := buy.Price * fees.buyCostMult
	return &Opportunity{
		TypeID:         c.TypeID,
		TypeName:       s.SDE.TypeName(c.TypeID),
		UnitVolume:     unitVolume,
		BuyLocationID:  buy.LocationID,
		BuySystemID:    buy.SystemID,
		BuyPrice:       buy.Price,
		SellLocationID: params.ReferenceLocationID,
		SellSystemID:   refSystemID,
		SellPrice:      grossSell,
		BuyVolume:      buy.VolumeRemain,
		SellVolume:     sellUnits,
		UnitsAvailable: units,
		ProfitPerUnit:  profitPerUnit,
		TotalProfit:    totalProfit,
		MarginPercent:  profitPerUnit / effectiveCost * 100,
		AvgDailyVolume: avgVolume,
		Strategy:       params.Strategy,
	}, nil
}

// bestBuyLeg finds the cheapest standing sell order for a type at any NPC
// station within the buy radius.
func (s *Scanner) bestBuyLeg(typeID int32, buySystems map[int32]int, buyRegions map[int32]bool) (esi.MarketOrder, bool, error) {
	var best esi.MarketOrder
	found := false
	for regionID := range buyRegions {
		orders, err := s.Market.TypeOrders(regionID, typeID, "sell")
		if err != nil {
			return best, false, fmt.Errorf("sell orders region %d: %w", regionID, err)
		}
		for _, o := range orders {
			if o.IsBuyOrder {
				continue
			}
			if _, ok := buySystems[o.SystemID]; !ok {
				continue
			}
			// Player structures need auth to resolve; NPC stations only.
			if _, ok := s.SDE.StationSystem(o.LocationID); !ok {
				continue
			}
			if !found || o.Price < best.Price {
				best = o
				found = true
			}
		}
	}
	return best, found, nil
}

// sellLeg computes the gross realizable sell price and absorbable units at
// the reference location for the configured strategy.
func (s *Scanner) sellLeg(params ScanParams, typeID int32, refRegionID int32, avgVolume float64) (float64, int32, error) {
	switch params.Strategy {
	case UndercutSellOrders:
		orders, err := s.Market.TypeOrders(refRegionID, typeID, "sell")
		if err != nil {
			return 0, 0, fmt.Errorf("reference sell orders: %w", err)
		}
		lowest := 0.0
		for _, o := range orders {
			if o.IsBuyOrder || o.LocationID != params.ReferenceLocationID {
				continue
			}
			if lowest == 0 || o.Price < lowest {
				lowest = o.Price
			}
		}
		if lowest <= PriceIncrement {
			return 0, 0, nil
		}
		// A listed order fills over time; one day of average volume is the
		// realistic bound on absorbable units.
		units := int32(math.Min(avgVolume, math.MaxInt32))
		return lowest - PriceIncrement, units, nil

	default:
		orders, err := s.Market.TypeOrders(refRegionID, typeID, "buy")
		if err != nil {
			return 0, 0, fmt.Errorf("reference buy orders: %w", err)
		}
		bestPrice := 0.0
		var bestUnits int32
		for _, o := range orders {
			if !o.IsBuyOrder || o.LocationID != params.ReferenceLocationID {
				continue
			}
			if o.Price > bestPrice {
				bestPrice = o.Price
				bestUnits = o.VolumeRemain
			}
		}
		return bestPrice, bestUnits, nil
	}
}
