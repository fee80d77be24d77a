package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Gularscopter/EVE-Intel/internal/esi"
	"github.com/Gularscopter/EVE-Intel/internal/logger"
	"golang.org/x/sync/errgroup"
)

const (
	// prefilterChunkSize is how many type IDs go into one aggregate request.
	prefilterChunkSize = 200
	// prefilterWorkers bounds concurrent aggregate requests.
	prefilterWorkers = 4
)

// PrefilterThresholds are the stage-1 funnel settings. The defaults shrink
// the full item universe to a few hundred liquid, sanely-priced candidates
// before any expensive per-item verification happens.
type PrefilterThresholds struct {
	MinLiquidityISK  float64 // best buy price times standing buy volume
	MaxSpreadPercent float64 // (bestSell - bestBuy) / bestSell
	MinOrderCount    int     // per side
}

// DefaultPrefilterThresholds returns the standard funnel settings.
func DefaultPrefilterThresholds() PrefilterThresholds {
	return PrefilterThresholds{
		MinLiquidityISK:  100_000_000,
		MaxSpreadPercent: 40,
		MinOrderCount:    5,
	}
}

// Candidate is a type that survived the aggregate prefilter, carrying its
// aggregates for ranking.
type Candidate struct {
	TypeID int32
	Agg    esi.Aggregates
}

// passesPrefilter applies the stage-1 thresholds to one item's aggregates.
func passesPrefilter(a esi.Aggregates, th PrefilterThresholds) bool {
	if a.BestBuy <= 0 || a.BestSell <= 0 {
		return false
	}
	if a.BestBuy*a.BuyVolume < th.MinLiquidityISK {
		return false
	}
	spread := (a.BestSell - a.BestBuy) / a.BestSell * 100
	if spread < 0 || spread >= th.MaxSpreadPercent {
		return false
	}
	if a.BuyOrders < th.MinOrderCount || a.SellOrders < th.MinOrderCount {
		return false
	}
	return true
}

// prefilter batch-fetches aggregates for the full item universe at the
// reference location and keeps only liquid candidates, ranked by buy-side
// liquidity. A failed chunk is logged and skipped; only cancellation aborts
// the stage.
func (s *Scanner) prefilter(referenceLocationID int64, typeIDs []int32, th PrefilterThresholds, progress func(Progress)) ([]Candidate, error) {
	chunks := chunkTypeIDs(typeIDs, prefilterChunkSize)

	var mu sync.Mutex
	var candidates []Candidate
	done := 0

	var g errgroup.Group
	g.SetLimit(prefilterWorkers)
	for _, chunk := range chunks {
		if s.cancelled() {
			break
		}
		chunk := chunk
		g.Go(func() error {
			if s.cancelled() {
				return ErrScanCancelled
			}
			aggs, err := s.Market.FetchAggregatePrices(referenceLocationID, chunk)
			if err != nil {
				logger.Warn("Scan", fmt.Sprintf("Aggregate chunk failed: %v", err))
				aggs = nil
			}

			mu.Lock()
			for typeID, a := range aggs {
				if passesPrefilter(a, th) {
					candidates = append(candidates, Candidate{TypeID: typeID, Agg: a})
				}
			}
			done++
			current, kept := done, len(candidates)
			mu.Unlock()

			progress(Progress{
				State:   StatePrefiltering,
				Message: fmt.Sprintf("Prefiltered %d/%d chunks, %d candidates", current, len(chunks), kept),
				Current: current,
				Total:   len(chunks),
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if s.cancelled() {
		return nil, ErrScanCancelled
	}

	// Most liquid first so a candidate cap keeps the best prospects.
	sort.Slice(candidates, func(i, j int) bool {
		li := candidates[i].Agg.BestBuy * candidates[i].Agg.BuyVolume
		lj := candidates[j].Agg.BestBuy * candidates[j].Agg.BuyVolume
		if li == lj {
			return candidates[i].TypeID < candidates[j].TypeID
		}
		return li > lj
	})
	return candidates, nil
}

func chunkTypeIDs(ids []int32, size int) [][]int32 {
	var chunks [][]int32
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}
