package engine

import (
	"math"
	"sort"
)

// BuildBundle greedily packs opportunities into a purchase plan under a cargo
// cap and a budget cap. Candidates are ranked by profit density (net profit
// per unit divided by unit volume); ties keep their original order. The
// greedy ranking is the standard relaxed-knapsack heuristic: not guaranteed
// optimal for the two-constraint integer case, but deterministic and fast,
// which is what an advisory scan needs.
func BuildBundle(opportunities []Opportunity, cargoCapacity, budget float64) Bundle {
	b := Bundle{}
	if cargoCapacity <= 0 || budget <= 0 {
		return b
	}

	eligible := make([]Opportunity, 0, len(opportunities))
	for _, o := range opportunities {
		if o.UnitVolume <= 0 || o.BuyPrice <= 0 || o.ProfitPerUnit <= 0 {
			continue
		}
		eligible = append(eligible, o)
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].ProfitPerUnit/eligible[i].UnitVolume >
			eligible[j].ProfitPerUnit/eligible[j].UnitVolume
	})

	remainingCargo := cargoCapacity
	remainingBudget := budget
	for _, o := range eligible {
		if remainingCargo <= 0 || remainingBudget <= 0 {
			break
		}

		units := int64(math.Floor(remainingBudget / o.BuyPrice))
		if byCargo := int64(math.Floor(remainingCargo / o.UnitVolume)); byCargo < units {
			units = byCargo
		}
		if int64(o.UnitsAvailable) < units {
			units = int64(o.UnitsAvailable)
		}
		if units <= 0 {
			continue
		}

		cost := float64(units) * o.BuyPrice
		volume := float64(units) * o.UnitVolume
		profit := float64(units) * o.ProfitPerUnit

		b.Items = append(b.Items, BundleItem{
			Opportunity: o,
			Units:       int32(units),
			Cost:        cost,
			Profit:      profit,
			Volume:      volume,
		})
		b.TotalCost += cost
		b.TotalProfit += profit
		b.TotalVolume += volume
		remainingCargo -= volume
		remainingBudget -= cost
	}

	b.CargoPercent = (1 - remainingCargo/cargoCapacity) * 100
	return b
}
