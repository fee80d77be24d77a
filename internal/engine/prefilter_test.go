package engine

import (
	"testing"

	"github.com/Gularscopter/EVE-Intel/internal/esi"
)

func TestPassesPrefilter(t *testing.T) {
	th := DefaultPrefilterThresholds()
	good := esi.Aggregates{
		BestBuy: 100, BestSell: 120,
		BuyVolume: 2_000_000, SellVolume: 1_000_000,
		BuyOrders: 10, SellOrders: 10,
	}

	cases := []struct {
		name   string
		mutate func(*esi.Aggregates)
		want   bool
	}{
		{"liquid item passes", func(a *esi.Aggregates) {}, true},
		{"no buy price", func(a *esi.Aggregates) { a.BestBuy = 0 }, false},
		{"no sell price", func(a *esi.Aggregates) { a.BestSell = 0 }, false},
		{"thin liquidity", func(a *esi.Aggregates) { a.BuyVolume = 100 }, false},
		{"wide spread", func(a *esi.Aggregates) { a.BestSell = 500 }, false},
		{"spread at the bound", func(a *esi.Aggregates) { a.BestBuy = 60; a.BestSell = 100 }, false},
		{"inverted spread", func(a *esi.Aggregates) { a.BestBuy = 130 }, false},
		{"few buy orders", func(a *esi.Aggregates) { a.BuyOrders = 2 }, false},
		{"few sell orders", func(a *esi.Aggregates) { a.SellOrders = 4 }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := good
			tc.mutate(&a)
			if got := passesPrefilter(a, th); got != tc.want {
				t.Errorf("passesPrefilter = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPassesPrefilter_InvertedSpreadRejected(t *testing.T) {
	// BestBuy above BestSell makes the spread negative; that is stale or
	// anomalous data, not a bargain.
	a := esi.Aggregates{
		BestBuy: 150, BestSell: 100,
		BuyVolume: 10_000_000, BuyOrders: 20, SellOrders: 20,
	}
	if passesPrefilter(a, DefaultPrefilterThresholds()) {
		t.Error("inverted spread should not pass")
	}
}

func TestChunkTypeIDs(t *testing.T) {
	ids := make([]int32, 450)
	for i := range ids {
		ids[i] = int32(i)
	}
	chunks := chunkTypeIDs(ids, 200)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	if len(chunks[0]) != 200 || len(chunks[1]) != 200 || len(chunks[2]) != 50 {
		t.Errorf("chunk sizes = %d/%d/%d, want 200/200/50", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
	if got := chunkTypeIDs(nil, 200); len(got) != 0 {
		t.Errorf("chunkTypeIDs(nil) = %v, want empty", got)
	}
}
