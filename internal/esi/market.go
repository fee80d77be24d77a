package esi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MarketOrder mirrors the ESI market order response.
type MarketOrder struct {
	OrderID      int64   `json:"order_id"`
	TypeID       int32   `json:"type_id"`
	LocationID   int64   `json:"location_id"`
	SystemID     int32   `json:"system_id"`
	Price        float64 `json:"price"`
	VolumeRemain int32   `json:"volume_remain"`
	MinVolume    int32   `json:"min_volume"`
	IsBuyOrder   bool    `json:"is_buy_order"`
	RegionID     int32   `json:"-"` // set by us
}

// FetchTypeOrders fetches all pages of market orders for one type in a
// region. side is "sell", "buy" or "all".
func (c *Client) FetchTypeOrders(regionID, typeID int32, side string) ([]MarketOrder, error) {
	url := fmt.Sprintf("%s/markets/%d/orders/?datasource=tranquility&order_type=%s&type_id=%d",
		c.baseURL, regionID, side, typeID)

	var page1 []MarketOrder
	totalPages, err := c.getPage(url, 1, &page1)
	if err != nil {
		return nil, err
	}
	for i := range page1 {
		page1[i].RegionID = regionID
	}
	if totalPages <= 1 {
		return page1, nil
	}

	type pageResult struct {
		data []MarketOrder
		err  error
	}
	results := make(chan pageResult, totalPages-1)
	for p := 2; p <= totalPages; p++ {
		go func(pageNum int) {
			var data []MarketOrder
			_, err := c.getPage(url, pageNum, &data)
			for i := range data {
				data[i].RegionID = regionID
			}
			results <- pageResult{data: data, err: err}
		}(p)
	}

	all := make([]MarketOrder, 0, len(page1)*totalPages)
	all = append(all, page1...)
	for i := 0; i < totalPages-1; i++ {
		r := <-results
		if r.err != nil {
			// A lost page degrades the snapshot but does not abort the fetch.
			continue
		}
		all = append(all, r.data...)
	}
	return all, nil
}

// Aggregates summarizes one item's market state at a station: best prices,
// standing volume and order counts on each side.
type Aggregates struct {
	BestBuy    float64 // highest standing buy order
	BestSell   float64 // lowest standing sell order
	BuyVolume  float64
	SellVolume float64
	BuyOrders  int
	SellOrders int
}

// aggregateSide matches one side of the Fuzzwork aggregate response. The
// endpoint emits numbers as JSON strings for some fields, so everything is
// decoded via json.Number and converted leniently.
type aggregateSide struct {
	Max        json.Number `json:"max"`
	Min        json.Number `json:"min"`
	Volume     json.Number `json:"volume"`
	OrderCount json.Number `json:"orderCount"`
}

type aggregateEntry struct {
	Buy  aggregateSide `json:"buy"`
	Sell aggregateSide `json:"sell"`
}

func numToFloat(n json.Number) float64 {
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return f
}

// FetchAggregatePrices fetches best-buy/best-sell aggregates for a batch of
// types at a station from the Fuzzwork market API. The map omits types the
// endpoint has no data for.
func (c *Client) FetchAggregatePrices(stationID int64, typeIDs []int32) (map[int32]Aggregates, error) {
	if len(typeIDs) == 0 {
		return map[int32]Aggregates{}, nil
	}

	ids := make([]string, len(typeIDs))
	for i, id := range typeIDs {
		ids[i] = fmt.Sprintf("%d", id)
	}
	url := fmt.Sprintf("%s?station=%d&types=%s", c.aggURL, stationID, strings.Join(ids, ","))

	raw := make(map[string]aggregateEntry)
	if err := c.getJSON(url, &raw); err != nil {
		return nil, err
	}

	out := make(map[int32]Aggregates, len(raw))
	for idStr, entry := range raw {
		var typeID int32
		if _, err := fmt.Sscanf(idStr, "%d", &typeID); err != nil {
			continue
		}
		out[typeID] = Aggregates{
			BestBuy:    numToFloat(entry.Buy.Max),
			BestSell:   numToFloat(entry.Sell.Min),
			BuyVolume:  numToFloat(entry.Buy.Volume),
			SellVolume: numToFloat(entry.Sell.Volume),
			BuyOrders:  int(numToFloat(entry.Buy.OrderCount)),
			SellOrders: int(numToFloat(entry.Sell.OrderCount)),
		}
	}
	return out, nil
}
