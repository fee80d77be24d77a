package esi

import (
	"fmt"
	"time"
)

// HistoryEntry is one day of a region's market history for a type.
type HistoryEntry struct {
	Date       string  `json:"date"`
	Average    float64 `json:"average"`
	Highest    float64 `json:"highest"`
	Lowest     float64 `json:"lowest"`
	OrderCount int64   `json:"order_count"`
	Volume     int64   `json:"volume"`
}

// HistoryStore is a persistent cache of average daily volumes, keyed by
// region and type. Entries expire by their stored timestamp.
type HistoryStore interface {
	GetAvgVolume(regionID, typeID int32, maxAge time.Duration) (float64, bool)
	SetAvgVolume(regionID, typeID int32, avgVolume float64)
}

// SetHistoryStore attaches a persistent history cache to the client.
func (c *Client) SetHistoryStore(store HistoryStore) {
	c.historyStore = store
}

// FetchMarketHistory fetches the full daily history of a type in a region.
// ESI returns entries oldest first.
func (c *Client) FetchMarketHistory(regionID, typeID int32) ([]HistoryEntry, error) {
	url := fmt.Sprintf("%s/markets/%d/history/?datasource=tranquility&type_id=%d",
		c.baseURL, regionID, typeID)
	var entries []HistoryEntry
	if err := c.getJSON(url, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// historyMaxAge bounds how stale a cached average volume may be before it is
// refetched.
const historyMaxAge = 24 * time.Hour

// AvgDailyVolume returns the mean traded volume over the last seven recorded
// days of a type's regional history, consulting the persistent store first.
// A type with no history trades at volume 0.
func (c *Client) AvgDailyVolume(regionID, typeID int32) (float64, error) {
	if c.historyStore != nil {
		if v, ok := c.historyStore.GetAvgVolume(regionID, typeID, historyMaxAge); ok {
			return v, nil
		}
	}

	entries, err := c.FetchMarketHistory(regionID, typeID)
	if err != nil {
		return 0, err
	}
	avg := averageRecentVolume(entries, 7)

	if c.historyStore != nil {
		c.historyStore.SetAvgVolume(regionID, typeID, avg)
	}
	return avg, nil
}

// averageRecentVolume averages the volume of the last n entries. Fewer than n
// entries average over what exists.
func averageRecentVolume(entries []HistoryEntry, n int) float64 {
	if len(entries) == 0 {
		return 0
	}
	start := len(entries) - n
	if start < 0 {
		start = 0
	}
	var total int64
	for _, e := range entries[start:] {
		total += e.Volume
	}
	return float64(total) / float64(len(entries)-start)
}
