package esi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	esiBaseURL       = "https://esi.evetech.net/latest"
	aggregateBaseURL = "https://market.fuzzwork.co.uk/aggregates/"
	userAgent        = "EVE-Intel/1.0 (github.com/Gularscopter/EVE-Intel)"

	// statusErrorLimited is ESI's "error limit exceeded" status.
	statusErrorLimited = 420
	// maxFetchAttempts bounds the retry loop on an error-limited response.
	maxFetchAttempts = 3
	// rateLimitCooldown is slept between attempts after a 420.
	rateLimitCooldown = 5 * time.Second
)

// LocationStore is a persistent L2 cache for location names.
type LocationStore interface {
	GetLocation(locationID int64) (string, bool)
	SetLocation(locationID int64, name string)
}

// Client is a rate-limited market data client for ESI and the Fuzzwork
// aggregate endpoint. All outbound calls pass three gates: a concurrency
// semaphore, a request pacer, and the shared error-budget limiter.
type Client struct {
	http     *http.Client
	pace     *rate.Limiter
	budget   *RateLimiter
	sem      chan struct{}
	cooldown time.Duration

	baseURL string // swapped in tests
	aggURL  string

	locationCache sync.Map // int64 -> string (L1 in-memory)
	locationStore LocationStore
	orderCache    *OrderCache
	historyStore  HistoryStore
}

// NewClient creates a client with the given location-name cache store
// (nil disables the persistent layer).
func NewClient(store LocationStore) *Client {
	return &Client{
		http:          &http.Client{Timeout: 30 * time.Second},
		pace:          rate.NewLimiter(rate.Limit(20), 40),
		budget:        NewRateLimiter(),
		sem:           make(chan struct{}, 20),
		cooldown:      rateLimitCooldown,
		baseURL:       esiBaseURL,
		aggURL:        aggregateBaseURL,
		locationStore: store,
		orderCache:    NewOrderCache(),
	}
}

// Budget exposes the shared error-budget limiter.
func (c *Client) Budget() *RateLimiter {
	return c.budget
}

// HealthCheck pings ESI to verify connectivity.
func (c *Client) HealthCheck() bool {
	req, err := newRequest(c.baseURL + "/status/?datasource=tranquility")
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == 200
}

func newRequest(url string) (*http.Request, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do executes one gated GET. It waits on the error budget and the pacer,
// refreshes the budget from every response, and on a 420 sleeps a fixed
// cooldown and retries — a bounded loop, never recursion. Network failures
// propagate immediately; throttling never surfaces as an error unless the
// attempt budget is exhausted.
func (c *Client) do(url string) (*http.Response, error) {
	var lastStatus int
	for attempt := 0; attempt < maxFetchAttempts; attempt++ {
		c.budget.WaitIfNeeded()
		if err := c.pace.Wait(context.Background()); err != nil {
			return nil, err
		}

		req, err := newRequest(url)
		if err != nil {
			return nil, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		c.updateBudget(resp)

		if resp.StatusCode == statusErrorLimited {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastStatus = resp.StatusCode
			time.Sleep(c.cooldown)
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("ESI %d: still error-limited after %d attempts", lastStatus, maxFetchAttempts)
}

// updateBudget feeds the rate-limit headers into the shared budget.
// Responses without the headers (e.g. Fuzzwork) leave the budget untouched.
func (c *Client) updateBudget(resp *http.Response) {
	remainHdr := resp.Header.Get("X-ESI-Error-Limit-Remain")
	if remainHdr == "" {
		return
	}
	remain, err := strconv.Atoi(remainHdr)
	if err != nil {
		return
	}
	resetSeconds, _ := strconv.Atoi(resp.Header.Get("X-ESI-Error-Limit-Reset"))
	c.budget.UpdateFromResponse(remain, resetSeconds)
}

// getJSON fetches a URL and decodes JSON into dst, holding a semaphore slot
// for the duration of the request.
func (c *Client) getJSON(url string, dst interface{}) error {
	c.sem <- struct{}{}
	defer func() { <-c.sem }()

	resp, err := c.do(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ESI %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// getPage fetches one page of a paginated endpoint and reports the total
// page count from the X-Pages header.
func (c *Client) getPage(url string, page int, dst interface{}) (totalPages int, err error) {
	c.sem <- struct{}{}
	defer func() { <-c.sem }()

	resp, err := c.do(fmt.Sprintf("%s&page=%d", url, page))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("ESI %d: %s", resp.StatusCode, string(body))
	}

	totalPages = 1
	if p := resp.Header.Get("X-Pages"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			totalPages = n
		}
	}
	return totalPages, json.NewDecoder(resp.Body).Decode(dst)
}

// LocationName resolves a location name by ID with caching: L1 in-memory,
// L2 persistent store, L3 ESI. Player structures (>= 1B) need auth and are
// reported as "Structure {id}". Names are created on first reference and
// immutable afterward.
func (c *Client) LocationName(locationID int64) string {
	if v, ok := c.locationCache.Load(locationID); ok {
		return v.(string)
	}
	if c.locationStore != nil {
		if name, ok := c.locationStore.GetLocation(locationID); ok {
			c.locationCache.Store(locationID, name)
			return name
		}
	}

	name := fmt.Sprintf("Location %d", locationID)
	if locationID >= 60000000 && locationID < 64000000 {
		var info struct {
			Name string `json:"name"`
		}
		url := fmt.Sprintf("%s/universe/stations/%d/?datasource=tranquility", c.baseURL, locationID)
		if err := c.getJSON(url, &info); err == nil && info.Name != "" {
			name = info.Name
		}
	} else if locationID >= 1000000000000 {
		name = fmt.Sprintf("Structure %d", locationID)
	}

	c.locationCache.Store(locationID, name)
	if c.locationStore != nil {
		c.locationStore.SetLocation(locationID, name)
	}
	return name
}

// PrefetchLocationNames resolves a set of location names concurrently so
// later LocationName calls are cache hits.
func (c *Client) PrefetchLocationNames(locationIDs map[int64]bool) {
	var wg sync.WaitGroup
	for id := range locationIDs {
		if _, ok := c.locationCache.Load(id); ok {
			continue
		}
		wg.Add(1)
		go func(lid int64) {
			defer wg.Done()
			c.LocationName(lid)
		}(id)
	}
	wg.Wait()
}
