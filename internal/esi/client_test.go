package esi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// testClient points a client at a test server and shortens the 420 cooldown
// so retry tests run fast.
func testClient(ts *httptest.Server) *Client {
	c := NewClient(nil)
	c.baseURL = ts.URL
	c.aggURL = ts.URL + "/aggregates/"
	c.cooldown = time.Millisecond
	return c
}

func TestDo_RetriesAfterErrorLimited(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= 2 {
			w.WriteHeader(statusErrorLimited)
			return
		}
		w.Header().Set("X-ESI-Error-Limit-Remain", "99")
		w.Header().Set("X-ESI-Error-Limit-Reset", "60")
		fmt.Fprint(w, `{"players": 12345}`)
	}))
	defer ts.Close()

	c := testClient(ts)
	var status struct {
		Players int `json:"players"`
	}
	if err := c.getJSON(ts.URL+"/status/", &status); err != nil {
		t.Fatalf("getJSON after two 420s: %v", err)
	}
	if status.Players != 12345 {
		t.Errorf("players = %d, want 12345", status.Players)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server saw %d calls, want 3", got)
	}
}

func TestDo_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(statusErrorLimited)
	}))
	defer ts.Close()

	c := testClient(ts)
	var dst interface{}
	err := c.getJSON(ts.URL+"/status/", &dst)
	if err == nil {
		t.Fatal("expected error after persistent 420s, got nil")
	}
	if got := atomic.LoadInt32(&calls); got != maxFetchAttempts {
		t.Errorf("server saw %d calls, want %d", got, maxFetchAttempts)
	}
}

func TestDo_FeedsBudgetFromHeaders(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ESI-Error-Limit-Remain", "73")
		w.Header().Set("X-ESI-Error-Limit-Reset", "45")
		fmt.Fprint(w, `{}`)
	}))
	defer ts.Close()

	c := testClient(ts)
	var dst interface{}
	if err := c.getJSON(ts.URL+"/x", &dst); err != nil {
		t.Fatalf("getJSON: %v", err)
	}
	if got := c.Budget().Remaining(); got != 73 {
		t.Errorf("budget remaining = %d, want 73", got)
	}
}

func TestGetPage_ReportsTotalPages(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Pages", "4")
		fmt.Fprint(w, `[{"order_id": 1}]`)
	}))
	defer ts.Close()

	c := testClient(ts)
	var orders []MarketOrder
	pages, err := c.getPage(ts.URL+"/markets/10000002/orders/?type_id=34", 1, &orders)
	if err != nil {
		t.Fatalf("getPage: %v", err)
	}
	if pages != 4 {
		t.Errorf("totalPages = %d, want 4", pages)
	}
	if len(orders) != 1 || orders[0].OrderID != 1 {
		t.Errorf("orders = %+v, want one order with id 1", orders)
	}
}

func TestFetchTypeOrders_MergesPages(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Pages", "3")
		page := r.URL.Query().Get("page")
		fmt.Fprintf(w, `[{"order_id": %s00, "type_id": 34, "price": 5.0}]`, page)
	}))
	defer ts.Close()

	c := testClient(ts)
	orders, err := c.FetchTypeOrders(10000002, 34, "sell")
	if err != nil {
		t.Fatalf("FetchTypeOrders: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("got %d orders, want 3 (one per page)", len(orders))
	}
	for _, o := range orders {
		if o.RegionID != 10000002 {
			t.Errorf("order %d region = %d, want 10000002", o.OrderID, o.RegionID)
		}
	}
}

func TestFetchAggregatePrices_ParsesStringNumbers(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Fuzzwork mixes raw numbers and quoted numbers.
		fmt.Fprint(w, `{
			"34": {
				"buy": {"max": "5.01", "volume": "1000000", "orderCount": "12"},
				"sell": {"min": 5.49, "volume": 900000, "orderCount": 8}
			}
		}`)
	}))
	defer ts.Close()

	c := testClient(ts)
	aggs, err := c.FetchAggregatePrices(60003760, []int32{34})
	if err != nil {
		t.Fatalf("FetchAggregatePrices: %v", err)
	}
	a, ok := aggs[34]
	if !ok {
		t.Fatalf("no aggregate for type 34: %v", aggs)
	}
	if a.BestBuy != 5.01 {
		t.Errorf("BestBuy = %v, want 5.01", a.BestBuy)
	}
	if a.BestSell != 5.49 {
		t.Errorf("BestSell = %v, want 5.49", a.BestSell)
	}
	if a.BuyOrders != 12 || a.SellOrders != 8 {
		t.Errorf("order counts = %d/%d, want 12/8", a.BuyOrders, a.SellOrders)
	}
}

func TestFetchAggregatePrices_EmptyInput(t *testing.T) {
	c := NewClient(nil)
	aggs, err := c.FetchAggregatePrices(60003760, nil)
	if err != nil {
		t.Fatalf("FetchAggregatePrices(nil): %v", err)
	}
	if len(aggs) != 0 {
		t.Errorf("aggs = %v, want empty", aggs)
	}
}

type fakeLocationStore struct {
	names map[int64]string
	sets  int
}

func (s *fakeLocationStore) GetLocation(id int64) (string, bool) {
	name, ok := s.names[id]
	return name, ok
}

func (s *fakeLocationStore) SetLocation(id int64, name string) {
	s.names[id] = name
	s.sets++
}

func TestLocationName_PersistentStoreHit(t *testing.T) {
	store := &fakeLocationStore{names: map[int64]string{60003760: "Jita IV - Moon 4"}}
	c := NewClient(store)
	if got := c.LocationName(60003760); got != "Jita IV - Moon 4" {
		t.Errorf("LocationName = %q, want store hit", got)
	}
	// Second lookup must come from the in-memory layer.
	delete(store.names, 60003760)
	if got := c.LocationName(60003760); got != "Jita IV - Moon 4" {
		t.Errorf("second LocationName = %q, want memory hit", got)
	}
}

func TestLocationName_StructureWithoutAuth(t *testing.T) {
	c := NewClient(nil)
	got := c.LocationName(1035466617946)
	if got != "Structure 1035466617946" {
		t.Errorf("LocationName(structure) = %q, want placeholder", got)
	}
}

func TestLocationName_StationFromESI(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name": "Amarr VIII (Oris)"}`)
	}))
	defer ts.Close()

	store := &fakeLocationStore{names: map[int64]string{}}
	c := testClient(ts)
	c.locationStore = store
	if got := c.LocationName(60008494); got != "Amarr VIII (Oris)" {
		t.Errorf("LocationName = %q, want ESI result", got)
	}
	if store.sets != 1 {
		t.Errorf("store writes = %d, want 1", store.sets)
	}
}
