package apisource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"strategy-perf-lab/internal/domain"
)

func TestClient_Tickers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/backtester_decisions/stocks/tickers" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("dataset"); got != "baseline" {
			t.Errorf("Expected dataset=baseline, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Expected bearer auth, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`["AAPL", "MSFT"]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.URL, "secret")

	tickers, err := client.Tickers(context.Background(), AssetTypeStocks, "baseline")
	if err != nil {
		t.Fatalf("Tickers failed: %v", err)
	}
	if len(tickers) != 2 || tickers[0] != "AAPL" {
		t.Errorf("Unexpected tickers: %v", tickers)
	}
}

func TestClient_Decisions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/backtester_decisions/stocks/AAPL" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"strategy": "momentum", "date": "2024-01-02", "action": "buy"},
			{"ticker": "AAPL", "strategy": "momentum", "date": "2024-01-10", "action": "sell"}
		]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.URL, "secret")

	decisions, err := client.Decisions(context.Background(), AssetTypeStocks, "AAPL", "baseline")
	if err != nil {
		t.Fatalf("Decisions failed: %v", err)
	}
	if len(decisions) != 2 {
		t.Fatalf("Expected 2 decisions, got %d", len(decisions))
	}

	// Missing ticker in the first row is backfilled.
	if decisions[0].Ticker != "AAPL" {
		t.Errorf("Expected backfilled ticker AAPL, got %q", decisions[0].Ticker)
	}
	if decisions[0].Action != domain.ActionBuy {
		t.Errorf("Expected buy action, got %q", decisions[0].Action)
	}
	if !decisions[0].Date.Equal(domain.Date(2024, time.January, 2)) {
		t.Errorf("Unexpected date: %v", decisions[0].Date)
	}
	if decisions[1].Action != domain.ActionSell {
		t.Errorf("Expected sell action, got %q", decisions[1].Action)
	}
}

func TestClient_DecisionBaseURLSplit(t *testing.T) {
	decisionsHit := false
	decisionSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decisionsHit = true
		w.Write([]byte(`[]`))
	}))
	defer decisionSrv.Close()

	pricesHit := false
	priceSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pricesHit = true
		w.Write([]byte(`[]`))
	}))
	defer priceSrv.Close()

	client := NewClient(priceSrv.URL, decisionSrv.URL, "secret")

	if _, err := client.Decisions(context.Background(), AssetTypeStocks, "AAPL", "baseline"); err != nil {
		t.Fatalf("Decisions failed: %v", err)
	}
	if _, err := client.Prices(context.Background(), AssetTypeStocks, "AAPL",
		domain.Date(2005, time.January, 1), domain.Date(2024, time.January, 1)); err != nil {
		t.Fatalf("Prices failed: %v", err)
	}

	if !decisionsHit || !pricesHit {
		t.Errorf("Expected both hosts hit: decisions=%v prices=%v", decisionsHit, pricesHit)
	}
}

func TestClient_Prices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/crypto_prices" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("ticker") != "btc" || q.Get("start_date") != "2005-01-01" {
			t.Errorf("Unexpected query: %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"date": "2024-01-02", "close": 100.0},
			{"date": "2024-01-03", "close": 105.0}
		]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "secret")

	prices, err := client.Prices(context.Background(), AssetTypeCrypto, "btc",
		domain.Date(2005, time.January, 1), domain.Date(2024, time.December, 31))
	if err != nil {
		t.Fatalf("Prices failed: %v", err)
	}
	if len(prices) != 2 {
		t.Fatalf("Expected 2 prices, got %d", len(prices))
	}
	if prices[0].Ticker != "btc" || prices[0].Close != 100.0 {
		t.Errorf("Unexpected price row: %+v", prices[0])
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.URL, "bad-token")

	_, err := client.Tickers(context.Background(), AssetTypeStocks, "baseline")
	if err == nil {
		t.Fatal("Expected error for 403 response")
	}
}

func TestClient_BadDecisionDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"strategy": "momentum", "date": "01/02/2024", "action": "buy"}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.URL, "secret")

	_, err := client.Decisions(context.Background(), AssetTypeStocks, "AAPL", "baseline")
	if err == nil {
		t.Fatal("Expected error for malformed date")
	}
}
