package data

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMassiveGetSpot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apiKey") != "test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"results":[{"c":581.39}]}`)
	}))
	defer srv.Close()

	p := &massiveDataProvider{APIKey: "test", Client: srv.Client(), BaseURL: srv.URL}

	spot, err := p.GetSpot("SPY", time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GetSpot failed: %v", err)
	}
	if spot != 581.39 {
		t.Fatalf("spot = %v, want 581.39", spot)
	}
}

func TestMassiveGetQuotesPagination(t *testing.T) {
	var srv *httptest.Server
	callCount := 0

	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		if callCount == 1 {
			fmt.Fprint(w, `{
				"results": [
					{"details": {"contract_type": "call", "expiration_date": "2026-06-19", "strike_price": 580},
					 "last_quote": {"bid": 12.1, "ask": 12.3},
					 "last_trade": {"price": 12.2}}
				],
				"status": "OK",
				"next_url": "`+srv.URL+`/page2"
			}`)
			return
		}
		fmt.Fprint(w, `{
			"results": [
				{"details": {"contract_type": "put", "expiration_date": "2026-06-19", "strike_price": 560},
				 "last_quote": {"bid": 4.5, "ask": 4.7},
				 "last_trade": {"price": 4.6}},
				{"details": {"contract_type": "put", "expiration_date": "not-a-date", "strike_price": 550},
				 "last_quote": {"bid": 3.0, "ask": 3.2},
				 "last_trade": {"price": 3.1}}
			],
			"status": "OK"
		}`)
	}))
	defer srv.Close()

	p := &massiveDataProvider{APIKey: "test", Client: srv.Client(), BaseURL: srv.URL}

	quotes, err := p.GetQuotes("SPY", time.Now())
	if err != nil {
		t.Fatalf("GetQuotes failed: %v", err)
	}
	if callCount != 2 {
		t.Fatalf("expected 2 requests, got %d", callCount)
	}
	// the malformed expiry on page 2 is skipped
	if len(quotes) != 2 {
		t.Fatalf("got %d quotes, want 2", len(quotes))
	}
	if quotes[0].OptionType != "call" || quotes[0].Strike != 580 || quotes[0].Bid != 12.1 {
		t.Fatalf("unexpected first quote: %+v", quotes[0])
	}
	if quotes[1].OptionType != "put" || quotes[1].Strike != 560 || quotes[1].Last != 4.6 {
		t.Fatalf("unexpected second quote: %+v", quotes[1])
	}
	if !quotes[0].Expiry.Equal(time.Date(2026, time.June, 19, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expiry not parsed: %v", quotes[0].Expiry)
	}
}

func TestMassiveGetQuotesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"message": "internal error"}`)
	}))
	defer srv.Close()

	p := &massiveDataProvider{APIKey: "test", Client: srv.Client(), BaseURL: srv.URL}

	if _, err := p.GetQuotes("SPY", time.Now()); err == nil {
		t.Fatalf("expected error on HTTP 500")
	}
	if _, err := p.GetSpot("SPY", time.Now()); err == nil {
		t.Fatalf("expected error on HTTP 500")
	}
}

func TestMassiveRateLimitRetry(t *testing.T) {
	callCount := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		if callCount == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"results":[{"c":100.5}]}`)
	}))
	defer srv.Close()

	var slept []time.Duration
	p := &massiveDataProvider{
		APIKey:  "test",
		Client:  srv.Client(),
		BaseURL: srv.URL,
		sleep:   func(d time.Duration) { slept = append(slept, d) },
	}

	spot, err := p.GetSpot("SPY", time.Now())
	if err != nil {
		t.Fatalf("GetSpot failed after rate limit: %v", err)
	}
	if spot != 100.5 {
		t.Fatalf("spot = %v, want 100.5", spot)
	}
	if callCount != 2 {
		t.Fatalf("expected retry after 429, got %d requests", callCount)
	}
	if len(slept) != 1 || slept[0] <= 0 || slept[0] > time.Minute {
		t.Fatalf("expected one sleep until the next minute boundary, got %v", slept)
	}
}
