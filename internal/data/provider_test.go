package data

import (
	"math"
	"testing"
	"time"
)

func TestQuoteIsCall(t *testing.T) {
	tests := []struct {
		optType string
		want    bool
	}{
		{"call", true},
		{"CALL", true},
		{"c", true},
		{"put", false},
		{"PUT", false},
		{"p", false},
		{"", true}, // unknown defaults to call
	}

	for _, test := range tests {
		q := Quote{OptionType: test.optType}
		if q.IsCall() != test.want {
			t.Fatalf("IsCall(%q) = %v, want %v", test.optType, q.IsCall(), test.want)
		}
	}
}

func TestQuoteYearsToExpiry(t *testing.T) {
	asOf := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	q := Quote{Expiry: asOf.AddDate(1, 0, 0)}

	years := q.YearsToExpiry(asOf)
	if math.Abs(years-1.0) > 0.01 {
		t.Fatalf("years = %v, want ≈ 1.0", years)
	}

	// expired quotes clamp to zero rather than going negative
	if y := q.YearsToExpiry(asOf.AddDate(2, 0, 0)); y != 0 {
		t.Fatalf("expired years = %v, want 0", y)
	}
}

func TestOptionSymbolFromParts(t *testing.T) {
	expiry := time.Date(2026, time.September, 18, 0, 0, 0, 0, time.UTC)

	sym := OptionSymbolFromParts("spy", expiry, "call", 580)
	if sym != "O:SPY260918C00580000" {
		t.Fatalf("symbol = %s", sym)
	}

	sym = OptionSymbolFromParts("SPY", expiry, "put", 472.5)
	if sym != "O:SPY260918P00472500" {
		t.Fatalf("symbol = %s", sym)
	}
}

func TestSyntheticProviderDeterministic(t *testing.T) {
	asOf := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	a, err := NewSyntheticProvider(100, 0.05, 0.2, 42).GetQuotes("SYN", asOf)
	if err != nil {
		t.Fatalf("GetQuotes failed: %v", err)
	}
	b, err := NewSyntheticProvider(100, 0.05, 0.2, 42).GetQuotes("SYN", asOf)
	if err != nil {
		t.Fatalf("GetQuotes failed: %v", err)
	}

	if len(a) == 0 || len(a) != len(b) {
		t.Fatalf("chain sizes: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("quote %d differs between seeded runs:\n%+v\n%+v", i, a[i], b[i])
		}
	}
}

func TestSyntheticProviderQuoteShape(t *testing.T) {
	asOf := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	prov := NewSyntheticProvider(100, 0.05, 0.2, 1)

	spot, err := prov.GetSpot("SYN", asOf)
	if err != nil || spot != 100 {
		t.Fatalf("spot = %v err = %v", spot, err)
	}

	quotes, err := prov.GetQuotes("SYN", asOf)
	if err != nil {
		t.Fatalf("GetQuotes failed: %v", err)
	}

	calls, puts := 0, 0
	for _, q := range quotes {
		if q.IsCall() {
			calls++
		} else {
			puts++
		}
		if q.Bid < 0 || q.Ask < q.Bid {
			t.Fatalf("inverted book on %+v", q)
		}
		if q.Last < q.Bid || q.Last > q.Ask {
			t.Fatalf("mid outside book on %+v", q)
		}
		if !q.Expiry.After(asOf) {
			t.Fatalf("expiry not in the future: %+v", q)
		}
	}
	if calls == 0 || puts == 0 || calls != puts {
		t.Fatalf("unbalanced chain: %d calls, %d puts", calls, puts)
	}
}
