// Package data provides market quote provider implementations.
package data

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Quote is a single option quote as observed in the market. Prices are per
// share; either the bid/ask book or the last trade may be empty (zero).
type Quote struct {
	Underlying string    `json:"underlying"`
	OptionType string    `json:"option_type"` // "call" or "put"
	Strike     float64   `json:"strike"`
	Expiry     time.Time `json:"expiry"`
	Bid        float64   `json:"bid,omitempty"`
	Ask        float64   `json:"ask,omitempty"`
	Last       float64   `json:"last,omitempty"`
}

// IsCall reports whether the quote is for a call option. Anything other
// than "put"/"p" counts as a call, matching OCC symbol conventions.
func (q Quote) IsCall() bool {
	switch strings.ToLower(q.OptionType) {
	case "put", "p":
		return false
	}
	return true
}

// YearsToExpiry returns the quote's time to expiry in years as of the given
// time, never negative.
func (q Quote) YearsToExpiry(asOf time.Time) float64 {
	t := q.Expiry.Sub(asOf).Hours() / (24 * 365)
	return math.Max(t, 0)
}

// Provider supplies market data
type Provider interface {
	// Secondary returns the fallback provider, if any.
	Secondary() Provider
	// GetSpot returns the underlying spot price as of the given time.
	GetSpot(underlying string, asOf time.Time) (float64, error)
	// GetQuotes returns the option quotes available for the underlying
	// as of the given time.
	GetQuotes(underlying string, asOf time.Time) ([]Quote, error)
}

// OptionSymbolFromParts: improved OCC-like formatter (best-effort)
func OptionSymbolFromParts(underlying string, expiryDate time.Time, optionType string, strike float64) string {
	// OCC: <root><YYMMDD><C|P><strike*1000 padded to 8 digits>
	expDt := expiryDate.UTC().Format("060102")
	optType := "C"
	if strings.ToLower(optionType) == "put" || strings.ToLower(optionType) == "p" {
		optType = "P"
	}
	strikeInt := int(math.Round(strike * 1000))
	strFmt := fmt.Sprintf("%08d", strikeInt)
	return fmt.Sprintf("O:%s%s%s%s", strings.ToUpper(underlying), expDt, optType, strFmt)
}
