package data

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/contactkeval/vol-solver/internal/pricing"
)

// synthDataProvider implements Data Provider generating synthetic quotes.
// Quotes are priced through the Black-Scholes formula at a mildly skewed
// vol curve, so a solver run over them recovers known volatilities.
type synthDataProvider struct {
	spot      float64
	rate      float64
	baseVol   float64
	rng       *rand.Rand
	secondary Provider
}

// NewSyntheticProvider builds a deterministic synthetic quote source around
// the given spot. The same seed always produces the same chain.
func NewSyntheticProvider(spot, rate, baseVol float64, seed int64) Provider {
	return &synthDataProvider{
		spot:    spot,
		rate:    rate,
		baseVol: baseVol,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

func (synthDataProv *synthDataProvider) Secondary() Provider {
	return synthDataProv.secondary
}

func (synthDataProv *synthDataProvider) GetSpot(underlying string, asOf time.Time) (float64, error) {
	return synthDataProv.spot, nil
}

// SyntheticVol returns the exact volatility a synthetic provider with the
// given spot and base vol prices a strike at. Exposed so tests can compare
// recovered vols against the truth.
func SyntheticVol(spot, baseVol, strike float64) float64 {
	// gentle smile: vol rises away from the money
	moneyness := math.Log(strike / spot)
	return baseVol + 0.1*moneyness*moneyness
}

func (synthDataProv *synthDataProvider) GetQuotes(underlying string, asOf time.Time) ([]Quote, error) {
	if synthDataProv.spot <= 0 {
		return nil, fmt.Errorf("synthetic provider needs a positive spot, got %f", synthDataProv.spot)
	}

	expiry := asOf.AddDate(0, 0, 90)
	t := expiry.Sub(asOf).Hours() / (24 * 365)

	var out []Quote
	for pct := -20; pct <= 20; pct += 5 {
		strike := math.Round(synthDataProv.spot * (1 + float64(pct)/100))
		sigma := SyntheticVol(synthDataProv.spot, synthDataProv.baseVol, strike)
		call, put := pricing.BlackScholes(synthDataProv.spot, strike, t, synthDataProv.rate, sigma)

		// half-spread up to ~1% of mid, symmetric so the mid stays exact
		for _, side := range []struct {
			optType string
			mid     float64
		}{{"call", call}, {"put", put}} {
			half := side.mid * 0.01 * synthDataProv.rng.Float64()
			out = append(out, Quote{
				Underlying: underlying,
				OptionType: side.optType,
				Strike:     strike,
				Expiry:     expiry,
				Bid:        math.Max(side.mid-half, 0),
				Ask:        side.mid + half,
				Last:       side.mid,
			})
		}
	}
	return out, nil
}
