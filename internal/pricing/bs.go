// Package pricing implements closed-form European option valuation under the
// Black-Scholes model.
package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// stdNormal is the standard normal distribution used for Φ in the
// Black-Scholes formulas. distuv's CDF is treated as infallible for
// finite inputs.
var stdNormal = distuv.UnitNormal

// BlackScholes computes European call and put prices.
//
// Formula (risk-neutral):
//
//	d1   = [ln(S/K) + (r + 0.5·sigma²)·T] / (sigma·√T)
//	d2   = d1 − sigma·√T
//	Call = S·Φ(d1) − K·e^(−r·T)·Φ(d2)
//	Put  = K·e^(−r·T)·Φ(−d2) − S·Φ(−d1)
//
// where Φ is the standard normal CDF.
//
// Parameters:
//   - spot: spot price of the underlying (S)
//   - strike: strike price (K)
//   - t: time to expiry in years (T)
//   - rate: continuously compounded risk-free rate (r)
//   - sigma: annualized volatility
//
// Returns:
//
//	(call, put), both >= 0. If t or sigma is zero or negative the function
//	short-circuits to intrinsic values, max(S−K, 0) and max(K−S, 0), which
//	avoids division by zero in d1/d2 and matches the no-time-value,
//	no-volatility limit. The rate plays no role in that branch.
//
// Both prices come from the same d1/d2 evaluation, so put-call parity holds
// by construction.
func BlackScholes(spot, strike, t, rate, sigma float64) (call, put float64) {
	if t <= 0 || sigma <= 0 {
		call = math.Max(spot-strike, 0)
		put = math.Max(strike-spot, 0)
		return call, put
	}

	sqrtT := math.Sqrt(t)
	d1 := (math.Log(spot/strike) + (rate+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT
	df := math.Exp(-rate * t)

	call = spot*stdNormal.CDF(d1) - strike*df*stdNormal.CDF(d2)
	put = strike*df*stdNormal.CDF(-d2) - spot*stdNormal.CDF(-d1)
	return call, put
}

// Vega computes the sensitivity of the option price to volatility. Calls and
// puts share the same vega under Black-Scholes.
//
// Returns 0 if t or sigma is non-positive.
func Vega(spot, strike, t, rate, sigma float64) float64 {
	if t <= 0 || sigma <= 0 {
		return 0
	}

	sqrtT := math.Sqrt(t)
	d1 := (math.Log(spot/strike) + (rate+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	return spot * stdNormal.Prob(d1) * sqrtT
}
