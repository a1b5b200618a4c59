// Package vol recovers implied volatility from observed option prices by
// inverting the Black-Scholes formula numerically.
//
// The default path drives a secant root finder over the residual
// price(sigma) - observed, so no derivative of the pricing formula is
// needed. A vega-based Newton-Raphson variant is provided for callers that
// prefer faster convergence near the money.
//
// All functions are pure and safe for concurrent use: every call builds its
// own residual closure and iteration state.
package vol

import (
	"math"

	"github.com/contactkeval/vol-solver/internal/pricing"
	"github.com/contactkeval/vol-solver/internal/solver"
)

// Root-finder failure kinds, re-exported so package consumers can match
// them with errors.Is without importing the solver directly.
var (
	ErrMaxIterations = solver.ErrMaxIterations
	ErrStagnation    = solver.ErrStagnation
)

// Config holds the numerical settings of a solve. The zero value is not
// usable; start from DefaultConfig and override fields as needed.
type Config struct {
	X0      float64 `json:"x0" yaml:"x0"`             // first initial vol guess
	X1      float64 `json:"x1" yaml:"x1"`             // second initial vol guess
	XTol    float64 `json:"xtol" yaml:"xtol"`         // absolute tolerance on successive sigma steps
	FTol    float64 `json:"ftol" yaml:"ftol"`         // absolute tolerance on the price residual
	MaxIter int     `json:"max_iter" yaml:"max_iter"` // iteration cap, sole guard against non-termination
}

// DefaultConfig returns the out-of-the-box solver settings. Existing callers
// depend on these exact values; instruments with volatility far outside the
// 10-30% bracket should override X0/X1.
func DefaultConfig() Config {
	return Config{
		X0:      0.1,
		X1:      0.3,
		XTol:    1e-6,
		FTol:    1e-6,
		MaxIter: 50,
	}
}

// FillDefaults returns the config with every zero field replaced by its
// DefaultConfig value, so a partial override (say, only X0/X1) keeps the
// out-of-the-box tolerances and iteration cap instead of degenerating to
// zeros. A zero MaxIter would otherwise fail every solve immediately.
func (c Config) FillDefaults() Config {
	def := DefaultConfig()
	if c.X0 == 0 {
		c.X0 = def.X0
	}
	if c.X1 == 0 {
		c.X1 = def.X1
	}
	if c.XTol == 0 {
		c.XTol = def.XTol
	}
	if c.FTol == 0 {
		c.FTol = def.FTol
	}
	if c.MaxIter == 0 {
		c.MaxIter = def.MaxIter
	}
	return c
}

// Result describes a completed solve.
type Result struct {
	Vol         float64            // recovered implied volatility
	Iterations  int                // root-finder iterations consumed, 0-based
	ConvergedBy solver.Convergence // which tolerance terminated the run
}

// ImpliedVolatility solves for the volatility that reprices an option at the
// observed market price, using the default configuration.
//
// Parameters:
//   - price: observed market price of the option
//   - spot: spot price of the underlying (S)
//   - strike: strike price (K)
//   - t: time to expiry in years (T)
//   - rate: continuously compounded risk-free rate (r)
//   - isCall: true for call options, false for puts
//
// On non-convergence the root finder's error is returned unchanged, so
// callers can tell solver.ErrMaxIterations (did not converge in time) from
// solver.ErrStagnation (numerically unstable residual) with errors.Is.
//
// The recovered sigma is returned as-is: no bounds check rejects a negative
// or absurdly large root for pathological inputs. Validation is caller
// policy.
func ImpliedVolatility(price, spot, strike, t, rate float64, isCall bool) (float64, error) {
	res, err := Solve(DefaultConfig(), price, spot, strike, t, rate, isCall)
	if err != nil {
		return 0, err
	}
	return res.Vol, nil
}

// Solve is ImpliedVolatility with explicit configuration, returning the full
// solve diagnostics.
func Solve(cfg Config, price, spot, strike, t, rate float64, isCall bool) (Result, error) {
	// Residual closure over the fixed market parameters and target price.
	// Only the matching branch of the pricer's pair output is used.
	var f func(sigma float64) float64
	if isCall {
		f = func(sigma float64) float64 {
			call, _ := pricing.BlackScholes(spot, strike, t, rate, sigma)
			return call - price
		}
	} else {
		f = func(sigma float64) float64 {
			_, put := pricing.BlackScholes(spot, strike, t, rate, sigma)
			return put - price
		}
	}

	out, err := solver.Secant(f, cfg.X0, cfg.X1, cfg.XTol, cfg.FTol, cfg.MaxIter)
	if err != nil {
		return Result{}, err
	}
	return Result{Vol: out.Root, Iterations: out.Iterations, ConvergedBy: out.ConvergedBy}, nil
}

// NewtonSolve recovers implied volatility with vega-driven Newton-Raphson
// instead of the secant default. It starts from cfg.X0, uses cfg.FTol as the
// residual tolerance and cfg.MaxIter as the cap.
//
// Guardrails: sigma is clamped to (0, 5] between steps, and a vanishing vega
// surfaces as solver.ErrStagnation (the Newton step is as degenerate as a
// flat secant slope).
func NewtonSolve(cfg Config, price, spot, strike, t, rate float64, isCall bool) (Result, error) {
	sigma := cfg.X0

	for i := 0; i < cfg.MaxIter; i++ {
		call, put := pricing.BlackScholes(spot, strike, t, rate, sigma)
		model := call
		if !isCall {
			model = put
		}
		diff := model - price

		if math.Abs(diff) <= cfg.FTol {
			return Result{Vol: sigma, Iterations: i, ConvergedBy: solver.FTolerance}, nil
		}

		vega := pricing.Vega(spot, strike, t, rate, sigma)
		if vega < 1e-8 {
			return Result{}, solver.ErrStagnation
		}

		sigma -= diff / vega
		if sigma <= 0 {
			sigma = 1e-4
		}
		if sigma > 5 {
			sigma = 5
		}
	}
	return Result{}, solver.ErrMaxIterations
}
