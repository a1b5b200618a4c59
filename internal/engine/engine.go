// Package engine runs implied-volatility solves over a chain of market
// quotes.
//
// Responsibilities:
//   - Resolve a target price per quote from a configurable expression
//   - Invert each quote's price to an implied volatility, one scalar solve
//     at a time
//   - Collect per-quote outcomes, including failures, into a Result
//
// Design notes:
//   - This package is deterministic given inputs and provider behavior
//   - Solver failures never abort a run; they are recorded per row
package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Knetic/govaluate"
	"gopkg.in/yaml.v3"

	"github.com/contactkeval/vol-solver/internal/data"
	"github.com/contactkeval/vol-solver/internal/logger"
	"github.com/contactkeval/vol-solver/internal/vol"
)

// DefaultPriceExpr is the target-price expression used when the config does
// not set one: the quote midpoint. Expressions only see quotes with both
// sides of the book; an empty or one-sided book falls back to the last
// trade before the expression runs.
const DefaultPriceExpr = "(bid + ask) / 2"

type Engine struct {
	cfg  *Config
	prov data.Provider
}

// Config struct
type Config struct {
	Underlying string      `json:"underlying" yaml:"underlying"`                     // e.g. "AAPL"
	AsOf       string      `json:"as_of,omitempty" yaml:"as_of,omitempty"`           // valuation date YYYY-MM-DD, default today
	Rate       float64     `json:"rate" yaml:"rate"`                                 // risk-free rate, annualized
	PriceExpr  string      `json:"price_expr,omitempty" yaml:"price_expr,omitempty"` // target price from bid/ask/last
	Algorithm  string      `json:"algorithm,omitempty" yaml:"algorithm,omitempty"`   // "secant" (default) or "newton"
	Solver     *vol.Config `json:"solver,omitempty" yaml:"solver,omitempty"`         // numerical overrides
	MaxQuotes  int         `json:"max_quotes,omitempty" yaml:"max_quotes,omitempty"` // max quotes to solve, 0 = unlimited
	ReportDir  string      `json:"report_dir,omitempty" yaml:"report_dir,omitempty"` // report directory
	Verbosity  int         `json:"verbosity,omitempty" yaml:"verbosity,omitempty"`   // 0=errors,1=info,2=debug,3=trace
}

// Row is the outcome of a single quote's solve.
type Row struct {
	Quote       data.Quote `json:"quote"`
	Symbol      string     `json:"symbol"`                 // OCC-style contract symbol
	Target      float64    `json:"target"`                 // resolved target price
	Years       float64    `json:"years"`                  // time to expiry used
	IV          float64    `json:"iv"`                     // recovered implied volatility
	Iterations  int        `json:"iterations"`             // root-finder iterations consumed
	ConvergedBy string     `json:"converged_by,omitempty"` // terminating tolerance
	Error       string     `json:"error,omitempty"`        // non-empty when the solve failed
}

// Result mirrors a full run
type Result struct {
	Underlying string    `json:"underlying"`
	AsOf       time.Time `json:"as_of"`
	Spot       float64   `json:"spot"`
	Rows       []Row     `json:"rows"`
	Solved     int       `json:"solved"`
	Failed     int       `json:"failed"`
}

func NewEngine(cfg *Config, prov data.Provider) *Engine {
	return &Engine{cfg: cfg, prov: prov}
}

// LoadConfig reads a JSON or YAML config file, chosen by extension.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("invalid yaml config: %w", err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("invalid json config: %w", err)
		}
	}
	return &cfg, nil
}

// Run solves the configured underlying's chain
func (e *Engine) Run() (*Result, error) {
	cfg := e.cfg
	// fill defaults
	if cfg.ReportDir == "" {
		cfg.ReportDir = "./out"
	}
	if cfg.PriceExpr == "" {
		cfg.PriceExpr = DefaultPriceExpr
	}
	if cfg.Verbosity < 0 || cfg.Verbosity > 3 {
		cfg.Verbosity = 1
	}
	logger.SetVerbosity(cfg.Verbosity)

	solverCfg := vol.DefaultConfig()
	if cfg.Solver != nil {
		// a partial solver block keeps defaults for anything it omits
		solverCfg = cfg.Solver.FillDefaults()
	}

	asOf := time.Now().UTC()
	if cfg.AsOf != "" {
		parsed, err := time.Parse("2006-01-02", cfg.AsOf)
		if err != nil {
			return nil, fmt.Errorf("invalid as_of %q: %w", cfg.AsOf, err)
		}
		asOf = parsed
	}

	expr, err := govaluate.NewEvaluableExpression(cfg.PriceExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid price expression %q: %w", cfg.PriceExpr, err)
	}

	spot, err := e.prov.GetSpot(cfg.Underlying, asOf)
	if err != nil {
		return nil, fmt.Errorf("fetch spot: %w", err)
	}
	logger.Infof("event=run underlying=%s as_of=%s spot=%.2f", cfg.Underlying, asOf.Format("2006-01-02"), spot)

	quotes, err := e.prov.GetQuotes(cfg.Underlying, asOf)
	if err != nil {
		return nil, fmt.Errorf("fetch quotes: %w", err)
	}
	if cfg.MaxQuotes > 0 && len(quotes) > cfg.MaxQuotes {
		quotes = quotes[:cfg.MaxQuotes]
	}

	res := &Result{Underlying: cfg.Underlying, AsOf: asOf, Spot: spot}
	for _, q := range quotes {
		row := e.solveQuote(expr, q, spot, asOf, solverCfg)
		if row.Error == "" {
			res.Solved++
		} else {
			res.Failed++
		}
		res.Rows = append(res.Rows, row)
	}

	logger.Infof("event=run_done quotes=%d solved=%d failed=%d", len(res.Rows), res.Solved, res.Failed)
	return res, nil
}

// solveQuote inverts one quote. Failures are reported on the row, never as
// an error, so one bad quote cannot sink the chain.
func (e *Engine) solveQuote(expr *govaluate.EvaluableExpression, q data.Quote, spot float64, asOf time.Time, solverCfg vol.Config) Row {
	row := Row{
		Quote:  q,
		Symbol: data.OptionSymbolFromParts(q.Underlying, q.Expiry, q.OptionType, q.Strike),
		Years:  q.YearsToExpiry(asOf),
	}

	target, err := targetPrice(expr, q)
	if err != nil {
		logger.Debugf("event=target_price_failed strike=%.2f err=%v", q.Strike, err)
		row.Error = err.Error()
		return row
	}
	row.Target = target

	solve := vol.Solve
	if strings.EqualFold(e.cfg.Algorithm, "newton") {
		solve = vol.NewtonSolve
	}

	out, err := solve(solverCfg, target, spot, q.Strike, row.Years, e.cfg.Rate, q.IsCall())
	if err != nil {
		// keep the two failure kinds apart for reporting
		switch {
		case errors.Is(err, vol.ErrMaxIterations):
			logger.Debugf("event=solve_timeout strike=%.2f type=%s", q.Strike, q.OptionType)
		case errors.Is(err, vol.ErrStagnation):
			logger.Debugf("event=solve_unstable strike=%.2f type=%s", q.Strike, q.OptionType)
		}
		row.Error = err.Error()
		return row
	}

	row.IV = out.Vol
	row.Iterations = out.Iterations
	row.ConvergedBy = out.ConvergedBy.String()
	logger.Tracef("event=solved strike=%.2f type=%s iv=%.4f iters=%d", q.Strike, q.OptionType, out.Vol, out.Iterations)
	return row
}

// targetPrice evaluates the configured expression over the quote's fields,
// falling back to the last trade when the book is empty or one-sided. A
// deep-OTM quote often carries only an ask; feeding that through the
// midpoint expression would halve it.
func targetPrice(expr *govaluate.EvaluableExpression, q data.Quote) (float64, error) {
	if q.Bid == 0 || q.Ask == 0 {
		if q.Last > 0 {
			return q.Last, nil
		}
		return 0, fmt.Errorf("quote has no two-sided book and no last trade")
	}

	v, err := expr.Evaluate(map[string]interface{}{
		"bid":  q.Bid,
		"ask":  q.Ask,
		"last": q.Last,
	})
	if err != nil {
		return 0, fmt.Errorf("evaluate price expression: %w", err)
	}

	target, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("price expression returned %T, want number", v)
	}
	if target <= 0 || math.IsNaN(target) {
		return 0, fmt.Errorf("price expression produced unusable target %v", target)
	}
	return target, nil
}
