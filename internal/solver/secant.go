// Package solver provides general-purpose scalar root finding.
//
// The package knows nothing about options or pricing: it operates on plain
// func(float64) float64 residuals, which keeps it reusable for any scalar
// inversion problem.
//
// Design notes:
//   - Failures are typed sentinel errors, never panics
//   - No bracketing or divergence guard exists beyond the iteration cap
//   - Deterministic given the same inputs; no shared state
package solver

import (
	"errors"
	"fmt"
	"math"
)

//
// ==========================
// Error taxonomy
// ==========================
//

// Typed errors allow callers and tests to detect failure categories
// without string matching.
var (
	// ErrMaxIterations means the iteration ran to its cap without
	// satisfying either tolerance. Callers may retry with different
	// guesses, looser tolerances, or a higher cap.
	ErrMaxIterations = errors.New("secant: max iterations exceeded")

	// ErrStagnation means consecutive residual evaluations became
	// indistinguishable within ftol, so the secant slope estimate is
	// degenerate (repeated root or flat residual) and the update step
	// would divide by (nearly) zero. Callers should pick different
	// starting points.
	ErrStagnation = errors.New("secant: stagnation, slope denominator vanished")
)

// Convergence identifies which tolerance terminated a successful solve.
type Convergence int

const (
	XTolerance Convergence = iota // |x2 - x1| <= xtol
	FTolerance                    // |f(x1)| <= ftol
)

func (c Convergence) String() string {
	switch c {
	case XTolerance:
		return "x-tolerance"
	case FTolerance:
		return "f-tolerance"
	}
	return fmt.Sprintf("Convergence(%d)", int(c))
}

// Outcome is the result of a successful secant run.
type Outcome struct {
	Root        float64     // estimated root
	Iterations  int         // iterations consumed, 0-based
	ConvergedBy Convergence // which criterion terminated the run
}

// Secant finds a root of f using the secant method.
//
// x0 and x1 are initial estimates; unlike bisection they need not bracket
// a sign change. xtol and ftol are non-negative absolute tolerances on the
// step size and residual respectively, and maxIter caps the iteration count.
//
// Each iteration checks, in order: residual tolerance on x1 (short-circuits
// an exact or near-exact root), slope degeneracy (ErrStagnation), then the
// secant update and step tolerance. The order matters on boundary cases:
// when f(x0) and f(x1) are both within ftol of zero and equal, the run
// succeeds on the residual check rather than failing on stagnation.
//
// A diverging sequence is caught only by maxIter (ErrMaxIterations); there
// is no bounds check on the iterates.
func Secant(f func(float64) float64, x0, x1, xtol, ftol float64, maxIter int) (Outcome, error) {
	for i := 0; i < maxIter; i++ {
		f0 := f(x0)
		f1 := f(x1)

		if math.Abs(f1) <= ftol {
			return Outcome{Root: x1, Iterations: i, ConvergedBy: FTolerance}, nil
		}
		if math.Abs(f1-f0) <= ftol {
			return Outcome{}, ErrStagnation
		}

		x2 := x1 - f1*(x1-x0)/(f1-f0)
		if math.Abs(x2-x1) <= xtol {
			return Outcome{Root: x2, Iterations: i, ConvergedBy: XTolerance}, nil
		}

		x0, x1 = x1, x2
	}
	return Outcome{}, ErrMaxIterations
}
