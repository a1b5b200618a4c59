package solver

import (
	"errors"
	"math"
	"testing"
)

func TestSecantSimpleRoot(t *testing.T) {
	// Root at x=2 for f(x)=x^2-4
	f := func(x float64) float64 { return x*x - 4 }

	out, err := Secant(f, 1.0, 3.0, 1e-12, 1e-12, 50)
	if err != nil {
		t.Fatalf("expected convergence on trivial example: %v", err)
	}
	if math.Abs(out.Root-2.0) > 1e-9 {
		t.Fatalf("root ≈ %v, want 2.0", out.Root)
	}
}

func TestSecantExactRootShortCircuits(t *testing.T) {
	// x1 already sits on the root: succeed on the residual check before
	// any update is computed.
	f := func(x float64) float64 { return x - 5 }

	out, err := Secant(f, 1.0, 5.0, 1e-12, 1e-12, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Root != 5.0 {
		t.Fatalf("root = %v, want 5.0 exactly", out.Root)
	}
	if out.ConvergedBy != FTolerance {
		t.Fatalf("converged by %v, want f-tolerance", out.ConvergedBy)
	}
	if out.Iterations != 0 {
		t.Fatalf("iterations = %d, want 0", out.Iterations)
	}
}

func TestSecantXToleranceReason(t *testing.T) {
	// With a generous xtol the very first update is accepted as the root.
	f := func(x float64) float64 { return x*x - 4 }

	out, err := Secant(f, 1.0, 3.0, 2.0, 1e-12, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.ConvergedBy != XTolerance {
		t.Fatalf("converged by %v, want x-tolerance", out.ConvergedBy)
	}
	if out.Iterations != 0 {
		t.Fatalf("iterations = %d, want 0", out.Iterations)
	}
	// first secant update from (1, 3): x2 = 3 - 5*(3-1)/(5-(-3)) = 1.75
	if math.Abs(out.Root-1.75) > 1e-12 {
		t.Fatalf("root = %v, want 1.75", out.Root)
	}
}

func TestSecantStagnation(t *testing.T) {
	// A flat residual far from zero makes the slope denominator vanish.
	f := func(x float64) float64 { return 1.0 }

	_, err := Secant(f, 0.0, 1.0, 1e-12, 1e-12, 50)
	if !errors.Is(err, ErrStagnation) {
		t.Fatalf("err = %v, want ErrStagnation", err)
	}
}

func TestSecantToleranceOrder(t *testing.T) {
	// f0 and f1 both within ftol of zero and equal: the residual check
	// fires before stagnation detection, so this succeeds.
	f := func(x float64) float64 { return 0.0 }

	out, err := Secant(f, 0.0, 1.0, 1e-12, 1e-12, 50)
	if err != nil {
		t.Fatalf("expected f-tolerance success, got %v", err)
	}
	if out.ConvergedBy != FTolerance {
		t.Fatalf("converged by %v, want f-tolerance", out.ConvergedBy)
	}
	if out.Root != 1.0 {
		t.Fatalf("root = %v, want x1", out.Root)
	}
}

func TestSecantMaxIterations(t *testing.T) {
	f := func(x float64) float64 { return x*x - 4 }

	_, err := Secant(f, 1.0, 3.0, 1e-12, 1e-12, 1)
	if !errors.Is(err, ErrMaxIterations) {
		t.Fatalf("err = %v, want ErrMaxIterations", err)
	}
}

func TestConvergenceString(t *testing.T) {
	if XTolerance.String() != "x-tolerance" || FTolerance.String() != "f-tolerance" {
		t.Fatalf("unexpected Convergence strings: %v %v", XTolerance, FTolerance)
	}
}
