package gemmbench

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Tolerance is the closeness criterion |x − y| ≤ AbsTol + RelTol·|y|, where y
// is the reference value.
type Tolerance struct {
	RelTol float64 `json:"rtol"`
	AbsTol float64 `json:"atol"`
}

// DefaultTolerance returns the half precision defaults (rtol 0.1, atol 0.01).
func DefaultTolerance() Tolerance {
	return Tolerance{RelTol: DefaultRelTol, AbsTol: DefaultAbsTol}
}

// Validate rejects negative tolerances.
func (t Tolerance) Validate() error {
	if t.RelTol < 0 || t.AbsTol < 0 || math.IsNaN(t.RelTol) || math.IsNaN(t.AbsTol) {
		return NewInvalidArgError("Tolerance", fmt.Sprintf("tolerances must be non-negative, got rtol=%g atol=%g", t.RelTol, t.AbsTol))
	}
	return nil
}

// Close reports whether x is within tolerance of the reference value y.
// Matching NaNs and same-signed infinities are close.
func (t Tolerance) Close(x, y float64) bool {
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.IsNaN(x) && math.IsNaN(y)
	}
	if math.IsInf(x, 0) || math.IsInf(y, 0) {
		return x == y
	}
	return math.Abs(x-y) <= t.AbsTol+t.RelTol*math.Abs(y)
}

// Comparison is the verdict of comparing a candidate output to the reference.
type Comparison struct {
	Pass          bool      `json:"pass"`
	Tolerance     Tolerance `json:"tolerance"`
	Mismatches    int       `json:"mismatches"`
	Total         int       `json:"total"`
	FirstMismatch int       `json:"first_mismatch"` // -1 if none
	MaxAbsError   float64   `json:"max_abs_error"`
}

// AllClose returns true iff x and y have the same dimensions and every
// element pair is within tol.
func AllClose(x, y *Matrix, tol Tolerance) bool {
	c, err := Compare(x, y, tol)
	return err == nil && c.Pass
}

// Compare checks x (candidate) against y (reference) element by element.
// A numerical mismatch is a false verdict, not an error; only differing
// dimensions are reported as errors.
func Compare(x, y *Matrix, tol Tolerance) (Comparison, error) {
	if x.Rows() != y.Rows() || x.Cols() != y.Cols() {
		return Comparison{}, NewShapeMismatchError("Compare",
			fmt.Sprintf("candidate is %dx%d, reference is %dx%d", x.Rows(), x.Cols(), y.Rows(), y.Cols()))
	}

	got, want := x.Float64s(), y.Float64s()
	result := Comparison{
		Tolerance:     tol,
		Total:         len(want),
		FirstMismatch: -1,
	}

	for i := range want {
		if !tol.Close(got[i], want[i]) {
			result.Mismatches++
			if result.FirstMismatch == -1 {
				result.FirstMismatch = i
			}
		}
	}

	diff := make([]float64, len(want))
	floats.SubTo(diff, got, want)
	for _, d := range diff {
		// Keep the field JSON-encodable.
		a := math.Abs(d)
		if math.IsNaN(a) {
			continue
		}
		result.MaxAbsError = math.Max(result.MaxAbsError, math.Min(a, math.MaxFloat64))
	}

	result.Pass = result.Mismatches == 0
	return result, nil
}

// String formats the comparison for display
func (c Comparison) String() string {
	if c.Pass {
		return fmt.Sprintf("PASS: %d values within rtol=%g atol=%g", c.Total, c.Tolerance.RelTol, c.Tolerance.AbsTol)
	}
	rate := float64(c.Mismatches) / float64(c.Total) * 100
	return fmt.Sprintf("FAIL: %d/%d values differ (%.2f%%), max abs error %e, first at index %d",
		c.Mismatches, c.Total, rate, c.MaxAbsError, c.FirstMismatch)
}
