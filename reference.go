// Package gemmbench reference implementation for verification
package gemmbench

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ReferenceName is the report name of the ground-truth computation.
const ReferenceName = "reference"

// Reference computes the trusted product every variant is judged against.
// Operands are widened to float64 and multiplied with gonum, so the only
// rounding is the final store into the output's element type.
type Reference struct{}

// GEMM computes c = a×b for a (M×K), b (K×N) and c (M×N).
func (Reference) GEMM(a, b, c *Matrix) error {
	m, k, n := a.Rows(), a.Cols(), b.Cols()
	if b.Rows() != k || c.Rows() != m || c.Cols() != n {
		return NewShapeMismatchError("Reference.GEMM",
			fmt.Sprintf("cannot multiply %dx%d by %dx%d into %dx%d", m, k, b.Rows(), n, c.Rows(), c.Cols()))
	}

	ad := mat.NewDense(m, k, a.Float64s())
	bd := mat.NewDense(k, n, b.Float64s())
	cd := mat.NewDense(m, n, nil)
	cd.Mul(ad, bd)

	c.SetFloat64s(cd.RawMatrix().Data)
	return nil
}

// GEMV computes y = x×W for a single row x (1×K) and W (K×N).
func (r Reference) GEMV(x, w, y *Matrix) error {
	if x.Rows() != 1 {
		return NewShapeMismatchError("Reference.GEMV", fmt.Sprintf("x has %d rows, want 1", x.Rows()))
	}
	return r.GEMM(x, w, y)
}

// ReferenceVariant wraps Reference.GEMM as a natural-layout variant so it
// can be invoked and timed exactly like a candidate.
func ReferenceVariant() Variant {
	return Variant{
		Name:   ReferenceName,
		Class:  ClassGEMM,
		Layout: LayoutNatural,
		Kernel: Reference{}.GEMM,
	}
}
