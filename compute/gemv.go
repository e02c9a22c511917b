package compute

import (
	"fmt"

	"github.com/LynnColeArt/gemmbench"
)

// EdgeGemv computes y = x×w for a single row x (1×K) and w (K×N), in
// 128-column tiles with K split over four accumulators.
func EdgeGemv(x, w, y *gemmbench.Matrix) error {
	k, n := x.Cols(), w.Cols()
	if err := checkDims(EdgeMV, x, 1, k); err != nil {
		return err
	}
	if err := checkDims(EdgeMV, w, k, n); err != nil {
		return err
	}
	if err := checkDims(EdgeMV, y, 1, n); err != nil {
		return err
	}
	if err := checkTiles(EdgeMV, k, n); err != nil {
		return err
	}

	xv := x.Float32s()
	return parallelFor(n/tileN, 1, func(t0, t1 int) error {
		var part [splitK][tileN]float32
		for t := t0; t < t1; t++ {
			j0 := t * tileN
			for p := range part {
				clear(part[p][:])
			}
			for l := 0; l < k; l++ {
				acc := &part[(l/tileK)%splitK]
				xl := xv[l]
				for j := range acc {
					acc[j] += xl * w.At(l, j0+j)
				}
			}
			for j := 0; j < tileN; j++ {
				y.Set(0, j0+j, part[0][j]+part[1][j]+part[2][j]+part[3][j])
			}
		}
		return nil
	})
}

// FastGemv computes y = x×W with the weights supplied first and transposed:
// wt is N×K, x is 1×K and y is 1×N.
func FastGemv(wt, x, y *gemmbench.Matrix) error {
	if x.Rows() != 1 {
		return gemmbench.NewShapeMismatchError(FastGEMV, fmt.Sprintf("x has %d rows, want 1", x.Rows()))
	}
	return fastGemv(FastGEMV, wt, x, y)
}

// FastGemvExtend is FastGemv for a handful of rows: x is M×K with M ≤ 8.
func FastGemvExtend(wt, x, y *gemmbench.Matrix) error {
	if x.Rows() > tileM {
		return gemmbench.NewShapeMismatchError(FastGEMVExtend, fmt.Sprintf("x has %d rows, at most %d supported", x.Rows(), tileM))
	}
	return fastGemv(FastGEMVExtend, wt, x, y)
}

func fastGemv(name string, wt, x, y *gemmbench.Matrix) error {
	m, k, n := x.Rows(), x.Cols(), wt.Rows()
	if err := checkDims(name, wt, n, k); err != nil {
		return err
	}
	if err := checkDims(name, y, m, n); err != nil {
		return err
	}

	rows := make([][]float32, m)
	for i := range rows {
		rows[i] = make([]float32, k)
		x.Row(i, rows[i])
	}

	return parallelFor(n, blockN, func(j0, j1 int) error {
		wrow := make([]float32, k)
		for j := j0; j < j1; j++ {
			wt.Row(j, wrow)
			for i, xrow := range rows {
				y.Set(i, j, dotLanes(xrow, wrow))
			}
		}
		return nil
	})
}

// dotLanes is a dot product over four interleaved lanes, the order a
// 4-wide vector unit would accumulate in.
func dotLanes(x, y []float32) float32 {
	var s0, s1, s2, s3 float32
	n := len(x) &^ 3
	for l := 0; l < n; l += 4 {
		s0 += x[l] * y[l]
		s1 += x[l+1] * y[l+1]
		s2 += x[l+2] * y[l+2]
		s3 += x[l+3] * y[l+3]
	}
	for l := n; l < len(x); l++ {
		s0 += x[l] * y[l]
	}
	return (s0 + s1) + (s2 + s3)
}

// dotSplitK sums 64-element chunks into four rotating partials.
func dotSplitK(x, y []float32) float32 {
	var part [splitK]float32
	for l0 := 0; l0 < len(x); l0 += tileK {
		l1 := min(l0+tileK, len(x))
		part[(l0/tileK)%splitK] += dotLanes(x[l0:l1], y[l0:l1])
	}
	return part[0] + part[1] + part[2] + part[3]
}
