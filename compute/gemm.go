package compute

import (
	"fmt"

	"github.com/LynnColeArt/gemmbench"
)

// Edge kernel tiling
const (
	tileM  = 8
	tileN  = 128
	tileK  = 64
	splitK = 4
)

// HGemm computes c = a×b with a (M×K), b (K×N) and c (M×N). Workers own
// disjoint column blocks of c and stream through b one row at a time.
func HGemm(a, b, c *gemmbench.Matrix) error {
	m, k, n := a.Rows(), a.Cols(), b.Cols()
	if err := checkDims(HGEMM, b, k, n); err != nil {
		return err
	}
	if err := checkDims(HGEMM, c, m, n); err != nil {
		return err
	}

	av := a.Float32s()
	return parallelFor(n, blockN, func(j0, j1 int) error {
		w := j1 - j0
		acc := make([]float32, m*w)
		brow := make([]float32, w)
		for l := 0; l < k; l++ {
			for j := range brow {
				brow[j] = b.At(l, j0+j)
			}
			for i := 0; i < m; i++ {
				ail := av[i*k+l]
				if ail == 0 {
					continue
				}
				row := acc[i*w : (i+1)*w]
				for j, bv := range brow {
					row[j] += ail * bv
				}
			}
		}
		for i := 0; i < m; i++ {
			for j := 0; j < w; j++ {
				c.Set(i, j0+j, acc[i*w+j])
			}
		}
		return nil
	})
}

// EdgeGemm computes c = a×b in 8×128 output tiles, stepping K by 64 and
// rotating the K tiles over four partial accumulators that are summed at
// the end. N must be a multiple of 128 and K of 64.
func EdgeGemm(a, b, c *gemmbench.Matrix) error {
	m, k, n := a.Rows(), a.Cols(), b.Cols()
	if err := checkDims(EdgeMM, b, k, n); err != nil {
		return err
	}
	if err := checkDims(EdgeMM, c, m, n); err != nil {
		return err
	}
	if err := checkTiles(EdgeMM, k, n); err != nil {
		return err
	}

	av := a.Float32s()
	return parallelFor(n/tileN, 1, func(t0, t1 int) error {
		var part [splitK][tileM * tileN]float32
		bt := make([]float32, tileK*tileN)

		for t := t0; t < t1; t++ {
			j0 := t * tileN
			for i0 := 0; i0 < m; i0 += tileM {
				rows := min(tileM, m-i0)
				for p := range part {
					clear(part[p][:])
				}

				for kt := 0; kt < k/tileK; kt++ {
					acc := part[kt%splitK][:]
					l0 := kt * tileK
					for l := 0; l < tileK; l++ {
						for j := 0; j < tileN; j++ {
							bt[l*tileN+j] = b.At(l0+l, j0+j)
						}
					}
					for i := 0; i < rows; i++ {
						arow := av[(i0+i)*k+l0 : (i0+i)*k+l0+tileK]
						out := acc[i*tileN : (i+1)*tileN]
						for l, x := range arow {
							for j, y := range bt[l*tileN : (l+1)*tileN] {
								out[j] += x * y
							}
						}
					}
				}

				for i := 0; i < rows; i++ {
					for j := 0; j < tileN; j++ {
						idx := i*tileN + j
						c.Set(i0+i, j0+j, part[0][idx]+part[1][idx]+part[2][idx]+part[3][idx])
					}
				}
			}
		}
		return nil
	})
}

// EdgeGemmBT is EdgeGemm with the right operand supplied transposed:
// bt is N×K, so every output element is a contiguous dot product.
func EdgeGemmBT(a, bt, c *gemmbench.Matrix) error {
	m, k, n := a.Rows(), a.Cols(), bt.Rows()
	if err := checkDims(EdgeMMBT, bt, n, k); err != nil {
		return err
	}
	if err := checkDims(EdgeMMBT, c, m, n); err != nil {
		return err
	}
	if err := checkTiles(EdgeMMBT, k, n); err != nil {
		return err
	}

	av := a.Float32s()
	return parallelFor(n/tileN, 1, func(t0, t1 int) error {
		brow := make([]float32, k)
		for j := t0 * tileN; j < t1*tileN; j++ {
			bt.Row(j, brow)
			for i := 0; i < m; i++ {
				c.Set(i, j, dotSplitK(av[i*k:(i+1)*k], brow))
			}
		}
		return nil
	})
}

// SGemmColMajor computes the product in column-major convention: at is
// K×M, bt is N×K and the result ct is N×M, i.e. (A×B)ᵀ stored row-major.
func SGemmColMajor(at, bt, ct *gemmbench.Matrix) error {
	k, m, n := at.Rows(), at.Cols(), bt.Rows()
	if err := checkDims(SGEMMColMajor, bt, n, k); err != nil {
		return err
	}
	if err := checkDims(SGEMMColMajor, ct, n, m); err != nil {
		return err
	}

	// Columns of at are the rows of A.
	rows := make([][]float32, m)
	for i := range rows {
		rows[i] = make([]float32, k)
		for l := 0; l < k; l++ {
			rows[i][l] = at.At(l, i)
		}
	}

	return parallelFor(n, blockN, func(j0, j1 int) error {
		brow := make([]float32, k)
		for j := j0; j < j1; j++ {
			bt.Row(j, brow)
			for i, arow := range rows {
				ct.Set(j, i, dotLanes(arow, brow))
			}
		}
		return nil
	})
}

func checkTiles(name string, k, n int) error {
	if n%tileN != 0 || k%tileK != 0 {
		return gemmbench.NewShapeMismatchError(name, fmt.Sprintf("N=%d and K=%d must be multiples of %d and %d", n, k, tileN, tileK))
	}
	return nil
}
