package gemmbench

import "fmt"

// Shape is a GEMM problem size: A is M×K, B is K×N and C is M×N.
type Shape struct {
	M int `json:"m"`
	K int `json:"k"`
	N int `json:"n"`
}

// Validate returns a shape error if any dimension is non-positive.
func (s Shape) Validate() error {
	if s.M <= 0 || s.K <= 0 || s.N <= 0 {
		return NewShapeError("Shape", fmt.Sprintf("dimensions must be positive, got %s", s))
	}
	return nil
}

// IsVector reports whether the left operand is a single row.
func (s Shape) IsVector() bool {
	return s.M == 1
}

// FLOPs returns the multiply-add count of one product, counted as 2 ops.
func (s Shape) FLOPs() int64 {
	return 2 * int64(s.M) * int64(s.K) * int64(s.N)
}

func (s Shape) String() string {
	return fmt.Sprintf("%d×%d×%d", s.M, s.K, s.N)
}
