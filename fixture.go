package gemmbench

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// FixtureOptions controls operand generation.
type FixtureOptions struct {
	DType DType
	Seed  uint64  // Same seed, same operands within a process
	Low   float32 // Minimum value (inclusive)
	High  float32 // Maximum value (exclusive)

	// SkipPerturbation leaves B's ill-conditioned columns at full scale.
	SkipPerturbation bool
}

// DefaultFixtureOptions returns half precision operands in [0, 1).
func DefaultFixtureOptions() FixtureOptions {
	return FixtureOptions{
		DType: Float16,
		Seed:  DefaultSeed,
		Low:   DefaultLow,
		High:  DefaultHigh,
	}
}

// Fixture holds the operands of one run together with the transposed,
// contiguous copies that some calling conventions expect. All buffers come
// from the same pool and are released together.
type Fixture struct {
	Shape Shape
	DType DType

	A  *Matrix // M×K
	B  *Matrix // K×N
	AT *Matrix // K×M
	BT *Matrix // N×K

	pool    *MemoryPool
	buffers []*Matrix
}

// BuildFixture allocates and fills the operands for shape.
//
// A and B are drawn uniformly from [Low, High) and rounded to the element
// type. Columns [N-4, N-2) of B are then divided by 100 to probe how kernels
// handle near-zero magnitudes.
func BuildFixture(pool *MemoryPool, shape Shape, opts FixtureOptions) (*Fixture, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if opts.High <= opts.Low {
		return nil, NewInvalidArgError("BuildFixture", fmt.Sprintf("empty value range [%g, %g)", opts.Low, opts.High))
	}

	fx := &Fixture{Shape: shape, DType: opts.DType, pool: pool}
	for _, buf := range []struct {
		dst        **Matrix
		rows, cols int
	}{
		{&fx.A, shape.M, shape.K},
		{&fx.B, shape.K, shape.N},
		{&fx.AT, shape.K, shape.M},
		{&fx.BT, shape.N, shape.K},
	} {
		m, err := fx.allocate(buf.rows, buf.cols)
		if err != nil {
			fx.Release()
			return nil, err
		}
		*buf.dst = m
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	fillUniform(fx.A, rng, opts.Low, opts.High)
	fillUniform(fx.B, rng, opts.Low, opts.High)
	if !opts.SkipPerturbation {
		perturb(fx.B)
	}

	if err := fx.A.TransposeInto(fx.AT); err != nil {
		fx.Release()
		return nil, err
	}
	if err := fx.B.TransposeInto(fx.BT); err != nil {
		fx.Release()
		return nil, err
	}
	return fx, nil
}

func (fx *Fixture) allocate(rows, cols int) (*Matrix, error) {
	m, err := fx.pool.Allocate(rows, cols, fx.DType)
	if err != nil {
		return nil, err
	}
	fx.buffers = append(fx.buffers, m)
	return m, nil
}

// NewOutput allocates an output buffer shaped for the given calling
// convention: M×N, or N×M for column-major variants.
func (fx *Fixture) NewOutput(layout Layout) (*Matrix, error) {
	rows, cols := layout.OutputDims(fx.Shape)
	return fx.allocate(rows, cols)
}

// Release returns every buffer the fixture allocated to its pool.
func (fx *Fixture) Release() error {
	var first error
	for _, m := range fx.buffers {
		if err := fx.pool.Release(m); err != nil && first == nil {
			first = err
		}
	}
	fx.buffers = nil
	return first
}

// PerturbColumns returns the half-open column range of an n-column right
// operand that is scaled down, clamped to valid columns.
func PerturbColumns(n int) (from, to int) {
	from = max(n+PerturbFrom, 0)
	to = max(n+PerturbTo, 0)
	return from, to
}

func fillUniform(m *Matrix, rng *rand.Rand, low, high float32) {
	scale := high - low
	for i := 0; i < m.Len(); i++ {
		m.SetIndex(i, rng.Float32()*scale+low)
	}
}

// perturb divides the designated columns of b by PerturbDivisor.
func perturb(b *Matrix) {
	from, to := PerturbColumns(b.Cols())
	col := make([]float64, b.Rows())
	for j := from; j < to; j++ {
		for i := range col {
			col[i] = float64(b.At(i, j))
		}
		floats.Scale(1.0/PerturbDivisor, col)
		for i, v := range col {
			b.Set(i, j, float32(v))
		}
	}
}
