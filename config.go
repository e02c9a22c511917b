// Package gemmbench configuration constants
package gemmbench

// Timing protocol
const (
	// Untimed invocations before measurement starts
	WarmupIterations = 10

	// Individually synchronized, timed invocations
	MeasuredIterations = 100

	// Each measured interval (in seconds) is multiplied by this before it is
	// accumulated. With 100 iterations the total reads as mean ms per call.
	TimingScale = 10
)

// Fixture parameters
const (
	// Columns [N+PerturbFrom, N+PerturbTo) of B are scaled down
	PerturbFrom = -4
	PerturbTo   = -2

	// Divisor applied to the perturbed columns
	PerturbDivisor = 100

	// Default uniform range of generated operands
	DefaultLow  = 0.0
	DefaultHigh = 1.0

	// Seed used when none is configured
	DefaultSeed = 0x5eed
)

// Comparison tolerances. These are loose on purpose: the kernels under test
// compute in half precision.
const (
	DefaultRelTol = 1e-1
	DefaultAbsTol = 1e-2
)

// Memory pool parameters
const (
	// Allocation granularity in bytes (cache line)
	MemoryAlignment = 64

	// Default device memory budget in bytes
	DefaultMemoryLimit = 8 << 30
)

// Config describes one harness run.
type Config struct {
	Shape       Shape
	DType       DType
	Seed        uint64
	Tolerance   Tolerance
	MemoryLimit int64
	Variants    []string // empty selects every registered variant
	Profile     bool
}

// DefaultConfig returns the edge GEMM check configuration:
// a 2×4096×4096 half precision problem.
func DefaultConfig() Config {
	return Config{
		Shape:       Shape{M: 2, K: 4096, N: 4096},
		DType:       Float16,
		Seed:        DefaultSeed,
		Tolerance:   DefaultTolerance(),
		MemoryLimit: DefaultMemoryLimit,
	}
}
