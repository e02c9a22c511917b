package gemmbench

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zeroKernel(x, y, out *Matrix) error {
	out.Zero()
	return nil
}

func newTestOrchestrator(t *testing.T, variants []Variant, opts ...Option) *Orchestrator {
	t.Helper()
	ctx := NewContext()
	t.Cleanup(ctx.Destroy)
	opts = append([]Option{WithTimer(NewTimerWithIterations(ctx, 1, 2))}, opts...)
	return NewOrchestrator(ctx, variants, opts...)
}

func TestRunIdenticalCandidate(t *testing.T) {
	if testing.Short() {
		t.Skip("full size problem")
	}
	shape := Shape{M: 2, K: 4096, N: 4096}
	copyOfReference := Variant{Name: "copy", Layout: LayoutNatural, Kernel: Reference{}.GEMM}

	report, err := newTestOrchestrator(t, []Variant{copyOfReference}).Run(shape)
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.True(t, res.Passed())
	require.NotNil(t, res.Timing)
	assert.Equal(t, 2, res.Timing.Measured)
	assert.Equal(t, shape, report.Shape)
	assert.Empty(t, report.Failed())
}

func TestRunZeroCandidate(t *testing.T) {
	shape := Shape{M: 1, K: 1024, N: 3072}
	var logs bytes.Buffer
	zero := Variant{Name: "zero", Class: ClassGEMV, Kernel: zeroKernel}

	report, err := newTestOrchestrator(t, []Variant{zero}, WithLogger(log.New(&logs, "", 0))).Run(shape)
	require.NoError(t, err)

	res := report.Results[0]
	assert.False(t, res.Passed())
	require.NotNil(t, res.Comparison)
	assert.Equal(t, shape.N, res.Comparison.Mismatches)
	require.NotNil(t, res.Timing, "failed variants are still timed")
	assert.Equal(t, []string{"zero"}, report.Failed())
	assert.Contains(t, logs.String(), "zero FAILED verification")
}

func TestRunSkipsIncompatibleVariant(t *testing.T) {
	shape := Shape{M: 2, K: 64, N: 128}
	reached := false
	variants := []Variant{
		{Name: "vector", Class: ClassGEMV, Kernel: func(x, y, out *Matrix) error {
			reached = true
			return nil
		}},
		{Name: "general", Kernel: Reference{}.GEMM},
	}

	report, err := newTestOrchestrator(t, variants).Run(shape)
	require.NoError(t, err)
	require.Len(t, report.Results, 2)

	vec := report.Results[0]
	assert.True(t, vec.Skipped)
	assert.Contains(t, vec.Error, "M=1")
	assert.Nil(t, vec.Timing)
	assert.False(t, reached)

	assert.True(t, report.Results[1].Passed())
	assert.Empty(t, report.Failed(), "skipped variants are not failures")
}

func TestRunSkipsKernelShapeMismatch(t *testing.T) {
	picky := Variant{Name: "picky", Kernel: func(x, y, out *Matrix) error {
		return NewShapeMismatchError("picky", "unsupported stride")
	}}
	report, err := newTestOrchestrator(t, []Variant{picky, ReferenceVariant()}).Run(Shape{M: 2, K: 8, N: 8})
	require.NoError(t, err)

	assert.True(t, report.Results[0].Skipped)
	assert.True(t, report.Results[1].Passed())
}

func TestRunColumnMajor(t *testing.T) {
	// (A×B)ᵀ = Bᵀ×Aᵀ
	colMajor := Variant{Name: "colmajor", Layout: LayoutColumnMajor, Kernel: func(at, bt, ct *Matrix) error {
		return Reference{}.GEMM(bt, at, ct)
	}}
	weightsFirst := Variant{Name: "weights", Layout: LayoutWeightsFirst, Kernel: func(bt, a, c *Matrix) error {
		b := newMatrix(bt.Cols(), bt.Rows(), bt.DType())
		if err := bt.TransposeInto(b); err != nil {
			return err
		}
		return Reference{}.GEMM(a, b, c)
	}}

	report, err := newTestOrchestrator(t, []Variant{colMajor, weightsFirst}).Run(Shape{M: 3, K: 16, N: 5})
	require.NoError(t, err)
	for _, res := range report.Results {
		assert.True(t, res.Passed(), res.Name)
	}
	assert.Equal(t, "column-major", report.Results[0].Layout)
}

func TestRunFatalDeviceError(t *testing.T) {
	shape := Shape{M: 2, K: 8, N: 8}
	base := errors.New("illegal address")
	ran := false
	variants := []Variant{
		{Name: "good", Kernel: Reference{}.GEMM},
		{Name: "broken", Kernel: func(x, y, out *Matrix) error { return base }},
		{Name: "after", Kernel: func(x, y, out *Matrix) error { ran = true; return nil }},
	}

	report, err := newTestOrchestrator(t, variants).Run(shape)
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, base)

	var be *BenchError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "broken", be.Variant)
	require.NotNil(t, be.Shape)
	assert.Equal(t, shape, *be.Shape)

	assert.False(t, ran, "the run stops at the failing variant")
	require.NotNil(t, report)
	assert.Len(t, report.Results, 1)
}

func TestRunPanickingKernel(t *testing.T) {
	bad := Variant{Name: "panics", Kernel: func(x, y, out *Matrix) error {
		out.Set(out.Rows(), out.Cols(), 1)
		return nil
	}}
	_, err := newTestOrchestrator(t, []Variant{bad}).Run(Shape{M: 1, K: 4, N: 4})
	assert.True(t, IsDeviceError(err))
}

func TestRunShapeErrors(t *testing.T) {
	_, err := newTestOrchestrator(t, nil).Run(Shape{M: 0, K: 4, N: 4})
	assert.True(t, IsShapeError(err))

	_, err = newTestOrchestrator(t, nil, WithTolerance(Tolerance{RelTol: -1})).Run(Shape{M: 1, K: 4, N: 4})
	assert.Error(t, err)
}

func TestRunAllocationFailure(t *testing.T) {
	pool := NewMemoryPool(1024)
	_, err := newTestOrchestrator(t, nil, WithMemoryPool(pool)).Run(Shape{M: 64, K: 64, N: 64})
	assert.True(t, IsAllocationError(err))
	assert.Zero(t, pool.Live())
}

func TestRunReleasesBuffers(t *testing.T) {
	pool := NewMemoryPool(0)
	report, err := newTestOrchestrator(t, []Variant{ReferenceVariant()}, WithMemoryPool(pool)).Run(Shape{M: 2, K: 8, N: 8})
	require.NoError(t, err)
	assert.Zero(t, pool.Live())
	assert.Positive(t, report.PeakBytes)
}

type stubProfiler struct {
	startErr error
	starts   int
	stops    int
}

func (p *stubProfiler) Start() error {
	p.starts++
	return p.startErr
}

func (p *stubProfiler) Stop() (*PerfCounters, error) {
	p.stops++
	c := &PerfCounters{Cycles: 200, Instructions: 300}
	c.derive()
	return c, nil
}

func TestRunProfiler(t *testing.T) {
	variants := []Variant{
		{Name: "a", Kernel: Reference{}.GEMM},
		{Name: "b", Kernel: Reference{}.GEMM},
	}
	shape := Shape{M: 2, K: 8, N: 8}

	t.Run("Counters", func(t *testing.T) {
		p := &stubProfiler{}
		report, err := newTestOrchestrator(t, variants, WithProfiler(p)).Run(shape)
		require.NoError(t, err)
		assert.Equal(t, 2, p.starts)
		assert.Equal(t, 2, p.stops)
		require.NotNil(t, report.Results[0].Profile)
		assert.InDelta(t, 1.5, report.Results[0].Profile.IPC, 1e-9)
	})

	t.Run("Unavailable", func(t *testing.T) {
		p := &stubProfiler{startErr: errors.New("perf_event_open: permission denied")}
		var logs bytes.Buffer
		report, err := newTestOrchestrator(t, variants, WithProfiler(p), WithLogger(log.New(&logs, "", 0))).Run(shape)
		require.NoError(t, err)

		assert.Equal(t, 1, p.starts, "a failing profiler is not retried")
		assert.Zero(t, p.stops)
		for _, res := range report.Results {
			assert.True(t, res.Passed())
			assert.Nil(t, res.Profile)
		}
		assert.Contains(t, logs.String(), "permission denied")
	})
}
