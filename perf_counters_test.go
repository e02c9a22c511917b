package gemmbench

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopProfiler(t *testing.T) {
	p := NopProfiler()
	require.NoError(t, p.Start())
	c, err := p.Stop()
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestPerfCountersDerive(t *testing.T) {
	c := &PerfCounters{Cycles: 1000, Instructions: 2500}
	c.derive()
	assert.InDelta(t, 2.5, c.IPC, 1e-12)

	empty := &PerfCounters{}
	empty.derive()
	assert.Zero(t, empty.IPC)
}

// Hardware counters are often unavailable in containers and CI, so only a
// successful Start is checked further.
func TestProfiler(t *testing.T) {
	p := NewProfiler()
	if err := p.Start(); err != nil {
		t.Skipf("performance counters unavailable: %v", err)
	}

	sum := 0.0
	for i := 0; i < 1000000; i++ {
		sum += float64(i)
	}
	_ = sum

	c, err := p.Stop()
	require.NoError(t, err)
	if c == nil {
		return
	}
	t.Logf("cycles=%d instructions=%d ipc=%.2f", c.Cycles, c.Instructions, c.IPC)
}

func TestCPUFeatureList(t *testing.T) {
	features := CPUFeatureList()
	for _, f := range features {
		assert.NotEmpty(t, f)
	}
	if HasNativeHalf() {
		assert.True(t, cpuFeatures.HasF16C || cpuFeatures.HasASIMDHP)
	}
}
