// Package gemmbench hardware counter ranges around kernel invocations
package gemmbench

// PerfCounters holds the counts collected over one profiler range
type PerfCounters struct {
	Cycles       uint64  `json:"cycles"`
	Instructions uint64  `json:"instructions"`
	IPC          float64 `json:"ipc"` // Instructions per cycle
}

// Profiler brackets a region of device work, like a CUDA profiler
// start/stop pair. Start may fail when counters are unavailable; callers
// treat that as "no profile", not as a run failure.
type Profiler interface {
	Start() error
	Stop() (*PerfCounters, error)
}

type nopProfiler struct{}

func (nopProfiler) Start() error                 { return nil }
func (nopProfiler) Stop() (*PerfCounters, error) { return nil, nil }

// NopProfiler returns a profiler that collects nothing.
func NopProfiler() Profiler {
	return nopProfiler{}
}

func (c *PerfCounters) derive() {
	if c.Cycles > 0 {
		c.IPC = float64(c.Instructions) / float64(c.Cycles)
	}
}
