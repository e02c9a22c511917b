package gemmbench

import (
	"fmt"
	"time"
)

// Timing is the outcome of one Timer.Measure.
type Timing struct {
	Warmup   int `json:"warmup"`
	Measured int `json:"measured"`

	// Sum of the raw synchronized intervals.
	Elapsed time.Duration `json:"elapsed_ns"`

	// Sum over iterations of interval[s] × TimingScale. With 100 measured
	// iterations this is the mean per-call latency in milliseconds.
	Milliseconds float64 `json:"ms"`
}

func (t Timing) String() string {
	return fmt.Sprintf("%.4f ms", t.Milliseconds)
}

// Timer runs the warm-up / synchronize / time protocol. Iteration counts are
// fixed when the timer is built.
type Timer struct {
	warmup   int
	measured int
	device   Synchronizer
	now      func() time.Time
}

// NewTimer returns a timer with 10 warm-up and 100 measured iterations.
func NewTimer(device Synchronizer) *Timer {
	return NewTimerWithIterations(device, WarmupIterations, MeasuredIterations)
}

// NewTimerWithIterations returns a timer with custom iteration counts.
// Negative counts are treated as zero.
func NewTimerWithIterations(device Synchronizer, warmup, measured int) *Timer {
	return &Timer{
		warmup:   max(warmup, 0),
		measured: max(measured, 0),
		device:   device,
		now:      time.Now,
	}
}

// Warmup returns the untimed iteration count
func (t *Timer) Warmup() int { return t.warmup }

// Measured returns the timed iteration count
func (t *Timer) Measured() int { return t.measured }

// Measure times call. After the warm-up invocations, each measured
// invocation is bracketed by synchronizations:
//
//	sync; t0 = now; call; sync; t1 = now; total += (t1 - t0) * 10
//
// so an interval covers exactly one call and nothing queued before it.
// Errors from call or from synchronization stop the measurement.
func (t *Timer) Measure(call func() error) (Timing, error) {
	result := Timing{Warmup: t.warmup, Measured: t.measured}

	for i := 0; i < t.warmup; i++ {
		if err := call(); err != nil {
			return result, err
		}
	}

	for i := 0; i < t.measured; i++ {
		if err := t.device.Synchronize(); err != nil {
			return result, err
		}
		start := t.now()
		if err := call(); err != nil {
			return result, err
		}
		if err := t.device.Synchronize(); err != nil {
			return result, err
		}
		elapsed := t.now().Sub(start)

		result.Elapsed += elapsed
		result.Milliseconds += elapsed.Seconds() * TimingScale
	}
	return result, nil
}
