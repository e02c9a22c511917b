//go:build !linux
// +build !linux

package gemmbench

// NewProfiler returns a no-op profiler on platforms without perf_event_open.
func NewProfiler() Profiler {
	return NopProfiler()
}
