//go:build linux
// +build linux

package gemmbench

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// LinuxPerfMonitor counts hardware events with perf_event_open. Counters
// follow the calling thread and threads it creates while enabled.
type LinuxPerfMonitor struct {
	fds      []int
	counters []perfEventConfig
}

type perfEventConfig struct {
	name   string
	config uint64
}

// NewProfiler returns a perf_event_open backed profiler.
func NewProfiler() Profiler {
	return NewLinuxPerfMonitor()
}

// NewLinuxPerfMonitor creates a monitor for cycles and instructions
func NewLinuxPerfMonitor() *LinuxPerfMonitor {
	return &LinuxPerfMonitor{
		counters: []perfEventConfig{
			{"cycles", unix.PERF_COUNT_HW_CPU_CYCLES},
			{"instructions", unix.PERF_COUNT_HW_INSTRUCTIONS},
		},
	}
}

// Start begins performance counter collection
func (pm *LinuxPerfMonitor) Start() error {
	pm.closeAll()

	pm.fds = make([]int, 0, len(pm.counters))
	for _, counter := range pm.counters {
		attr := &unix.PerfEventAttr{
			Type:   unix.PERF_TYPE_HARDWARE,
			Size:   uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
			Config: counter.config,
			Bits:   unix.PerfBitDisabled | unix.PerfBitInherit | unix.PerfBitExcludeKernel | unix.PerfBitExcludeHv,
		}

		fd, err := unix.PerfEventOpen(attr, 0, -1, -1, unix.PERF_FLAG_FD_CLOEXEC)
		if err != nil {
			pm.closeAll()
			return fmt.Errorf("failed to open perf event %s: %w", counter.name, err)
		}
		pm.fds = append(pm.fds, fd)
	}

	for _, fd := range pm.fds {
		if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_RESET, 0); err != nil {
			pm.closeAll()
			return fmt.Errorf("failed to reset perf event: %w", err)
		}
		if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_ENABLE, 0); err != nil {
			pm.closeAll()
			return fmt.Errorf("failed to enable perf event: %w", err)
		}
	}
	return nil
}

// Stop ends collection and returns counters
func (pm *LinuxPerfMonitor) Stop() (*PerfCounters, error) {
	if len(pm.fds) == 0 {
		return nil, nil
	}
	defer pm.closeAll()

	counters := &PerfCounters{}
	buf := make([]byte, 8)
	for i, fd := range pm.fds {
		_ = unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_DISABLE, 0)

		n, err := unix.Read(fd, buf)
		if err != nil {
			return nil, fmt.Errorf("failed to read perf event %s: %w", pm.counters[i].name, err)
		}
		if n != len(buf) {
			return nil, fmt.Errorf("short read of perf event %s: %d bytes", pm.counters[i].name, n)
		}
		value := binary.NativeEndian.Uint64(buf)
		switch pm.counters[i].name {
		case "cycles":
			counters.Cycles = value
		case "instructions":
			counters.Instructions = value
		}
	}

	counters.derive()
	return counters, nil
}

func (pm *LinuxPerfMonitor) closeAll() {
	for _, fd := range pm.fds {
		unix.Close(fd)
	}
	pm.fds = nil
}
