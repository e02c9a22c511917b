package compute

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// Column block width handed to each worker. Wider vector units get wider
// blocks so a block still spans several cache lines of output.
var blockN = 128

// Number of concurrent workers per kernel call
var workers = runtime.GOMAXPROCS(0)

// InitCPUFeatures picks block sizes for the detected CPU
func InitCPUFeatures() {
	switch {
	case cpu.X86.HasAVX512F:
		blockN = 256
	case cpu.X86.HasAVX2 && cpu.X86.HasFMA, cpu.ARM64.HasASIMD:
		blockN = 128
	default:
		blockN = 64
	}
}

// init ensures CPU features are detected at package load time
func init() {
	InitCPUFeatures()
}
