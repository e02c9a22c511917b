package gemmbench

import (
	"strings"

	"golang.org/x/sys/cpu"
)

// CPUFeatures tracks instruction set extensions relevant to GEMM kernels
type CPUFeatures struct {
	HasAVX      bool
	HasAVX2     bool
	HasFMA      bool
	HasF16C     bool // x86 has no direct flag; AVX2+FMA parts ship it
	HasAVX512F  bool // Foundation
	HasAVX512BF bool // BF16 dot products
	HasASIMD    bool // arm64 Advanced SIMD
	HasASIMDHP  bool // arm64 half precision arithmetic
}

// Global CPU feature detection
var cpuFeatures CPUFeatures

func init() {
	detectCPUFeatures()
}

// detectCPUFeatures populates the global cpuFeatures struct
func detectCPUFeatures() {
	cpuFeatures = CPUFeatures{
		HasAVX:      cpu.X86.HasAVX,
		HasAVX2:     cpu.X86.HasAVX2,
		HasFMA:      cpu.X86.HasFMA,
		HasF16C:     cpu.X86.HasAVX2 && cpu.X86.HasFMA,
		HasAVX512F:  cpu.X86.HasAVX512F,
		HasAVX512BF: cpu.X86.HasAVX512BF16,
		HasASIMD:    cpu.ARM64.HasASIMD,
		HasASIMDHP:  cpu.ARM64.HasASIMDHP,
	}
}

// CPUFeatureList returns the detected extensions in a fixed order.
func CPUFeatureList() []string {
	var features []string
	add := func(ok bool, name string) {
		if ok {
			features = append(features, name)
		}
	}
	add(cpuFeatures.HasAVX, "AVX")
	add(cpuFeatures.HasAVX2, "AVX2")
	add(cpuFeatures.HasFMA, "FMA")
	add(cpuFeatures.HasF16C, "F16C")
	add(cpuFeatures.HasAVX512F, "AVX512F")
	add(cpuFeatures.HasAVX512BF, "AVX512BF16")
	add(cpuFeatures.HasASIMD, "ASIMD")
	add(cpuFeatures.HasASIMDHP, "ASIMDHP")
	return features
}

// HasNativeHalf reports whether the CPU can convert or compute in half
// precision without a software fallback.
func HasNativeHalf() bool {
	return cpuFeatures.HasF16C || cpuFeatures.HasASIMDHP
}

func joinFeatures(features []string) string {
	return strings.Join(features, ", ")
}
