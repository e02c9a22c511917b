// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compute provides the candidate kernels checked by gemmbench.
//
// The kernels are CPU renditions of the edge GEMM/GEMV family: the names
// encode the tile each kernel is written for (m8n128k64 is an 8×128 output
// tile stepping K by 64, x4 splits K across four accumulators) and the
// calling convention follows the CUDA kernels they stand in for. All of them
// accumulate in float32 and store in the output's element type.
package compute

import "github.com/LynnColeArt/gemmbench"

// Names of the registered variants, in registration order.
const (
	HGEMM          = "hgemm"
	EdgeMM         = "edgemm_m8n128k64x4"
	EdgeMMBT       = "edgemm_m8n128k64x4_bt"
	EdgeMV         = "edgemv_m1n128k64x4"
	FastGEMV       = "fastgemv"
	FastGEMVExtend = "fastgemv_extend"
	SGEMMColMajor  = "sgemm_colmajor"
)

// Variants returns the kernels provided by this package.
func Variants() []gemmbench.Variant {
	return []gemmbench.Variant{
		{Name: HGEMM, Class: gemmbench.ClassGEMM, Layout: gemmbench.LayoutNatural, Kernel: HGemm},
		{Name: EdgeMM, Class: gemmbench.ClassGEMM, Layout: gemmbench.LayoutNatural, TileN: 128, TileK: 64, Kernel: EdgeGemm},
		{Name: EdgeMMBT, Class: gemmbench.ClassGEMM, Layout: gemmbench.LayoutTransposedB, TileN: 128, TileK: 64, Kernel: EdgeGemmBT},
		{Name: EdgeMV, Class: gemmbench.ClassGEMV, Layout: gemmbench.LayoutNatural, TileN: 128, TileK: 64, Kernel: EdgeGemv},
		{Name: FastGEMV, Class: gemmbench.ClassGEMV, Layout: gemmbench.LayoutWeightsFirst, Kernel: FastGemv},
		{Name: FastGEMVExtend, Class: gemmbench.ClassGEMM, Layout: gemmbench.LayoutWeightsFirst, MaxM: 8, Kernel: FastGemvExtend},
		{Name: SGEMMColMajor, Class: gemmbench.ClassGEMM, Layout: gemmbench.LayoutColumnMajor, Kernel: SGemmColMajor},
	}
}

// Register adds every kernel in this package to reg.
func Register(reg *gemmbench.Registry) error {
	for _, v := range Variants() {
		if err := reg.Register(v); err != nil {
			return err
		}
	}
	return nil
}
