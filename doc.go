// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gemmbench checks and times candidate GEMM and GEMV kernels against
// a trusted reference.
//
// A run is built around a fixed problem shape (M, K, N). The harness fills a
// left operand A (M×K) and a right operand B (K×N) with uniform random values,
// scales a slice of B's columns down by 100 to create a near-singular region,
// and evaluates C = A×B with a float64 reference. Every registered variant is
// then invoked on the same inputs, compared element-wise against the
// reference, and timed with a warm-up / synchronize / time protocol.
//
// Work is issued to a device Stream and completes asynchronously; the harness
// synchronizes before reading results and around every timed call.
//
// Example usage:
//
//	ctx := gemmbench.NewContext()
//	defer ctx.Destroy()
//
//	reg := gemmbench.NewRegistry()
//	compute.Register(reg)
//
//	orch := gemmbench.NewOrchestrator(ctx, reg.Variants())
//	report, err := orch.Run(gemmbench.Shape{M: 2, K: 4096, N: 4096})
//	if err != nil {
//		log.Fatal(err)
//	}
//	report.WriteText(os.Stdout)
package gemmbench
