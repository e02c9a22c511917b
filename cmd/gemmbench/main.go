// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command gemmbench checks candidate GEMM/GEMV kernels against the
// reference and reports their latency.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/LynnColeArt/gemmbench"
	"github.com/LynnColeArt/gemmbench/compute"
)

type options struct {
	m, k, n  int
	dtype    string
	variants []string
	rtol     float64
	atol     float64
	seed     uint64
	memLimit int64
	json     bool
	profile  bool
	strict   bool
	verbose  bool
}

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// mismatchError signals that --strict saw a failed verdict.
type mismatchError struct {
	variants []string
}

func (e *mismatchError) Error() string {
	return fmt.Sprintf("verification failed for %s", strings.Join(e.variants, ", "))
}

func exitCode(err error) int {
	if _, ok := err.(*mismatchError); ok {
		return 2
	}
	return 1
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	cfg := gemmbench.DefaultConfig()
	opts := options{
		m:        cfg.Shape.M,
		k:        cfg.Shape.K,
		n:        cfg.Shape.N,
		dtype:    cfg.DType.String(),
		rtol:     cfg.Tolerance.RelTol,
		atol:     cfg.Tolerance.AbsTol,
		seed:     cfg.Seed,
		memLimit: cfg.MemoryLimit,
	}

	root := &cobra.Command{
		Use:           "gemmbench",
		Short:         "Check and time GEMM/GEMV kernel variants against a reference",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(opts, stdout, stderr)
			if err != nil {
				fmt.Fprintf(stderr, "gemmbench: %v\n", err)
			}
			return err
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	bindFlags(root.Flags(), &opts)

	root.AddCommand(newListCommand(stdout), newVersionCommand(stdout))
	return root
}

func bindFlags(fs *pflag.FlagSet, opts *options) {
	fs.IntVarP(&opts.m, "m", "m", opts.m, "rows of the left operand")
	fs.IntVarP(&opts.k, "k", "k", opts.k, "shared dimension")
	fs.IntVarP(&opts.n, "n", "n", opts.n, "columns of the right operand")
	fs.StringVar(&opts.dtype, "dtype", opts.dtype, "element type (float16, float32)")
	fs.StringSliceVar(&opts.variants, "variants", nil, "variants to run, in order (default: all registered)")
	fs.Float64Var(&opts.rtol, "rtol", opts.rtol, "relative tolerance")
	fs.Float64Var(&opts.atol, "atol", opts.atol, "absolute tolerance")
	fs.Uint64Var(&opts.seed, "seed", opts.seed, "operand generator seed")
	fs.Int64Var(&opts.memLimit, "mem-limit", opts.memLimit, "device memory budget in bytes (0 = unlimited)")
	fs.BoolVar(&opts.json, "json", false, "print the report as JSON")
	fs.BoolVar(&opts.profile, "profile", false, "collect hardware counters around each correctness call")
	fs.BoolVar(&opts.strict, "strict", false, "exit with status 2 if any variant fails verification")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "log progress to stderr")
}

func run(opts options, stdout, stderr io.Writer) error {
	dtype, err := gemmbench.ParseDType(opts.dtype)
	if err != nil {
		return err
	}
	shape := gemmbench.Shape{M: opts.m, K: opts.k, N: opts.n}
	tol := gemmbench.Tolerance{RelTol: opts.rtol, AbsTol: opts.atol}

	reg := gemmbench.NewRegistry()
	if err := compute.Register(reg); err != nil {
		return err
	}
	variants, err := reg.Select(opts.variants...)
	if err != nil {
		return err
	}

	ctx := gemmbench.NewContext()
	defer ctx.Destroy()

	logger := log.New(io.Discard, "", 0)
	if opts.verbose {
		logger = log.New(stderr, "gemmbench: ", log.LstdFlags)
	}

	fixture := gemmbench.DefaultFixtureOptions()
	fixture.DType = dtype
	fixture.Seed = opts.seed

	runOpts := []gemmbench.Option{
		gemmbench.WithTolerance(tol),
		gemmbench.WithFixtureOptions(fixture),
		gemmbench.WithMemoryPool(gemmbench.NewMemoryPool(opts.memLimit)),
		gemmbench.WithLogger(logger),
	}
	if opts.profile {
		runOpts = append(runOpts, gemmbench.WithProfiler(gemmbench.NewProfiler()))
	}

	report, err := gemmbench.NewOrchestrator(ctx, variants, runOpts...).Run(shape)
	if err != nil {
		return err
	}

	if opts.json {
		err = report.WriteJSON(stdout)
	} else {
		err = report.WriteText(stdout)
	}
	if err != nil {
		return err
	}

	if failed := report.Failed(); opts.strict && len(failed) > 0 {
		return &mismatchError{variants: failed}
	}
	return nil
}

func newListCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered variants",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := gemmbench.NewRegistry()
			if err := compute.Register(reg); err != nil {
				return err
			}
			for _, v := range reg.Variants() {
				constraints := ""
				if v.MaxM > 0 {
					constraints += fmt.Sprintf(" M<=%d", v.MaxM)
				}
				if v.TileN > 0 || v.TileK > 0 {
					constraints += fmt.Sprintf(" N%%%d K%%%d", v.TileN, v.TileK)
				}
				fmt.Fprintf(stdout, "%-24s %-5s %-14s%s\n", v.Name, v.Class, v.Layout, constraints)
			}
			return nil
		},
	}
}

func newVersionCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gemmbench version",
		Run: func(cmd *cobra.Command, args []string) {
			version, sum := gemmbench.Version()
			if version == "" {
				version = "(devel)"
			}
			fmt.Fprintf(stdout, "gemmbench %s %s\n", version, sum)
		},
	}
}
