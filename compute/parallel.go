package compute

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/LynnColeArt/gemmbench"
)

// parallelFor splits [0, n) into chunks of grain and runs fn on them with at
// most workers goroutines, returning the first error.
func parallelFor(n, grain int, fn func(start, end int) error) error {
	if grain <= 0 {
		grain = 1
	}
	if n <= grain {
		return fn(0, n)
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < n; start += grain {
		end := min(start+grain, n)
		g.Go(func() error {
			return fn(start, end)
		})
	}
	return g.Wait()
}

// checkDims verifies kernel arguments before any output is written.
func checkDims(name string, m *gemmbench.Matrix, rows, cols int) error {
	if m.Rows() != rows || m.Cols() != cols {
		return gemmbench.NewShapeMismatchError(name, fmt.Sprintf("argument is %dx%d, want %dx%d", m.Rows(), m.Cols(), rows, cols))
	}
	return nil
}
