package gemmbench

import "fmt"

// Invoker issues variant calls to a stream with arguments arranged for each
// variant's layout. It never waits for the call to finish.
type Invoker struct {
	stream *Stream
}

// NewInvoker creates an invoker that issues to stream.
func NewInvoker(stream *Stream) *Invoker {
	return &Invoker{stream: stream}
}

// CheckShape reports whether v can run the problem shape. It is the only
// shape validation done before device work is issued.
func CheckShape(v Variant, shape Shape) error {
	if err := shape.Validate(); err != nil {
		return err
	}
	op := "Invoke(" + v.Name + ")"
	if v.Class == ClassGEMV && shape.M != 1 {
		return NewShapeMismatchError(op, fmt.Sprintf("vector variant expects M=1, got M=%d", shape.M))
	}
	if v.MaxM > 0 && shape.M > v.MaxM {
		return NewShapeMismatchError(op, fmt.Sprintf("supports M<=%d, got M=%d", v.MaxM, shape.M))
	}
	if v.TileN > 0 && shape.N%v.TileN != 0 {
		return NewShapeMismatchError(op, fmt.Sprintf("N=%d is not a multiple of %d", shape.N, v.TileN))
	}
	if v.TileK > 0 && shape.K%v.TileK != 0 {
		return NewShapeMismatchError(op, fmt.Sprintf("K=%d is not a multiple of %d", shape.K, v.TileK))
	}
	return nil
}

// Arguments returns the (x, y) operands v expects from the fixture.
func Arguments(v Variant, fx *Fixture) (x, y *Matrix) {
	switch v.Layout {
	case LayoutTransposedB:
		return fx.A, fx.BT
	case LayoutWeightsFirst:
		return fx.BT, fx.A
	case LayoutColumnMajor:
		return fx.AT, fx.BT
	default:
		return fx.A, fx.B
	}
}

// Invoke issues one call of v on the fixture's operands, writing into out.
// Shape problems are reported before anything is issued; kernel failures
// surface from the next Synchronize.
func (iv *Invoker) Invoke(v Variant, fx *Fixture, out *Matrix) error {
	if err := CheckShape(v, fx.Shape); err != nil {
		return err
	}
	rows, cols := v.Layout.OutputDims(fx.Shape)
	if out.Rows() != rows || out.Cols() != cols {
		return NewShapeMismatchError("Invoke("+v.Name+")",
			fmt.Sprintf("%s output must be %dx%d, got %dx%d", v.Layout, rows, cols, out.Rows(), out.Cols()))
	}

	x, y := Arguments(v, fx)
	iv.stream.Submit(v.Name, func() error {
		return v.Kernel(x, y, out)
	})
	return nil
}

// Call returns a closure issuing v once, for use with Timer.Measure.
func (iv *Invoker) Call(v Variant, fx *Fixture, out *Matrix) func() error {
	return func() error {
		return iv.Invoke(v, fx, out)
	}
}
