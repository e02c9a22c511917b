package gemmbench

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckShape(t *testing.T) {
	tests := []struct {
		name    string
		v       Variant
		shape   Shape
		wantErr func(error) bool
	}{
		{"GEMMAnyM", Variant{Class: ClassGEMM}, Shape{M: 7, K: 3, N: 5}, nil},
		{"GEMVSingleRow", Variant{Class: ClassGEMV}, Shape{M: 1, K: 64, N: 128}, nil},
		{"GEMVTwoRows", Variant{Class: ClassGEMV}, Shape{M: 2, K: 64, N: 128}, IsShapeMismatchError},
		{"MaxM", Variant{MaxM: 8}, Shape{M: 8, K: 4, N: 4}, nil},
		{"OverMaxM", Variant{MaxM: 8}, Shape{M: 9, K: 4, N: 4}, IsShapeMismatchError},
		{"TileN", Variant{TileN: 128, TileK: 64}, Shape{M: 2, K: 64, N: 100}, IsShapeMismatchError},
		{"TileK", Variant{TileN: 128, TileK: 64}, Shape{M: 2, K: 100, N: 128}, IsShapeMismatchError},
		{"Tiled", Variant{TileN: 128, TileK: 64}, Shape{M: 2, K: 4096, N: 4096}, nil},
		{"NonPositive", Variant{}, Shape{M: 0, K: 4, N: 4}, IsShapeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.v.Name = tt.name
			err := CheckShape(tt.v, tt.shape)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, tt.wantErr(err), "got %v", err)
		})
	}
}

func TestArgumentsByLayout(t *testing.T) {
	fx := buildFixture(t, Shape{M: 2, K: 4, N: 6}, DefaultFixtureOptions())

	tests := []struct {
		layout Layout
		x, y   *Matrix
	}{
		{LayoutNatural, fx.A, fx.B},
		{LayoutTransposedB, fx.A, fx.BT},
		{LayoutWeightsFirst, fx.BT, fx.A},
		{LayoutColumnMajor, fx.AT, fx.BT},
	}
	for _, tt := range tests {
		t.Run(tt.layout.String(), func(t *testing.T) {
			x, y := Arguments(Variant{Layout: tt.layout}, fx)
			assert.Same(t, tt.x, x)
			assert.Same(t, tt.y, y)
		})
	}
}

func TestInvoke(t *testing.T) {
	ctx := NewContext()
	defer ctx.Destroy()
	iv := NewInvoker(ctx.Stream())

	fx := buildFixture(t, Shape{M: 2, K: 4, N: 6}, DefaultFixtureOptions())
	out, err := fx.NewOutput(LayoutNatural)
	require.NoError(t, err)

	var gotX, gotY, gotOut *Matrix
	v := Variant{Name: "probe", Layout: LayoutWeightsFirst, Kernel: func(x, y, o *Matrix) error {
		gotX, gotY, gotOut = x, y, o
		return nil
	}}

	require.NoError(t, iv.Invoke(v, fx, out))
	require.NoError(t, ctx.Synchronize())
	assert.Same(t, fx.BT, gotX)
	assert.Same(t, fx.A, gotY)
	assert.Same(t, out, gotOut)
}

func TestInvokeRejectsBeforeIssuing(t *testing.T) {
	ctx := NewContext()
	defer ctx.Destroy()
	iv := NewInvoker(ctx.Stream())

	fx := buildFixture(t, Shape{M: 2, K: 64, N: 128}, DefaultFixtureOptions())
	out, err := fx.NewOutput(LayoutNatural)
	require.NoError(t, err)

	called := false
	kernel := func(x, y, o *Matrix) error {
		called = true
		return nil
	}

	gemv := Variant{Name: "edgemv", Class: ClassGEMV, Kernel: kernel}
	assert.True(t, IsShapeMismatchError(iv.Invoke(gemv, fx, out)))

	colMajor := Variant{Name: "colmajor", Layout: LayoutColumnMajor, Kernel: kernel}
	assert.True(t, IsShapeMismatchError(iv.Invoke(colMajor, fx, out)), "output must be N×M")

	require.NoError(t, ctx.Synchronize())
	assert.False(t, called)
}

func TestInvokeReference(t *testing.T) {
	ctx := NewContext()
	defer ctx.Destroy()

	fx := buildFixture(t, Shape{M: 2, K: 3, N: 4}, FixtureOptions{DType: Float32, Seed: 1, High: 1})
	out, err := fx.NewOutput(LayoutNatural)
	require.NoError(t, err)

	call := NewInvoker(ctx.Stream()).Call(ReferenceVariant(), fx, out)
	require.NoError(t, call())
	require.NoError(t, ctx.Synchronize())

	want := newMatrix(2, 4, Float32)
	require.NoError(t, Reference{}.GEMM(fx.A, fx.B, want))
	assert.Equal(t, want.Float32s(), out.Float32s())
}
