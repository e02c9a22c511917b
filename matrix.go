package gemmbench

import (
	"fmt"
	"strings"

	"github.com/x448/float16"
)

// DType is the element type of a Matrix.
type DType int

const (
	Float16 DType = iota // IEEE 754 binary16
	Float32              // IEEE 754 binary32
)

// Size returns the element size in bytes.
func (d DType) Size() int {
	if d == Float16 {
		return 2
	}
	return 4
}

func (d DType) String() string {
	switch d {
	case Float16:
		return "float16"
	case Float32:
		return "float32"
	default:
		return fmt.Sprintf("DType(%d)", int(d))
	}
}

// ParseDType parses the names accepted on the command line.
func ParseDType(s string) (DType, error) {
	switch strings.ToLower(s) {
	case "float16", "fp16", "f16", "half":
		return Float16, nil
	case "float32", "fp32", "f32", "float":
		return Float32, nil
	}
	return 0, NewInvalidArgError("ParseDType", fmt.Sprintf("unknown element type %q", s))
}

// Round returns v rounded to the precision of d.
func (d DType) Round(v float32) float32 {
	if d == Float16 {
		return float16.Fromfloat32(v).Float32()
	}
	return v
}

// Matrix is a dense row-major buffer. Values are stored in the element type;
// At and Set convert through float32.
type Matrix struct {
	rows, cols int
	dtype      DType
	half       []float16.Float16
	full       []float32
}

func newMatrix(rows, cols int, dtype DType) *Matrix {
	m := &Matrix{rows: rows, cols: cols, dtype: dtype}
	if dtype == Float16 {
		m.half = make([]float16.Float16, rows*cols)
	} else {
		m.full = make([]float32, rows*cols)
	}
	return m
}

// Rows returns the number of rows
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns
func (m *Matrix) Cols() int { return m.cols }

// DType returns the element type
func (m *Matrix) DType() DType { return m.dtype }

// Len returns the number of elements
func (m *Matrix) Len() int { return m.rows * m.cols }

// Bytes returns the storage size in bytes
func (m *Matrix) Bytes() int64 { return int64(m.Len()) * int64(m.dtype.Size()) }

// At returns element (i, j).
func (m *Matrix) At(i, j int) float32 {
	return m.AtIndex(i*m.cols + j)
}

// Set stores v at (i, j), rounding to the element type.
func (m *Matrix) Set(i, j int, v float32) {
	m.SetIndex(i*m.cols+j, v)
}

// AtIndex returns the element at a flat row-major index.
func (m *Matrix) AtIndex(idx int) float32 {
	if m.half != nil {
		return m.half[idx].Float32()
	}
	return m.full[idx]
}

// SetIndex stores v at a flat row-major index.
func (m *Matrix) SetIndex(idx int, v float32) {
	if m.half != nil {
		m.half[idx] = float16.Fromfloat32(v)
		return
	}
	m.full[idx] = v
}

// Row decodes row i into dst, which must hold Cols elements.
func (m *Matrix) Row(i int, dst []float32) {
	off := i * m.cols
	if m.half != nil {
		for j := range dst[:m.cols] {
			dst[j] = m.half[off+j].Float32()
		}
		return
	}
	copy(dst[:m.cols], m.full[off:off+m.cols])
}

// SetRow encodes src into row i.
func (m *Matrix) SetRow(i int, src []float32) {
	off := i * m.cols
	if m.half != nil {
		for j, v := range src[:m.cols] {
			m.half[off+j] = float16.Fromfloat32(v)
		}
		return
	}
	copy(m.full[off:off+m.cols], src[:m.cols])
}

// Float32s returns a decoded row-major copy of the contents.
func (m *Matrix) Float32s() []float32 {
	if m.half == nil {
		return append([]float32(nil), m.full...)
	}
	out := make([]float32, len(m.half))
	for i, h := range m.half {
		out[i] = h.Float32()
	}
	return out
}

// Float64s returns a decoded row-major copy widened to float64.
func (m *Matrix) Float64s() []float64 {
	out := make([]float64, m.Len())
	for i := range out {
		out[i] = float64(m.AtIndex(i))
	}
	return out
}

// SetFloat64s encodes a row-major slice of Len elements.
func (m *Matrix) SetFloat64s(src []float64) {
	for i, v := range src[:m.Len()] {
		m.SetIndex(i, float32(v))
	}
}

// Zero clears every element.
func (m *Matrix) Zero() {
	clear(m.half)
	clear(m.full)
}

// TransposeInto writes the transpose of m into dst, which must be Cols×Rows
// and of the same element type.
func (m *Matrix) TransposeInto(dst *Matrix) error {
	if dst.rows != m.cols || dst.cols != m.rows {
		return NewShapeMismatchError("Transpose",
			fmt.Sprintf("destination is %dx%d, want %dx%d", dst.rows, dst.cols, m.cols, m.rows))
	}
	if dst.dtype != m.dtype {
		return NewInvalidArgError("Transpose", fmt.Sprintf("element type %s != %s", dst.dtype, m.dtype))
	}
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			if m.half != nil {
				dst.half[j*dst.cols+i] = m.half[i*m.cols+j]
			} else {
				dst.full[j*dst.cols+i] = m.full[i*m.cols+j]
			}
		}
	}
	return nil
}

func (m *Matrix) String() string {
	return fmt.Sprintf("Matrix(%dx%d %s)", m.rows, m.cols, m.dtype)
}
