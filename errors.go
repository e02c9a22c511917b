// Package gemmbench structured error types for better error handling
package gemmbench

import (
	"errors"
	"fmt"
)

// ErrorType represents categories of errors
type ErrorType int

const (
	// Non-positive problem dimensions
	ErrTypeShape ErrorType = iota
	// Operands incompatible with a variant's calling convention
	ErrTypeShapeMismatch
	// Buffer allocation failures
	ErrTypeAllocation
	// Failures reported while issuing or synchronizing device work
	ErrTypeDevice
	// Invalid argument errors
	ErrTypeInvalidArg
)

// BenchError represents a structured error with context
type BenchError struct {
	Type    ErrorType
	Op      string // Operation that failed
	Message string // Human-readable message
	Err     error  // Underlying error if any

	// Set once the error reaches the orchestrator.
	Shape   *Shape
	Variant string
}

// Error implements the error interface
func (e *BenchError) Error() string {
	msg := fmt.Sprintf("%s error in %s", e.Type, e.Op)
	if e.Shape != nil || e.Variant != "" {
		msg += " [" + e.where() + "]"
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += fmt.Sprintf(" (caused by: %v)", e.Err)
	}
	return msg
}

func (e *BenchError) where() string {
	switch {
	case e.Shape != nil && e.Variant != "":
		return fmt.Sprintf("shape %s, variant %s", e.Shape, e.Variant)
	case e.Shape != nil:
		return fmt.Sprintf("shape %s", e.Shape)
	default:
		return fmt.Sprintf("variant %s", e.Variant)
	}
}

// Unwrap allows error chain inspection
func (e *BenchError) Unwrap() error {
	return e.Err
}

// String returns the error type as a string
func (t ErrorType) String() string {
	switch t {
	case ErrTypeShape:
		return "Shape"
	case ErrTypeShapeMismatch:
		return "ShapeMismatch"
	case ErrTypeAllocation:
		return "Allocation"
	case ErrTypeDevice:
		return "Device"
	case ErrTypeInvalidArg:
		return "InvalidArgument"
	default:
		return "Unknown"
	}
}

// Common error constructors

// NewShapeError creates an invalid-dimension error
func NewShapeError(op string, message string) error {
	return &BenchError{
		Type:    ErrTypeShape,
		Op:      op,
		Message: message,
	}
}

// NewShapeMismatchError creates an error for operands a variant cannot accept
func NewShapeMismatchError(op string, message string) error {
	return &BenchError{
		Type:    ErrTypeShapeMismatch,
		Op:      op,
		Message: message,
	}
}

// NewAllocationError creates a buffer allocation error
func NewAllocationError(op string, message string, err error) error {
	return &BenchError{
		Type:    ErrTypeAllocation,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewDeviceError creates an error for failed device work
func NewDeviceError(op string, message string, err error) error {
	return &BenchError{
		Type:    ErrTypeDevice,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewInvalidArgError creates an invalid argument error
func NewInvalidArgError(op string, message string) error {
	return &BenchError{
		Type:    ErrTypeInvalidArg,
		Op:      op,
		Message: message,
	}
}

// ErrDoubleRelease indicates a buffer was returned to its pool twice
var ErrDoubleRelease = NewAllocationError("Release", "buffer released twice", nil)

func errorType(err error) (ErrorType, bool) {
	var e *BenchError
	if errors.As(err, &e) {
		return e.Type, true
	}
	return 0, false
}

// IsShapeError checks if an error is a shape error
func IsShapeError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeShape
}

// IsShapeMismatchError checks if an error is a shape mismatch error
func IsShapeMismatchError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeShapeMismatch
}

// IsAllocationError checks if an error is an allocation error
func IsAllocationError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeAllocation
}

// IsDeviceError checks if an error is a device error
func IsDeviceError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeDevice
}

// IsFatal reports whether err must terminate the whole run. Shape errors
// only abort the variant being evaluated; anything unclassified is treated
// as a device failure.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !IsShapeError(err) && !IsShapeMismatchError(err)
}

// annotate attaches the run shape and variant to err. Errors that are not
// already a *BenchError are reported as device failures.
func annotate(err error, shape Shape, variant string) error {
	var e *BenchError
	if !errors.As(err, &e) {
		e = &BenchError{Type: ErrTypeDevice, Op: "Run", Message: "device failure", Err: err}
	} else {
		cp := *e
		e = &cp
	}
	s := shape
	e.Shape = &s
	e.Variant = variant
	return e
}
