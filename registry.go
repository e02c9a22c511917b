package gemmbench

import (
	"fmt"
	"sync"

	"github.com/samber/lo"
)

// Layout names the argument convention a variant is called with.
type Layout int

const (
	// (A[M,K], B[K,N], C[M,N])
	LayoutNatural Layout = iota
	// (A[M,K], B_T[N,K], C[M,N])
	LayoutTransposedB
	// (B_T[N,K], A[M,K], C[M,N]), the fastgemv convention
	LayoutWeightsFirst
	// (A_T[K,M], B_T[N,K], C_T[N,M])
	LayoutColumnMajor
)

func (l Layout) String() string {
	switch l {
	case LayoutNatural:
		return "natural"
	case LayoutTransposedB:
		return "transposed-b"
	case LayoutWeightsFirst:
		return "weights-first"
	case LayoutColumnMajor:
		return "column-major"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// OutputDims returns the output buffer dimensions for shape under l.
func (l Layout) OutputDims(shape Shape) (rows, cols int) {
	if l == LayoutColumnMajor {
		return shape.N, shape.M
	}
	return shape.M, shape.N
}

// Class is the problem class a variant is written for.
type Class int

const (
	ClassGEMM Class = iota // any M
	ClassGEMV              // M must be 1
)

func (c Class) String() string {
	if c == ClassGEMV {
		return "gemv"
	}
	return "gemm"
}

// KernelFunc computes a product into out. Arguments arrive in the
// variant's layout convention. The kernel must not retain any argument
// after it returns.
type KernelFunc func(x, y, out *Matrix) error

// Variant is a named kernel under test.
type Variant struct {
	Name   string
	Class  Class
	Layout Layout

	// Optional constraints; zero means unconstrained.
	MaxM  int // largest supported M
	TileN int // N must be a multiple of TileN
	TileK int // K must be a multiple of TileK

	Kernel KernelFunc
}

// Registry maps variant names to kernels and remembers registration order,
// which is the order variants are checked and timed in.
type Registry struct {
	mu       sync.RWMutex
	variants []Variant
	index    map[string]int
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register adds a variant. Names must be unique and kernels non-nil.
func (r *Registry) Register(v Variant) error {
	if v.Name == "" {
		return NewInvalidArgError("Register", "variant name is empty")
	}
	if v.Kernel == nil {
		return NewInvalidArgError("Register", fmt.Sprintf("variant %s has no kernel", v.Name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.index[v.Name]; dup {
		return NewInvalidArgError("Register", fmt.Sprintf("variant %s already registered", v.Name))
	}
	r.index[v.Name] = len(r.variants)
	r.variants = append(r.variants, v)
	return nil
}

// MustRegister is like Register but panics on error. Intended for kernel
// providers registering a fixed set at startup.
func (r *Registry) MustRegister(v Variant) {
	if err := r.Register(v); err != nil {
		panic(err)
	}
}

// Lookup returns the variant registered under name.
func (r *Registry) Lookup(name string) (Variant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[name]
	if !ok {
		return Variant{}, false
	}
	return r.variants[i], true
}

// Variants returns all variants in registration order.
func (r *Registry) Variants() []Variant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Variant(nil), r.variants...)
}

// Names returns variant names in registration order.
func (r *Registry) Names() []string {
	return lo.Map(r.Variants(), func(v Variant, _ int) string { return v.Name })
}

// Select returns the named variants in the order given, ignoring repeats.
// An empty list selects everything.
func (r *Registry) Select(names ...string) ([]Variant, error) {
	if len(names) == 0 {
		return r.Variants(), nil
	}
	names = lo.Uniq(names)

	missing := lo.Filter(names, func(name string, _ int) bool {
		_, ok := r.Lookup(name)
		return !ok
	})
	if len(missing) > 0 {
		return nil, NewInvalidArgError("Select", fmt.Sprintf("unknown variants %v (registered: %v)", missing, r.Names()))
	}

	return lo.Map(names, func(name string, _ int) Variant {
		v, _ := r.Lookup(name)
		return v
	}), nil
}
