package gemmbench

import (
	"io"
	"log"
)

// Orchestrator sequences a run for one shape: fixture, reference, then
// correctness and timing of each variant in a fixed order.
type Orchestrator struct {
	ctx      *Context
	variants []Variant
	pool     *MemoryPool
	tol      Tolerance
	timer    *Timer
	fixture  FixtureOptions
	profiler Profiler
	logger   *log.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithTolerance sets the comparison tolerances.
func WithTolerance(tol Tolerance) Option {
	return func(o *Orchestrator) { o.tol = tol }
}

// WithTimer replaces the default 10/100 iteration timer.
func WithTimer(t *Timer) Option {
	return func(o *Orchestrator) { o.timer = t }
}

// WithFixtureOptions sets element type, seed and value range of operands.
func WithFixtureOptions(opts FixtureOptions) Option {
	return func(o *Orchestrator) { o.fixture = opts }
}

// WithMemoryPool sets the pool buffers are allocated from.
func WithMemoryPool(pool *MemoryPool) Option {
	return func(o *Orchestrator) { o.pool = pool }
}

// WithProfiler brackets each variant's correctness call with p.
func WithProfiler(p Profiler) Option {
	return func(o *Orchestrator) { o.profiler = p }
}

// WithLogger sets the progress logger. Nil discards progress output.
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) {
		if l == nil {
			l = log.New(io.Discard, "", 0)
		}
		o.logger = l
	}
}

// NewOrchestrator creates an orchestrator running variants, in the order
// given, on ctx.
func NewOrchestrator(ctx *Context, variants []Variant, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		ctx:      ctx,
		variants: append([]Variant(nil), variants...),
		pool:     NewMemoryPool(DefaultMemoryLimit),
		tol:      DefaultTolerance(),
		fixture:  DefaultFixtureOptions(),
		profiler: NopProfiler(),
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.timer == nil {
		o.timer = NewTimer(ctx)
	}
	return o
}

// Run benchmarks every variant on shape.
//
// Shape problems with a single variant are logged and recorded as skipped.
// Allocation and device failures end the run; the returned error then
// names the shape and the variant being evaluated.
func (o *Orchestrator) Run(shape Shape) (*Report, error) {
	if err := o.tol.Validate(); err != nil {
		return nil, annotate(err, shape, "")
	}

	fx, err := BuildFixture(o.pool, shape, o.fixture)
	if err != nil {
		return nil, annotate(err, shape, "")
	}
	defer fx.Release()

	report := &Report{
		Shape:     shape,
		DType:     fx.DType.String(),
		Device:    o.ctx.Device().String(),
		Tolerance: o.tol,
		Timer:     TimerInfo{Warmup: o.timer.Warmup(), Measured: o.timer.Measured()},
	}

	invoker := NewInvoker(o.ctx.Stream())
	ref := ReferenceVariant()
	want, err := fx.NewOutput(ref.Layout)
	if err != nil {
		return nil, annotate(err, shape, ref.Name)
	}
	if err := invoker.Invoke(ref, fx, want); err != nil {
		return nil, annotate(err, shape, ref.Name)
	}
	if err := o.ctx.Synchronize(); err != nil {
		return nil, annotate(err, shape, ref.Name)
	}
	o.logger.Printf("shape %s: reference computed", shape)

	report.Reference, err = o.timer.Measure(invoker.Call(ref, fx, want))
	if err != nil {
		return nil, annotate(err, shape, ref.Name)
	}
	o.logger.Printf("shape %s: %s %s", shape, ref.Name, report.Reference)

	for _, v := range o.variants {
		res, err := o.runVariant(invoker, v, fx, want)
		if err != nil {
			return report, annotate(err, shape, v.Name)
		}
		report.Results = append(report.Results, res)
	}

	allocated, peak := o.pool.GetStats()
	report.PeakBytes = peak
	o.logger.Printf("shape %s: done, %d bytes live, %d peak", shape, allocated, peak)
	return report, nil
}

// runVariant checks and times one variant. A non-nil error is fatal.
func (o *Orchestrator) runVariant(invoker *Invoker, v Variant, fx *Fixture, want *Matrix) (VariantResult, error) {
	res := VariantResult{
		Name:   v.Name,
		Class:  v.Class.String(),
		Layout: v.Layout.String(),
	}

	skip := func(err error) (VariantResult, error) {
		o.logger.Printf("shape %s: skipping %s: %v", fx.Shape, v.Name, err)
		res.Skipped = true
		res.Error = err.Error()
		return res, nil
	}

	if err := CheckShape(v, fx.Shape); err != nil {
		return skip(err)
	}

	out, err := fx.NewOutput(v.Layout)
	if err != nil {
		return res, err
	}

	profiling := o.startProfiler()
	if err := invoker.Invoke(v, fx, out); err != nil {
		o.stopProfiler(profiling)
		if !IsFatal(err) {
			return skip(err)
		}
		return res, err
	}
	if err := o.ctx.Synchronize(); err != nil {
		o.stopProfiler(profiling)
		if !IsFatal(err) {
			return skip(err)
		}
		return res, err
	}
	res.Profile = o.stopProfiler(profiling)

	got := out
	if v.Layout == LayoutColumnMajor {
		if got, err = fx.NewOutput(LayoutNatural); err != nil {
			return res, err
		}
		if err := out.TransposeInto(got); err != nil {
			return res, err
		}
	}
	cmp, err := Compare(got, want, o.tol)
	if err != nil {
		return skip(err)
	}
	res.Comparison = &cmp
	if !cmp.Pass {
		o.logger.Printf("shape %s: %s FAILED verification, timing is informational: %s", fx.Shape, v.Name, cmp)
	}

	timing, err := o.timer.Measure(invoker.Call(v, fx, out))
	if err != nil {
		return res, err
	}
	res.Timing = &timing
	o.logger.Printf("shape %s: %s %s", fx.Shape, v.Name, timing)
	return res, nil
}

func (o *Orchestrator) startProfiler() bool {
	if err := o.profiler.Start(); err != nil {
		o.logger.Printf("profiler unavailable, continuing without counters: %v", err)
		o.profiler = NopProfiler()
		return false
	}
	return true
}

func (o *Orchestrator) stopProfiler(started bool) *PerfCounters {
	if !started {
		return nil
	}
	counters, err := o.profiler.Stop()
	if err != nil {
		o.logger.Printf("profiler: %v", err)
		return nil
	}
	return counters
}
