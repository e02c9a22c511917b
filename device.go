package gemmbench

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// Device represents a compute device. Kernels run on the host CPU; the
// device abstraction keeps the asynchronous issue/synchronize contract.
type Device struct {
	ID       int      // Unique device identifier
	Name     string   // Human-readable device name
	NumCores int      // Number of CPU cores
	Features []string // SIMD extensions available to kernels
}

func (d *Device) String() string {
	if len(d.Features) == 0 {
		return d.Name
	}
	return fmt.Sprintf("%s (%s)", d.Name, joinFeatures(d.Features))
}

// Synchronizer blocks until all previously issued device work completes.
type Synchronizer interface {
	Synchronize() error
}

// Context represents an execution context. It owns the device description
// and the stream all harness work is issued to. A Context must be destroyed
// when no longer needed.
type Context struct {
	device   *Device
	streamID int32
	stream   *Stream
}

// Stream represents an ordered sequence of operations that execute
// asynchronously with respect to the caller. Submit returns as soon as the
// task is queued; Synchronize waits for everything queued so far.
type Stream struct {
	id     int
	tasks  chan task
	wg     sync.WaitGroup
	closed atomic.Bool
	once   sync.Once

	mu  sync.Mutex
	err error // first failure since the last Synchronize
}

type task struct {
	op string
	fn func() error
}

// NewContext creates a context on the host CPU with a running default stream.
func NewContext() *Context {
	ctx := &Context{
		device: &Device{
			ID:       0,
			Name:     "CPU",
			NumCores: runtime.NumCPU(),
			Features: CPUFeatureList(),
		},
	}
	ctx.stream = ctx.CreateStream()
	return ctx
}

// Device returns the device description.
func (ctx *Context) Device() *Device {
	return ctx.device
}

// Stream returns the default stream.
func (ctx *Context) Stream() *Stream {
	return ctx.stream
}

// CreateStream creates a new execution stream
func (ctx *Context) CreateStream() *Stream {
	id := int(atomic.AddInt32(&ctx.streamID, 1))
	stream := &Stream{
		id:    id,
		tasks: make(chan task, 1000),
	}

	// Start worker goroutine for stream
	go stream.worker()

	return stream
}

// Synchronize waits for the default stream to drain and reports any failure
// raised by work issued since the previous Synchronize.
func (ctx *Context) Synchronize() error {
	return ctx.stream.Synchronize()
}

// Destroy stops the default stream after pending work finishes.
func (ctx *Context) Destroy() {
	ctx.stream.Close()
}

// Stream methods

// ID returns the stream identifier
func (s *Stream) ID() int {
	return s.id
}

// worker processes tasks for a stream
func (s *Stream) worker() {
	for t := range s.tasks {
		if err := run(t); err != nil {
			s.fail(err)
		}
		s.wg.Done()
	}
}

// run executes one task, converting a panic into a device error.
func run(t task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewDeviceError(t.op, "kernel panicked", fmt.Errorf("%v", r))
		}
	}()
	if err := t.fn(); err != nil {
		var e *BenchError
		if errors.As(err, &e) {
			return err
		}
		return NewDeviceError(t.op, "kernel failed", err)
	}
	return nil
}

func (s *Stream) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// Submit adds a task to the stream. The task runs after every task
// submitted before it.
func (s *Stream) Submit(op string, fn func() error) {
	if s.closed.Load() {
		s.fail(NewDeviceError(op, "stream is closed", nil))
		return
	}
	s.wg.Add(1)
	s.tasks <- task{op: op, fn: fn}
}

// Synchronize waits for all tasks in the stream to complete
func (s *Stream) Synchronize() error {
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.err
	s.err = nil
	return err
}

// Close drains the stream and stops its worker.
func (s *Stream) Close() {
	s.once.Do(func() {
		s.closed.Store(true)
		s.wg.Wait()
		close(s.tasks)
	})
}
