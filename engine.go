package ledmatrix

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"libdb.so/ledmatrix/ldproto"
)

// Transport is the link to the display. The engine owns its transport and
// closes it when it stops.
type Transport interface {
	ldproto.Sender
	// Close releases the device.
	Close() error
}

// Enqueuer is the producer side of the engine. Clients that only build and
// queue frames should depend on this interface.
type Enqueuer interface {
	Enqueue(f Frame) error
	EnqueueSet(duration time.Duration, buf PixelBuffer, brightness Brightness) error
	EnqueueClear(duration time.Duration) error
	EnqueueInvert(duration time.Duration) error
}

// State is the lifecycle state of an engine.
type State uint8

const (
	// StateIdle is the state of an engine that has not been started.
	StateIdle State = iota
	StateRunning
	StateStopping
	StateStopped
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Stats is a snapshot of the engine counters.
type Stats struct {
	// Iterations is the number of frames paced, including filler frames and
	// split continuations.
	Iterations uint64
	// Applied is the number of frames applied to the display state.
	Applied uint64
	// Splits is the number of times a frame was split.
	Splits uint64
	// TransportErrors is the number of failed flushes.
	TransportErrors uint64
}

// displayState is what is currently shown on the display. It is only ever
// touched by the engine worker.
type displayState struct {
	buffer     PixelBuffer
	brightness Brightness
}

func (s *displayState) setBrightness(b Brightness) {
	switch {
	case b == NoChange:
	case b > Bright:
		s.brightness = Bright
	default:
		s.brightness = b
	}
}

// apply applies a frame to the display state.
func (s *displayState) apply(f Frame) {
	switch f.kind {
	case KindSet:
		s.setBrightness(f.brightness)
		s.buffer = f.payload
	case KindClear:
		s.setBrightness(f.brightness)
		s.buffer.Clear()
	case KindInvert:
		s.setBrightness(f.brightness)
		s.buffer.Invert()
	case KindNoOp, KindLoop, KindBreakIfLast:
		// Looped sequences are not implemented; these frames only pace.
	}
}

// Engine is the animation engine. Producers queue frames from any goroutine
// while a single worker paces them, applies them to the display state and
// flushes the result to the transport.
type Engine struct {
	maxFrame  time.Duration
	logger    *slog.Logger
	queue     *FrameQueue
	transport Transport
	display   displayState

	// sleep paces frames. It is replaced in tests.
	sleep func(time.Duration)

	mu        sync.Mutex
	state     State
	stop      chan struct{}
	done      chan struct{}
	onError   func(error)
	// inHandler is set while the worker runs the error handler.
	inHandler bool
	closeOnce sync.Once
	closeErr  error

	iterations      atomic.Uint64
	applied         atomic.Uint64
	splits          atomic.Uint64
	transportErrors atomic.Uint64
}

var _ Enqueuer = (*Engine)(nil)

// NewEngine creates a new animation engine that renders onto the given
// transport. The engine takes ownership of the transport.
func NewEngine(cfg *Config, transport Transport, logger *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	if transport == nil {
		return nil, errors.New("no transport given")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		maxFrame:  time.Duration(cfg.MaxFrameLength).Truncate(time.Millisecond),
		logger:    logger,
		queue:     NewFrameQueue(),
		transport: transport,
		display:   displayState{brightness: cfg.Brightness},
		sleep:     time.Sleep,
	}, nil
}

// SetErrorHandler sets a function that is called from the worker goroutine
// with every *TransportError. It must be called before Start. The handler may
// call Stop.
func (e *Engine) SetErrorHandler(f func(error)) {
	e.mu.Lock()
	e.onError = f
	e.mu.Unlock()
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Iterations:      e.iterations.Load(),
		Applied:         e.applied.Load(),
		Splits:          e.splits.Load(),
		TransportErrors: e.transportErrors.Load(),
	}
}

// Pending returns the number of queued frames.
func (e *Engine) Pending() int {
	return e.queue.Len()
}

// Discard drops every queued frame and returns how many were dropped. The
// frame in flight is not affected.
func (e *Engine) Discard() int {
	n := e.queue.Reset()
	if n > 0 {
		e.logger.Debug("discarded queued frames", "count", n)
	}
	return n
}

// Start starts the worker goroutine. An engine can only be started once.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateIdle:
	case StateRunning:
		return errors.New("animation engine already running")
	default:
		return ErrStopped
	}

	e.state = StateRunning
	e.stop = make(chan struct{})
	e.done = make(chan struct{})

	e.logger.Info(
		"starting animation engine",
		"max_frame_length", e.maxFrame)

	go e.loop(e.stop, e.done, e.onError)
	return nil
}

// Stop asks the worker to stop and waits for it. The frame in flight is
// paced, applied and flushed before the worker exits, so Stop takes at most
// one maximum frame length plus a flush. The transport is closed afterwards.
// Calling Stop on a stopped engine returns ErrStopped.
//
// Stop may be called from the error handler. It then only asks the worker to
// stop and returns without waiting; the worker closes the transport once the
// handler returns. The same applies to any Stop that races a running
// handler.
func (e *Engine) Stop() error {
	e.mu.Lock()
	switch e.state {
	case StateIdle:
		e.state = StateStopped
		e.mu.Unlock()
		return e.closeTransport()
	case StateRunning:
		e.state = StateStopping
		close(e.stop)
	case StateStopping:
		// Another caller is stopping the engine; wait along with it.
	case StateStopped:
		e.mu.Unlock()
		return ErrStopped
	}
	if e.inHandler {
		e.mu.Unlock()
		return nil
	}
	done := e.done
	e.mu.Unlock()

	<-done
	return e.closeTransport()
}

// Run starts the engine and blocks until the context is canceled or the
// engine is stopped, then stops it.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Start(); err != nil {
		return err
	}

	e.mu.Lock()
	done := e.done
	e.mu.Unlock()

	select {
	case <-ctx.Done():
	case <-done:
		return nil
	}

	e.logger.Debug("context done, stopping animation engine")
	if err := e.Stop(); err != nil && !errors.Is(err, ErrStopped) {
		return errors.Wrap(err, "failed to stop animation engine")
	}

	return ctx.Err()
}

func (e *Engine) closeTransport() error {
	e.closeOnce.Do(func() {
		e.logger.Debug("closing transport")
		if err := e.transport.Close(); err != nil {
			e.closeErr = errors.Wrap(err, "failed to close transport")
		}
	})
	return e.closeErr
}

func (e *Engine) loop(stop <-chan struct{}, done chan<- struct{}, onError func(error)) {
	defer func() {
		if err := e.closeTransport(); err != nil {
			e.logger.Warn(
				"failed to close transport",
				"error", err)
		}

		e.mu.Lock()
		e.state = StateStopped
		e.mu.Unlock()

		e.logger.Info("animation engine stopped")
		close(done)
	}()

	for {
		select {
		case <-stop:
			return
		default:
		}

		if err := e.step(); err != nil {
			e.transportErrors.Add(1)
			e.logger.Warn(
				"failed to update display",
				"error", err)
			if onError != nil {
				e.handleError(onError, err)
			}
		}
	}
}

func (e *Engine) handleError(onError func(error), err error) {
	e.mu.Lock()
	e.inHandler = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.inHandler = false
		e.mu.Unlock()
	}()

	onError(err)
}

// step runs a single scheduling iteration. The returned error is always a
// *TransportError.
func (e *Engine) step() error {
	frame, ok := e.queue.Dequeue()
	if ok {
		e.logger.Debug(
			"dequeued frame",
			"kind", frame.kind,
			"duration", frame.Duration())
	} else {
		frame = Frame{
			kind:       KindNoOp,
			duration:   uint16(e.maxFrame / time.Millisecond),
			brightness: NoChange,
		}
	}

	if frame.Duration() > e.maxFrame {
		rest := frame
		rest.duration -= uint16(e.maxFrame / time.Millisecond)
		rest.continuation = true
		e.queue.Prepend(rest)
		e.splits.Add(1)

		frame.duration = uint16(e.maxFrame / time.Millisecond)
		e.logger.Debug(
			"split frame",
			"kind", frame.kind,
			"remaining", rest.Duration())
	}

	e.iterations.Add(1)
	e.sleep(frame.Duration())

	if !frame.continuation {
		e.display.apply(frame)
		e.applied.Add(1)
	}

	return e.flush()
}

// flush sends the display state to the transport.
func (e *Engine) flush() error {
	level := ldproto.Level(e.display.brightness)
	if err := ldproto.Write(e.transport, ldproto.Rows(e.display.buffer), level); err != nil {
		return &TransportError{Err: err}
	}
	return nil
}

// Enqueue queues a frame. Frames may be queued before the engine is started.
// Frames not built by NewFrame or NewSetFrame are rejected with a
// *ConfigurationError.
func (e *Engine) Enqueue(f Frame) error {
	if !f.valid {
		return configErrorf("frame was not built by NewFrame or NewSetFrame")
	}
	f.continuation = false

	// Holding mu keeps Stop from slipping in between the check and the
	// enqueue.
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state >= StateStopping {
		return ErrStopped
	}
	e.queue.Enqueue(f)
	return nil
}

// EnqueueSet queues a frame that shows buf for the given duration.
func (e *Engine) EnqueueSet(duration time.Duration, buf PixelBuffer, brightness Brightness) error {
	f, err := NewSetFrame(duration, buf, brightness)
	if err != nil {
		return err
	}
	return e.Enqueue(f)
}

// EnqueueClear queues a frame that turns every pixel off.
func (e *Engine) EnqueueClear(duration time.Duration) error {
	f, err := NewFrame(KindClear, duration, NoChange)
	if err != nil {
		return err
	}
	return e.Enqueue(f)
}

// EnqueueInvert queues a frame that flips every pixel.
func (e *Engine) EnqueueInvert(duration time.Duration) error {
	f, err := NewFrame(KindInvert, duration, NoChange)
	if err != nil {
		return err
	}
	return e.Enqueue(f)
}
