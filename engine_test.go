package ledmatrix

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"libdb.so/ledmatrix/ldproto"
)

type fakeTransport struct {
	mu     sync.Mutex
	msgs   []ldproto.Message
	fail   error
	closed int
}

func (t *fakeTransport) SendControlMessage(msg []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail != nil {
		return t.fail
	}
	t.msgs = append(t.msgs, ldproto.Message(msg))
	return nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed++
	return nil
}

func (t *fakeTransport) closeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// last decodes the most recent full display update.
func (t *fakeTransport) last(tb testing.TB) (PixelBuffer, ldproto.Level) {
	tb.Helper()

	t.mu.Lock()
	defer t.mu.Unlock()

	require.GreaterOrEqual(tb, len(t.msgs), ldproto.NumMessages, "no display update sent")
	return decodeUpdate(tb, t.msgs[len(t.msgs)-ldproto.NumMessages:])
}

func decodeUpdate(tb testing.TB, msgs []ldproto.Message) (PixelBuffer, ldproto.Level) {
	tb.Helper()

	var buf PixelBuffer
	var level ldproto.Level
	for _, m := range msgs {
		d, err := ldproto.Decode(m)
		require.NoError(tb, err)
		buf[d.Row] = d.Rows[0]
		if d.Paired {
			buf[d.Row+1] = d.Rows[1]
		}
		level = d.Level
	}
	return buf, level
}

// sleepRecorder replaces the engine sleep and records every duration.
type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.mu.Lock()
	s.sleeps = append(s.sleeps, d)
	s.mu.Unlock()
}

func newTestEngine(t *testing.T) (*Engine, *fakeTransport, *sleepRecorder) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Transport = SimTransport

	tr := &fakeTransport{}
	e, err := NewEngine(cfg, tr, nil)
	require.NoError(t, err)

	s := &sleepRecorder{}
	e.sleep = s.sleep
	return e, tr, s
}

// wire drops column 21, which the protocol does not carry.
func wire(b PixelBuffer) PixelBuffer {
	for i := range b {
		b[i] &= ColumnMask >> 1
	}
	return b
}

// pattern has a few pixels off column 21 so it survives the wire.
var pattern = PixelBuffer{0x1, 0x2, 0x4, 0x8, 0x10, 0x20, 0x3fff}

func TestNewEngine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFrameLength = 0

	_, err := NewEngine(cfg, &fakeTransport{}, nil)
	assert.Error(t, err)

	_, err = NewEngine(DefaultConfig(), nil, nil)
	assert.Error(t, err)

	e, err := NewEngine(DefaultConfig(), &fakeTransport{}, nil)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, e.State())
	assert.Equal(t, Bright, e.display.brightness)
}

func TestEngineFiller(t *testing.T) {
	e, tr, s := newTestEngine(t)

	require.NoError(t, e.step())

	assert.Equal(t, []time.Duration{DefaultMaxFrameLength}, s.sleeps)
	buf, level := tr.last(t)
	assert.True(t, buf.IsZero())
	assert.Equal(t, ldproto.LevelBright, level)

	assert.Equal(t, Stats{Iterations: 1, Applied: 1}, e.Stats())
}

func TestEngineSplit(t *testing.T) {
	e, tr, s := newTestEngine(t)

	require.NoError(t, e.EnqueueSet(250*time.Millisecond, pattern, Medium))
	require.NoError(t, e.EnqueueInvert(0))

	for i := 0; i < 3; i++ {
		require.NoError(t, e.step())
		buf, level := tr.last(t)
		assert.Equal(t, pattern, buf, "iteration %d", i)
		assert.Equal(t, ldproto.LevelMedium, level, "iteration %d", i)
	}

	assert.Equal(t,
		[]time.Duration{100 * time.Millisecond, 100 * time.Millisecond, 50 * time.Millisecond},
		s.sleeps)
	assert.Equal(t, Stats{Iterations: 3, Applied: 1, Splits: 2}, e.Stats())

	// The invert queued behind the long frame runs only after it.
	require.NoError(t, e.step())
	buf, _ := tr.last(t)
	want := pattern
	want.Invert()
	assert.Equal(t, wire(want), buf)
	assert.Equal(t, 0, e.Pending())
}

func TestEngineSplitNeverAppliesTwice(t *testing.T) {
	e, tr, _ := newTestEngine(t)

	// An invert applied twice would restore the pattern.
	require.NoError(t, e.EnqueueSet(0, pattern, NoChange))
	require.NoError(t, e.EnqueueInvert(350*time.Millisecond))

	for i := 0; i < 5; i++ {
		require.NoError(t, e.step())
	}

	buf, _ := tr.last(t)
	want := pattern
	want.Invert()
	assert.Equal(t, wire(want), buf)
	assert.Equal(t, uint64(3), e.Stats().Splits)
	assert.Equal(t, uint64(2), e.Stats().Applied)
}

func TestEngineBrightnessPersists(t *testing.T) {
	e, tr, _ := newTestEngine(t)

	require.NoError(t, e.EnqueueSet(10*time.Millisecond, pattern, Dim))
	require.NoError(t, e.EnqueueClear(10*time.Millisecond))

	require.NoError(t, e.step())
	buf, level := tr.last(t)
	assert.Equal(t, pattern, buf)
	assert.Equal(t, ldproto.LevelDim, level)

	require.NoError(t, e.step())
	buf, level = tr.last(t)
	assert.True(t, buf.IsZero())
	assert.Equal(t, ldproto.LevelDim, level, "clear must keep the brightness")

	// Filler frames keep it too.
	require.NoError(t, e.step())
	_, level = tr.last(t)
	assert.Equal(t, ldproto.LevelDim, level)
}

func TestEngineApply(t *testing.T) {
	tests := []struct {
		name  string
		start PixelBuffer
		kinds []FrameKind
		want  PixelBuffer
	}{
		{
			name:  "invert twice",
			start: pattern,
			kinds: []FrameKind{KindInvert, KindInvert},
			want:  pattern,
		},
		{
			name:  "clear twice",
			start: pattern,
			kinds: []FrameKind{KindClear, KindClear},
			want:  PixelBuffer{},
		},
		{
			name:  "invert blank",
			kinds: []FrameKind{KindInvert},
			want:  PixelBuffer{ColumnMask, ColumnMask, ColumnMask, ColumnMask, ColumnMask, ColumnMask, ColumnMask},
		},
		{
			name:  "reserved kinds",
			start: pattern,
			kinds: []FrameKind{KindNoOp, KindLoop, KindBreakIfLast},
			want:  pattern,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := displayState{buffer: test.start, brightness: Bright}
			for _, k := range test.kinds {
				f, err := NewFrame(k, 0, NoChange)
				require.NoError(t, err)
				s.apply(f)
			}
			assert.Equal(t, test.want, s.buffer)
			assert.Equal(t, Bright, s.brightness)
		})
	}
}

func TestDisplayStateBrightness(t *testing.T) {
	s := displayState{brightness: Bright}

	s.setBrightness(Dim)
	assert.Equal(t, Dim, s.brightness)

	s.setBrightness(NoChange)
	assert.Equal(t, Dim, s.brightness)

	s.setBrightness(Brightness(7))
	assert.Equal(t, Bright, s.brightness)
}

func TestEngineTransportErrors(t *testing.T) {
	e, tr, _ := newTestEngine(t)
	e.sleep = func(time.Duration) { time.Sleep(time.Millisecond) }

	sendErr := errors.New("device unplugged")
	tr.fail = sendErr

	errCh := make(chan error, 16)
	e.SetErrorHandler(func(err error) {
		select {
		case errCh <- err:
		default:
		}
	})

	require.NoError(t, e.Start())

	for i := 0; i < 3; i++ {
		select {
		case err := <-errCh:
			var terr *TransportError
			require.True(t, errors.As(err, &terr))
			assert.True(t, errors.Is(err, sendErr))
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for transport error")
		}
	}

	assert.Equal(t, StateRunning, e.State())
	require.NoError(t, e.Stop())
	assert.GreaterOrEqual(t, e.Stats().TransportErrors, uint64(3))
	assert.Equal(t, 1, tr.closeCount())
}

func TestEngineStopFinishesFrame(t *testing.T) {
	e, tr, _ := newTestEngine(t)

	sleeping := make(chan struct{}, 1)
	release := make(chan struct{})
	e.sleep = func(time.Duration) {
		select {
		case sleeping <- struct{}{}:
		default:
		}
		<-release
	}

	require.NoError(t, e.EnqueueSet(50*time.Millisecond, pattern, NoChange))
	require.NoError(t, e.Start())

	select {
	case <-sleeping:
	case <-time.After(5 * time.Second):
		t.Fatal("engine never paced a frame")
	}

	stopped := make(chan error, 1)
	go func() { stopped <- e.Stop() }()

	select {
	case <-stopped:
		t.Fatal("Stop returned before the frame in flight finished")
	case <-time.After(20 * time.Millisecond):
	}

	assert.ErrorIs(t, e.EnqueueClear(0), ErrStopped)

	close(release)
	require.NoError(t, <-stopped)

	assert.Equal(t, StateStopped, e.State())
	assert.Equal(t, uint64(1), e.Stats().Applied)
	buf, _ := tr.last(t)
	assert.Equal(t, pattern, buf)
	assert.Equal(t, 1, tr.closeCount())
}

func TestEngineLifecycle(t *testing.T) {
	t.Run("stop idle", func(t *testing.T) {
		e, tr, _ := newTestEngine(t)
		require.NoError(t, e.Stop())
		assert.Equal(t, StateStopped, e.State())
		assert.Equal(t, 1, tr.closeCount())

		assert.ErrorIs(t, e.Stop(), ErrStopped)
		assert.ErrorIs(t, e.Start(), ErrStopped)
		assert.ErrorIs(t, e.EnqueueInvert(0), ErrStopped)
		assert.Equal(t, 1, tr.closeCount())
	})

	t.Run("start twice", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		e.sleep = func(time.Duration) { time.Sleep(time.Millisecond) }

		require.NoError(t, e.Start())
		assert.Error(t, e.Start())
		require.NoError(t, e.Stop())
		assert.ErrorIs(t, e.Stop(), ErrStopped)
	})

	t.Run("run until canceled", func(t *testing.T) {
		e, tr, _ := newTestEngine(t)
		e.sleep = func(time.Duration) { time.Sleep(time.Millisecond) }

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- e.Run(ctx) }()

		require.Eventually(t, func() bool {
			return e.Stats().Iterations > 0
		}, 5*time.Second, time.Millisecond)

		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
		assert.Equal(t, StateStopped, e.State())
		assert.Equal(t, 1, tr.closeCount())
	})
}

func TestEngineEnqueueInvalid(t *testing.T) {
	e, _, _ := newTestEngine(t)

	err := e.EnqueueSet(MaxFrameDuration+time.Millisecond, pattern, NoChange)
	var cerr *ConfigurationError
	assert.True(t, errors.As(err, &cerr))

	err = e.EnqueueSet(0, PixelBuffer{1 << Columns}, NoChange)
	assert.True(t, errors.As(err, &cerr))

	assert.Equal(t, 0, e.Pending())
}

func TestEngineDiscard(t *testing.T) {
	e, _, _ := newTestEngine(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, e.EnqueueClear(time.Second))
	}
	assert.Equal(t, 3, e.Pending())
	assert.Equal(t, 3, e.Discard())
	assert.Equal(t, 0, e.Pending())
}

func TestEngineConcurrentProducers(t *testing.T) {
	e, tr, _ := newTestEngine(t)
	e.sleep = func(time.Duration) { time.Sleep(100 * time.Microsecond) }

	require.NoError(t, e.Start())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.NoError(t, e.EnqueueInvert(0))
			}
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return e.Pending() == 0
	}, 5*time.Second, time.Millisecond)
	require.NoError(t, e.Stop())

	// 400 inverts cancel out.
	buf, _ := tr.last(t)
	assert.True(t, buf.IsZero())
}

func TestEngineRejectsZeroFrame(t *testing.T) {
	e, tr, _ := newTestEngine(t)

	require.NoError(t, e.EnqueueSet(10*time.Millisecond, pattern, Bright))

	err := e.Enqueue(Frame{})
	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr), "got error %v", err)
	assert.Equal(t, 1, e.Pending())

	require.NoError(t, e.step())
	require.NoError(t, e.step())

	buf, level := tr.last(t)
	assert.Equal(t, pattern, buf)
	assert.Equal(t, ldproto.LevelBright, level)
}

func TestEngineStopFromErrorHandler(t *testing.T) {
	e, tr, _ := newTestEngine(t)
	e.sleep = func(time.Duration) { time.Sleep(time.Millisecond) }
	tr.fail = errors.New("device unplugged")

	var failures int
	stopErr := make(chan error, 1)
	e.SetErrorHandler(func(error) {
		failures++
		if failures == 2 {
			stopErr <- e.Stop()
		}
	})

	require.NoError(t, e.Start())

	select {
	case err := <-stopErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("handler never stopped the engine")
	}

	require.Eventually(t, func() bool {
		return e.State() == StateStopped
	}, 5*time.Second, time.Millisecond)

	assert.Equal(t, 1, tr.closeCount())
	assert.Equal(t, uint64(2), e.Stats().TransportErrors)
	assert.ErrorIs(t, e.Stop(), ErrStopped)
	assert.ErrorIs(t, e.EnqueueClear(0), ErrStopped)
}

func TestEngineEnqueueRacingStop(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.sleep = func(time.Duration) { time.Sleep(100 * time.Microsecond) }

	require.NoError(t, e.Start())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if err := e.EnqueueClear(time.Second); err != nil {
					assert.ErrorIs(t, err, ErrStopped)
					return
				}
			}
		}()
	}

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, e.Stop())
	pending := e.Pending()

	wg.Wait()

	// Nothing is accepted once Stop has returned.
	assert.Equal(t, pending, e.Pending())
}
