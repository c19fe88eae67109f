package ledmatrix

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFrame(t *testing.T, ms int) Frame {
	t.Helper()
	f, err := NewFrame(KindNoOp, time.Duration(ms)*time.Millisecond, NoChange)
	require.NoError(t, err)
	return f
}

func TestFrameQueue(t *testing.T) {
	q := NewFrameQueue()

	_, ok := q.Dequeue()
	assert.False(t, ok)

	q.Enqueue(mustFrame(t, 1))
	q.Enqueue(mustFrame(t, 2))
	q.Prepend(mustFrame(t, 0))
	q.Enqueue(mustFrame(t, 3))
	assert.Equal(t, 4, q.Len())

	for i := 0; i < 4; i++ {
		f, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, time.Duration(i)*time.Millisecond, f.Duration())
	}

	_, ok = q.Dequeue()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())

	// The tail must be reset once the queue drains.
	q.Prepend(mustFrame(t, 5))
	q.Enqueue(mustFrame(t, 6))
	f, _ := q.Dequeue()
	assert.Equal(t, 5*time.Millisecond, f.Duration())
	f, _ = q.Dequeue()
	assert.Equal(t, 6*time.Millisecond, f.Duration())
}

func TestFrameQueueReset(t *testing.T) {
	q := NewFrameQueue()
	q.Enqueue(mustFrame(t, 1))
	q.Enqueue(mustFrame(t, 2))

	assert.Equal(t, 2, q.Reset())
	assert.Equal(t, 0, q.Len())
	_, ok := q.Dequeue()
	assert.False(t, ok)

	q.Enqueue(mustFrame(t, 3))
	f, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, 3*time.Millisecond, f.Duration())
}

func TestFrameQueueProducerOrder(t *testing.T) {
	const producers = 3
	const perProducer = 200

	q := NewFrameQueue()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				// Encode the producer in the brightness and the sequence in
				// the duration.
				f, err := NewFrame(KindNoOp, time.Duration(i)*time.Millisecond, Brightness(p))
				if !assert.NoError(t, err) {
					return
				}
				q.Enqueue(f)
			}
		}(p)
	}
	wg.Wait()

	require.Equal(t, producers*perProducer, q.Len())

	// Frames of a single producer keep their order.
	seen := map[Brightness][]time.Duration{}
	for {
		f, ok := q.Dequeue()
		if !ok {
			break
		}
		seen[f.Brightness()] = append(seen[f.Brightness()], f.Duration())
	}

	for _, b := range []Brightness{Dim, Medium, Bright} {
		require.Len(t, seen[b], perProducer)
		for i := 1; i < perProducer; i++ {
			assert.Less(t, seen[b][i-1], seen[b][i])
		}
	}
}
