package ledmatrix

import "sync"

// FrameQueue is a FIFO of frames that is safe for concurrent use. Any number
// of producers may enqueue frames while a single consumer dequeues them.
type FrameQueue struct {
	mu   sync.Mutex
	head *frameNode
	tail *frameNode
	len  int
}

type frameNode struct {
	frame Frame
	next  *frameNode
}

// NewFrameQueue creates an empty frame queue.
func NewFrameQueue() *FrameQueue {
	return &FrameQueue{}
}

// Enqueue appends a frame at the tail of the queue.
func (q *FrameQueue) Enqueue(f Frame) {
	n := &frameNode{frame: f}

	q.mu.Lock()
	if q.tail == nil {
		q.head = n
	} else {
		q.tail.next = n
	}
	q.tail = n
	q.len++
	q.mu.Unlock()
}

// Prepend inserts a frame at the head of the queue, so it is dequeued before
// everything already queued.
func (q *FrameQueue) Prepend(f Frame) {
	n := &frameNode{frame: f}

	q.mu.Lock()
	n.next = q.head
	q.head = n
	if q.tail == nil {
		q.tail = n
	}
	q.len++
	q.mu.Unlock()
}

// Dequeue removes and returns the frame at the head of the queue. It returns
// false if the queue is empty.
func (q *FrameQueue) Dequeue() (Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.head
	if n == nil {
		return Frame{}, false
	}

	q.head = n.next
	if q.head == nil {
		q.tail = nil
	}
	q.len--

	return n.frame, true
}

// Reset drops every queued frame and returns how many were dropped.
func (q *FrameQueue) Reset() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.len
	q.head, q.tail, q.len = nil, nil, 0
	return n
}

// Len returns the number of queued frames.
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.len
}
