package transport

import (
	"sync"

	"github.com/pkg/errors"
	"libdb.so/ledmatrix/ldproto"
)

// Recorder is an in-memory transport that records every control message. It
// is useful for testing clients without a device.
type Recorder struct {
	mu     sync.Mutex
	msgs   []ldproto.Message
	closed bool
	// Fail, if set, is called for every message before it is recorded. A
	// non-nil error fails the send and the message is not recorded.
	Fail func(msg ldproto.Message) error
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// SendControlMessage implements ldproto.Sender.
func (r *Recorder) SendControlMessage(msg []byte) error {
	if len(msg) != ldproto.MessageSize {
		return errors.Errorf("control message must be %d bytes, got %d", ldproto.MessageSize, len(msg))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errors.New("recorder closed")
	}

	m := ldproto.Message(msg)
	if r.Fail != nil {
		if err := r.Fail(m); err != nil {
			return err
		}
	}

	r.msgs = append(r.msgs, m)
	return nil
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []ldproto.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ldproto.Message(nil), r.msgs...)
}

// Batches groups the recorded messages into full display updates. A
// trailing incomplete update is left out.
func (r *Recorder) Batches() [][ldproto.NumMessages]ldproto.Message {
	msgs := r.Messages()
	batches := make([][ldproto.NumMessages]ldproto.Message, 0, len(msgs)/ldproto.NumMessages)
	for len(msgs) >= ldproto.NumMessages {
		batches = append(batches, [ldproto.NumMessages]ldproto.Message(msgs[:ldproto.NumMessages]))
		msgs = msgs[ldproto.NumMessages:]
	}
	return batches
}

// Close marks the recorder closed. Further sends fail.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Closed returns true if Close was called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
