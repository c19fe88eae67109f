package transport

import (
	"bufio"
	"context"
	"hash/crc32"
	"io"
	"log/slog"

	"github.com/pkg/errors"
	"libdb.so/ledmatrix/ldproto"
)

// BridgeStats counts what a relay did.
type BridgeStats struct {
	// Forwarded is the number of messages sent to the display.
	Forwarded uint64
	// Skipped is the number of bytes dropped to find the next valid frame.
	Skipped uint64
	// Invalid is the number of frames with a good checksum that did not
	// decode as a control message.
	Invalid uint64
}

// Relay is the receiving end of the serial bridge. It reads control messages
// written by a Serial transport from r and forwards them to dst, in order.
//
// Frames with a bad checksum are skipped one byte at a time until the stream
// lines up again. Relay returns nil once r is exhausted and the first send
// error otherwise. Cancelling the context only takes effect between frames,
// so callers should also close r.
func Relay(ctx context.Context, r io.Reader, dst ldproto.Sender, logger *slog.Logger) (BridgeStats, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var stats BridgeStats
	br := bufio.NewReaderSize(r, 64*SerialFrameSize)

	for ctx.Err() == nil {
		frame, err := br.Peek(SerialFrameSize)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return stats, nil
			}
			return stats, errors.Wrap(err, "failed to read from bridge")
		}

		msg := frame[:ldproto.MessageSize]
		if Endianness.Uint32(frame[ldproto.MessageSize:]) != crc32.ChecksumIEEE(msg) {
			br.Discard(1)
			stats.Skipped++
			continue
		}

		var m ldproto.Message
		copy(m[:], msg)
		br.Discard(SerialFrameSize)

		if _, err := ldproto.Decode(m); err != nil {
			stats.Invalid++
			logger.Warn(
				"dropping invalid control message",
				"error", err)
			continue
		}

		if err := dst.SendControlMessage(m[:]); err != nil {
			return stats, errors.Wrap(err, "failed to forward control message")
		}
		stats.Forwarded++
	}

	return stats, ctx.Err()
}
