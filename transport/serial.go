package transport

import (
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"libdb.so/ledmatrix/ldproto"
)

// Endianness is the byte order of the serial bridge checksum.
var Endianness = binary.LittleEndian

// SerialFrameSize is the size of a control message on the serial line: the
// message followed by its CRC-32.
const SerialFrameSize = ldproto.MessageSize + 4

// Serial forwards control messages to a bridge on a serial line that replays
// them to the display.
type Serial struct {
	w   io.WriteCloser
	buf [SerialFrameSize]byte
}

// OpenSerial opens the serial bridge at the given device path.
func OpenSerial(device string, baud int) (*Serial, error) {
	port, err := serial.Open(device, &serial.Mode{
		BaudRate: baud,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open serial port")
	}
	return NewSerial(port), nil
}

// NewSerial creates a serial bridge transport writing to w.
func NewSerial(w io.WriteCloser) *Serial {
	return &Serial{w: w}
}

// SendControlMessage implements ldproto.Sender.
func (s *Serial) SendControlMessage(msg []byte) error {
	if len(msg) != ldproto.MessageSize {
		return errors.Errorf("control message must be %d bytes, got %d", ldproto.MessageSize, len(msg))
	}

	copy(s.buf[:], msg)
	Endianness.PutUint32(s.buf[ldproto.MessageSize:], crc32.ChecksumIEEE(msg))

	if _, err := s.w.Write(s.buf[:]); err != nil {
		return errors.Wrap(err, "failed to write control message")
	}
	return nil
}

// Close closes the serial port.
func (s *Serial) Close() error {
	return s.w.Close()
}

// ReadSerialFrame reads a single control message written by a Serial
// transport and verifies its checksum.
func ReadSerialFrame(r io.Reader) (ldproto.Message, error) {
	var buf [SerialFrameSize]byte
	var msg ldproto.Message

	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return msg, errors.Wrap(err, "failed to read control message")
	}

	copy(msg[:], buf[:ldproto.MessageSize])
	if Endianness.Uint32(buf[ldproto.MessageSize:]) != crc32.ChecksumIEEE(msg[:]) {
		return msg, errors.New("control message checksum mismatch")
	}

	return msg, nil
}
