// Package ldproto implements the control message protocol of the USB LED
// message board.
//
// The display is updated with four 8-byte control messages, one per pair of
// rows. Each message carries the brightness level, the index of the first
// row of the pair and three bytes per row. Row bits are inverted (a cleared
// bit lights the LED) and every payload byte is sent with its bit order
// reversed.
package ldproto

import (
	"fmt"
	"math/bits"
)

// NumRows is the number of rows on the display.
const NumRows = 7

// MessageSize is the size of a single control message.
const MessageSize = 8

// NumMessages is the number of messages needed to update the whole display.
const NumMessages = (NumRows + 1) / 2

// pairMarker is OR'd into the first byte of the second row of a pair.
const pairMarker = 0x07

// Level is a brightness level as sent over the wire.
type Level uint8

const (
	LevelDim Level = iota
	LevelMedium
	LevelBright
	// LevelFallback is sent for any level the device does not define.
	LevelFallback
)

// String returns a string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDim:
		return "dim"
	case LevelMedium:
		return "medium"
	case LevelBright:
		return "bright"
	case LevelFallback:
		return "fallback"
	default:
		return fmt.Sprintf("Level(%d)", uint8(l))
	}
}

// code returns the byte sent for the level.
func (l Level) code() byte {
	if l > LevelBright {
		return byte(LevelFallback)
	}
	return byte(l)
}

// Message is a single control message.
type Message [MessageSize]byte

// Rows is the display content as 7 row bitmasks, bit 0 being the rightmost
// column.
type Rows = [NumRows]uint32

// Encode encodes the display content into the control messages that update
// it, in the order they must be sent. Encode is a pure function.
func Encode(rows Rows, level Level) [NumMessages]Message {
	var msgs [NumMessages]Message
	for i := range msgs {
		row := 2 * i
		m := &msgs[i]
		m[0] = level.code()
		m[1] = byte(row)

		m[2], m[3], m[4] = encodeRow(rows[row])
		if row+1 < NumRows {
			m[5], m[6], m[7] = encodeRow(rows[row+1])
			m[5] |= pairMarker
		}

		for j := 2; j < MessageSize; j++ {
			m[j] = bits.Reverse8(m[j])
		}
	}
	return msgs
}

func encodeRow(row uint32) (b0, b1, b2 byte) {
	b0 = ^byte((row & 0x000000ff) << 3)
	b1 = ^byte((row & 0x0000ffff) >> 5)
	b2 = ^byte((row & 0x00ffffff) >> 13)
	return
}

func decodeRow(b0, b1, b2 byte) uint32 {
	return uint32(^b0)>>3 | uint32(^b1)<<5 | uint32(^b2)<<13
}

// Decoded is the content of a single decoded control message.
type Decoded struct {
	Level Level
	// Row is the index of the first row in the message.
	Row int
	// Rows holds the decoded rows. Rows[1] is only valid if Paired is true.
	// Column 21 is not carried over the wire and always decodes as off.
	Rows [2]uint32
	// Paired is true if the message carries a second row.
	Paired bool
}

// Decode decodes a control message produced by Encode.
func Decode(m Message) (Decoded, error) {
	d := Decoded{
		Level: Level(m[0]),
		Row:   int(m[1]),
	}

	if d.Row%2 != 0 || d.Row >= NumRows {
		return d, fmt.Errorf("invalid row index %d", d.Row)
	}

	var p [MessageSize]byte
	for j := 2; j < MessageSize; j++ {
		p[j] = bits.Reverse8(m[j])
	}

	d.Rows[0] = decodeRow(p[2], p[3], p[4])
	d.Paired = p[5] != 0 || p[6] != 0 || p[7] != 0

	if d.Paired {
		if d.Row+1 >= NumRows {
			return d, fmt.Errorf("row %d cannot be paired", d.Row)
		}
		if p[5]&pairMarker != pairMarker {
			return d, fmt.Errorf("missing pair marker for row %d", d.Row+1)
		}
		d.Rows[1] = decodeRow(p[5], p[6], p[7])
	}

	return d, nil
}

// Sender sends control messages to the device.
type Sender interface {
	// SendControlMessage sends a single control message. Messages must be
	// delivered in order.
	SendControlMessage(msg []byte) error
}

// Write encodes the display content and sends it to the device. It stops at
// the first message that fails to send and returns that error; the remaining
// rows are not sent.
func Write(s Sender, rows Rows, level Level) error {
	msgs := Encode(rows, level)
	for i := range msgs {
		if err := s.SendControlMessage(msgs[i][:]); err != nil {
			return fmt.Errorf("failed to send rows %d-%d: %w", 2*i, min(2*i+1, NumRows-1), err)
		}
	}
	return nil
}
