package ledmatrix

import (
	"encoding"
	"fmt"
	"math"
	"strings"
	"time"
)

// FrameKind is the kind of command a frame carries.
type FrameKind uint8

const (
	// KindSet replaces the display with the frame payload.
	KindSet FrameKind = iota
	// KindClear turns every pixel off.
	KindClear
	// KindInvert flips every pixel.
	KindInvert
	// KindNoOp leaves the display untouched.
	KindNoOp
	// KindLoop is reserved for looped sequences. It has no effect.
	KindLoop
	// KindBreakIfLast is reserved for looped sequences. It has no effect.
	KindBreakIfLast
)

// String returns a string representation of the frame kind.
func (k FrameKind) String() string {
	switch k {
	case KindSet:
		return "set"
	case KindClear:
		return "clear"
	case KindInvert:
		return "invert"
	case KindNoOp:
		return "noop"
	case KindLoop:
		return "loop"
	case KindBreakIfLast:
		return "break-if-last"
	default:
		return fmt.Sprintf("FrameKind(%d)", k)
	}
}

func (k FrameKind) valid() bool {
	return k <= KindBreakIfLast
}

// Brightness is a brightness directive. Dim, Medium and Bright are display
// levels; NoChange leaves the current level untouched.
type Brightness uint8

const (
	Dim      Brightness = 0
	Medium   Brightness = 1
	Bright   Brightness = 2
	NoChange Brightness = 0xff
)

var (
	_ encoding.TextUnmarshaler = (*Brightness)(nil)
	_ encoding.TextMarshaler   = Brightness(0)
)

// String returns a string representation of the brightness.
func (b Brightness) String() string {
	switch b {
	case Dim:
		return "dim"
	case Medium:
		return "medium"
	case Bright:
		return "bright"
	case NoChange:
		return "nochange"
	default:
		return fmt.Sprintf("Brightness(%d)", uint8(b))
	}
}

func (b Brightness) valid() bool {
	return b <= Bright || b == NoChange
}

// ParseBrightness parses the string form of a brightness.
func ParseBrightness(s string) (Brightness, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dim":
		return Dim, nil
	case "medium":
		return Medium, nil
	case "bright":
		return Bright, nil
	case "nochange", "no-change", "":
		return NoChange, nil
	default:
		return NoChange, fmt.Errorf("unknown brightness %q", s)
	}
}

func (b *Brightness) UnmarshalText(text []byte) error {
	v, err := ParseBrightness(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

func (b Brightness) MarshalText() ([]byte, error) {
	if !b.valid() {
		return nil, fmt.Errorf("invalid brightness %d", uint8(b))
	}
	return []byte(b.String()), nil
}

// MaxFrameDuration is the longest duration a single frame can carry.
const MaxFrameDuration = math.MaxUint16 * time.Millisecond

// Frame is one step of an animation. Frames are immutable once constructed.
type Frame struct {
	payload    PixelBuffer
	duration   uint16 // ms
	kind       FrameKind
	brightness Brightness
	// continuation is set on the remainder of a split frame. Continuations
	// extend how long the frame stays on screen but are never re-applied.
	continuation bool
	// valid is only set by the constructors. The zero Frame is not a frame.
	valid bool
}

// NewFrame creates a frame of any kind except KindSet, which needs a payload.
func NewFrame(kind FrameKind, duration time.Duration, brightness Brightness) (Frame, error) {
	if kind == KindSet {
		return Frame{}, configErrorf("set frames need a payload, use NewSetFrame")
	}
	return newFrame(kind, duration, brightness, PixelBuffer{})
}

// NewSetFrame creates a frame that shows the given payload.
func NewSetFrame(duration time.Duration, payload PixelBuffer, brightness Brightness) (Frame, error) {
	return newFrame(KindSet, duration, brightness, payload)
}

func newFrame(kind FrameKind, duration time.Duration, brightness Brightness, payload PixelBuffer) (Frame, error) {
	if !kind.valid() {
		return Frame{}, configErrorf("unknown frame kind %d", uint8(kind))
	}
	if !brightness.valid() {
		return Frame{}, configErrorf("unknown brightness %d", uint8(brightness))
	}
	if duration < 0 || duration > MaxFrameDuration {
		return Frame{}, configErrorf("duration %v out of range [0, %v]", duration, MaxFrameDuration)
	}
	for i, row := range payload {
		if row&^ColumnMask != 0 {
			return Frame{}, configErrorf("payload row %d has bits set above column %d", i, Columns-1)
		}
	}

	return Frame{
		payload:    payload,
		duration:   uint16(duration / time.Millisecond),
		kind:       kind,
		brightness: brightness,
		valid:      true,
	}, nil
}

// Valid reports whether the frame was built by NewFrame or NewSetFrame.
func (f Frame) Valid() bool { return f.valid }

// Kind returns the frame kind.
func (f Frame) Kind() FrameKind { return f.kind }

// Duration returns how long the frame is paced for.
func (f Frame) Duration() time.Duration {
	return time.Duration(f.duration) * time.Millisecond
}

// Brightness returns the brightness directive of the frame.
func (f Frame) Brightness() Brightness { return f.brightness }

// Payload returns the payload of a set frame. It is empty for other kinds.
func (f Frame) Payload() PixelBuffer { return f.payload }

// String returns a short description of the frame.
func (f Frame) String() string {
	return fmt.Sprintf("%s(%dms, %s)", f.kind, f.duration, f.brightness)
}
