package transport

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"libdb.so/ledmatrix"
	"libdb.so/ledmatrix/ldproto"
)

// Sim renders the display on a terminal. It decodes the control messages
// and redraws the whole display once the last row pair arrives.
type Sim struct {
	w       io.Writer
	rows    ledmatrix.PixelBuffer
	updates uint16
	// Home moves the cursor to the top left corner before every redraw.
	Home bool
}

// NewSim creates a simulator rendering to w.
func NewSim(w io.Writer) *Sim {
	return &Sim{w: w, Home: true}
}

// SendControlMessage implements ldproto.Sender.
func (s *Sim) SendControlMessage(msg []byte) error {
	if len(msg) != ldproto.MessageSize {
		return errors.Errorf("control message must be %d bytes, got %d", ldproto.MessageSize, len(msg))
	}

	d, err := ldproto.Decode(ldproto.Message(msg))
	if err != nil {
		return errors.Wrap(err, "failed to decode control message")
	}

	s.rows[d.Row] = d.Rows[0]
	if d.Paired {
		s.rows[d.Row+1] = d.Rows[1]
	}

	if d.Row == ldproto.NumRows-1 {
		return s.render(d.Level)
	}
	return nil
}

// Rows returns the last decoded display content.
func (s *Sim) Rows() ledmatrix.PixelBuffer {
	return s.rows
}

func (s *Sim) render(level ldproto.Level) error {
	var on byte
	switch level {
	case ldproto.LevelDim:
		on = 'o'
	case ldproto.LevelMedium:
		on = '*'
	case ldproto.LevelBright:
		on = '#'
	default:
		on = '@'
	}

	s.updates++

	w := bufio.NewWriter(s.w)
	if s.Home {
		w.WriteString("\033[H")
	}
	for _, row := range s.rows {
		for j := ledmatrix.Columns - 1; j >= 0; j-- {
			if row>>uint(j)&1 == 1 {
				w.WriteByte(on)
			} else {
				w.WriteByte(' ')
			}
		}
		w.WriteString("|\n")
	}
	for j := 0; j < ledmatrix.Columns; j++ {
		w.WriteByte('-')
	}
	w.WriteString("+\n")
	fmt.Fprintf(w, "%d\n", s.updates)

	return w.Flush()
}

// Close implements ledmatrix.Transport.
func (s *Sim) Close() error {
	return nil
}
