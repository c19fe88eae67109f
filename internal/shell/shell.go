// Package shell implements a line based command interpreter that queues
// frames on the LED display.
//
// Every line is split like a POSIX shell would, so text with spaces can be
// quoted:
//
//	text "HI 5" 2s bright
//	scroll 'hello, world' 60ms
//	time 1234 segment dim
//	rows 0x1 0x2 0x4 0x8 0x10 0x20 0x40 500ms
//	invert 250ms
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/pkg/errors"
	"libdb.so/ledmatrix"
	"libdb.so/ledmatrix/internal/font"
	"libdb.so/ledmatrix/internal/marquee"
)

// ErrQuit is returned by Exec when the quit command is given.
var ErrQuit = errors.New("quit")

// Shell interprets commands and queues the resulting frames.
type Shell struct {
	q      ledmatrix.Enqueuer
	out    io.Writer
	logger *slog.Logger
	stats  func() ledmatrix.Stats

	// defaults for commands that do not specify them
	duration   time.Duration
	brightness ledmatrix.Brightness
	step       time.Duration
}

// New creates a new shell queueing frames on q and writing replies to out.
func New(q ledmatrix.Enqueuer, out io.Writer, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	return &Shell{
		q:          q,
		out:        out,
		logger:     logger,
		duration:   time.Second,
		brightness: ledmatrix.NoChange,
		step:       80 * time.Millisecond,
	}
}

// SetStats sets the function used by the stats command.
func (s *Shell) SetStats(f func() ledmatrix.Stats) {
	s.stats = f
}

type command struct {
	usage string
	help  string
	run   func(s *Shell, args []string) error
}

var commands = map[string]command{
	"clear": {
		usage: "clear [duration]",
		help:  "turn every pixel off",
		run: func(s *Shell, args []string) error {
			o, err := s.parseOptions(args)
			if err != nil {
				return err
			}
			return s.q.EnqueueClear(o.duration)
		},
	},
	"invert": {
		usage: "invert [duration]",
		help:  "flip every pixel",
		run: func(s *Shell, args []string) error {
			o, err := s.parseOptions(args)
			if err != nil {
				return err
			}
			return s.q.EnqueueInvert(o.duration)
		},
	},
	"noop": {
		usage: "noop [duration]",
		help:  "keep the display as is",
		run: func(s *Shell, args []string) error {
			o, err := s.parseOptions(args)
			if err != nil {
				return err
			}
			f, err := ledmatrix.NewFrame(ledmatrix.KindNoOp, o.duration, ledmatrix.NoChange)
			if err != nil {
				return err
			}
			return s.q.Enqueue(f)
		},
	},
	"text": {
		usage: "text <text> [duration] [brightness]",
		help:  "show text from the left edge",
		run: func(s *Shell, args []string) error {
			if len(args) < 1 {
				return errors.New("missing text")
			}
			o, err := s.parseOptions(args[1:])
			if err != nil {
				return err
			}
			var buf ledmatrix.PixelBuffer
			font.DrawText(&buf, args[0], 0)
			return s.q.EnqueueSet(o.duration, buf, o.brightness)
		},
	},
	"time": {
		usage: "time <hhmm> [plain|segment] [duration] [brightness]",
		help:  "show a clock face",
		run: func(s *Shell, args []string) error {
			if len(args) < 1 {
				return errors.New("missing time")
			}
			hhmm, err := strconv.Atoi(strings.ReplaceAll(args[0], ":", ""))
			if err != nil {
				return errors.Wrap(err, "invalid time")
			}
			o, err := s.parseOptions(args[1:])
			if err != nil {
				return err
			}
			var buf ledmatrix.PixelBuffer
			if err := font.DrawTime(&buf, hhmm, o.style); err != nil {
				return errors.Wrapf(err, "cannot draw time %d", hhmm)
			}
			return s.q.EnqueueSet(o.duration, buf, o.brightness)
		},
	},
	"rows": {
		usage: "rows <r0> <r1> <r2> <r3> <r4> <r5> <r6> [duration] [brightness]",
		help:  "show raw row bitmasks, bit 0 is the rightmost column",
		run: func(s *Shell, args []string) error {
			if len(args) < ledmatrix.Rows {
				return errors.Errorf("need %d rows", ledmatrix.Rows)
			}
			rows := make([]uint32, ledmatrix.Rows)
			for i := range rows {
				v, err := strconv.ParseUint(args[i], 0, 32)
				if err != nil {
					return errors.Wrapf(err, "invalid row %d", i)
				}
				rows[i] = uint32(v)
			}
			buf, err := ledmatrix.NewPixelBuffer(rows...)
			if err != nil {
				return err
			}
			o, err := s.parseOptions(args[ledmatrix.Rows:])
			if err != nil {
				return err
			}
			return s.q.EnqueueSet(o.duration, buf, o.brightness)
		},
	},
	"scroll": {
		usage: "scroll <text> [step] [brightness]",
		help:  "scroll text from right to left",
		run: func(s *Shell, args []string) error {
			if len(args) < 1 {
				return errors.New("missing text")
			}
			o, err := s.parseOptions(args[1:])
			if err != nil {
				return err
			}
			step := s.step
			if o.durationSet {
				step = o.duration
			}
			return marquee.Scroll(s.q, args[0], marquee.Config{
				Step:       step,
				Brightness: o.brightness,
				Ease:       true,
			})
		},
	},
	"brightness": {
		usage: "brightness <dim|medium|bright|nochange>",
		help:  "set the default brightness",
		run: func(s *Shell, args []string) error {
			if len(args) != 1 {
				return errors.New("need exactly one brightness")
			}
			b, err := ledmatrix.ParseBrightness(args[0])
			if err != nil {
				return err
			}
			s.brightness = b
			return nil
		},
	},
	"duration": {
		usage: "duration <duration>",
		help:  "set the default frame duration",
		run: func(s *Shell, args []string) error {
			if len(args) != 1 {
				return errors.New("need exactly one duration")
			}
			d, err := time.ParseDuration(args[0])
			if err != nil {
				return err
			}
			s.duration = d
			return nil
		},
	},
	"stats": {
		usage: "stats",
		help:  "print engine counters",
		run: func(s *Shell, args []string) error {
			if s.stats == nil {
				return errors.New("stats not available")
			}
			st := s.stats()
			fmt.Fprintf(s.out,
				"iterations=%d applied=%d splits=%d transport_errors=%d\n",
				st.Iterations, st.Applied, st.Splits, st.TransportErrors)
			return nil
		},
	},
	"quit": {
		usage: "quit",
		help:  "leave the shell",
		run: func(s *Shell, args []string) error {
			return ErrQuit
		},
	},
}

func init() {
	// help lists the commands table, so it cannot be part of its initializer.
	commands["help"] = command{
		usage: "help",
		help:  "list commands",
		run: func(s *Shell, args []string) error {
			names := make([]string, 0, len(commands))
			for name := range commands {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				c := commands[name]
				fmt.Fprintf(s.out, "%-70s %s\n", c.usage, c.help)
			}
			return nil
		},
	}
}

type options struct {
	duration    time.Duration
	durationSet bool
	brightness  ledmatrix.Brightness
	style       font.TimeStyle
}

// parseOptions parses the optional trailing arguments of a command. They may
// be given in any order and are told apart by their form.
func (s *Shell) parseOptions(args []string) (options, error) {
	o := options{
		duration:   s.duration,
		brightness: s.brightness,
	}

	for _, arg := range args {
		switch arg {
		case "plain":
			o.style = font.PlainStyle
			continue
		case "segment":
			o.style = font.SegmentStyle
			continue
		}

		if b, err := ledmatrix.ParseBrightness(arg); err == nil {
			o.brightness = b
			continue
		}

		d, err := time.ParseDuration(arg)
		if err != nil {
			return o, errors.Errorf("unexpected argument %q", arg)
		}
		o.duration = d
		o.durationSet = true
	}

	return o, nil
}

// Exec runs a single command line. Empty lines and lines starting with # are
// ignored.
func (s *Shell) Exec(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return errors.Wrap(err, "failed to parse line")
	}
	if len(args) == 0 || strings.HasPrefix(args[0], "#") {
		return nil
	}

	c, ok := commands[strings.ToLower(args[0])]
	if !ok {
		return errors.Errorf("unknown command %q, try help", args[0])
	}

	s.logger.Debug(
		"running command",
		"command", args[0],
		"args", args[1:])

	return c.run(s, args[1:])
}

// Run reads commands from r until it is exhausted, the quit command is given
// or the context is canceled. Errors of single commands are reported to the
// output and do not stop the shell, except ledmatrix.ErrStopped.
func (s *Shell) Run(ctx context.Context, r io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return errors.Wrap(err, "failed to read commands")
		case line := <-lines:
			err := s.Exec(line)
			switch {
			case err == nil:
			case errors.Is(err, ErrQuit):
				return nil
			case errors.Is(err, ledmatrix.ErrStopped):
				return err
			default:
				fmt.Fprintln(s.out, "error:", err)
			}
		}
	}
}
