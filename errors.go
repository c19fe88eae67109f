package ledmatrix

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrStopped is returned by operations attempted on an engine that has been
// stopped.
var ErrStopped = errors.New("animation engine stopped")

// ConfigurationError is returned when a frame or buffer is constructed with
// invalid parameters. Such frames are never enqueued.
type ConfigurationError struct {
	Reason string
}

func configErrorf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	return "invalid frame: " + e.Reason
}

// TransportError wraps a hardware I/O failure that happened while flushing
// the display state to the device.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
