// Package transport provides the links the animation engine uses to reach
// the display: a serial bridge, a terminal simulator and an in-memory
// recorder. The USB device itself lives in the usb subpackage, which
// registers itself with Open when imported.
package transport

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	"libdb.so/ledmatrix"
)

// ErrNoUSBSupport is returned by Open for the USB transport when the usb
// subpackage is not linked into the program.
var ErrNoUSBSupport = errors.New("built without USB support")

// USBOpener opens the USB display described by the configuration.
type USBOpener func(cfg ledmatrix.USBConfig) (ledmatrix.Transport, error)

var (
	usbMu     sync.Mutex
	usbOpener USBOpener
)

// RegisterUSB sets the function Open uses for the USB transport.
func RegisterUSB(open USBOpener) {
	usbMu.Lock()
	usbOpener = open
	usbMu.Unlock()
}

func registeredUSB() USBOpener {
	usbMu.Lock()
	defer usbMu.Unlock()
	return usbOpener
}

// Open opens the transport selected by the configuration. The simulator
// renders to out.
func Open(cfg *ledmatrix.Config, out io.Writer, logger *slog.Logger) (ledmatrix.Transport, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Transport {
	case ledmatrix.USBTransport:
		open := registeredUSB()
		if open == nil {
			return nil, ErrNoUSBSupport
		}
		logger.Debug(
			"opening USB display",
			"vendor_id", fmt.Sprintf("%04x", cfg.USB.VendorID),
			"product_id", fmt.Sprintf("%04x", cfg.USB.ProductID))
		t, err := open(cfg.USB)
		if err != nil {
			return nil, err
		}
		return t, nil

	case ledmatrix.SerialTransport:
		logger.Debug(
			"opening serial bridge",
			"device", cfg.Serial.Device,
			"baud", cfg.Serial.Baud)
		s, err := OpenSerial(cfg.Serial.Device, cfg.Serial.Baud)
		if err != nil {
			return nil, err
		}
		return s, nil

	case ledmatrix.SimTransport:
		return NewSim(out), nil

	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}
