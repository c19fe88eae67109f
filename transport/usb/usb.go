// Package usb drives the LED message board over USB control transfers.
//
// Importing the package registers it with transport.Open. It links against
// libusb through cgo.
package usb

import (
	"time"

	"github.com/google/gousb"
	"github.com/pkg/errors"
	"libdb.so/ledmatrix"
	"libdb.so/ledmatrix/transport"
)

func init() {
	transport.RegisterUSB(func(cfg ledmatrix.USBConfig) (ledmatrix.Transport, error) {
		d, err := Open(cfg.VendorID, cfg.ProductID, time.Duration(cfg.Timeout))
		if err != nil {
			return nil, err
		}
		return d, nil
	})
}

// ErrNoDevice is returned when no USB device matches the vendor and product
// IDs.
var ErrNoDevice = errors.New("no matching USB device found")

// Control transfer parameters of a display update.
const (
	usbRequestType = 0x21 // host to device, class, interface
	usbRequest     = 0x09 // HID SET_REPORT
	usbValue       = 0x0200
	usbIndex       = 0x0000
)

// Device talks to the display over USB control transfers.
type Device struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface
}

// Open opens the first device matching the vendor and product IDs,
// detaches the kernel HID driver from it and claims its first interface.
func Open(vendorID, productID uint16, timeout time.Duration) (*Device, error) {
	u := &Device{ctx: gousb.NewContext()}

	dev, err := u.ctx.OpenDeviceWithVIDPID(gousb.ID(vendorID), gousb.ID(productID))
	if err != nil {
		u.Close()
		return nil, errors.Wrap(err, "failed to open USB device")
	}
	if dev == nil {
		u.Close()
		return nil, ErrNoDevice
	}
	u.dev = dev

	if err := dev.SetAutoDetach(true); err != nil {
		u.Close()
		return nil, errors.Wrap(err, "failed to enable kernel driver auto-detach")
	}

	if timeout > 0 {
		dev.ControlTimeout = timeout
	}

	cfg, err := dev.Config(1)
	if err != nil {
		u.Close()
		return nil, errors.Wrap(err, "failed to set configuration 1")
	}
	u.cfg = cfg

	intf, err := cfg.Interface(0, 0)
	if err != nil {
		u.Close()
		return nil, errors.Wrap(err, "failed to claim interface 0")
	}
	u.intf = intf

	return u, nil
}

// SendControlMessage implements ldproto.Sender.
func (u *Device) SendControlMessage(msg []byte) error {
	_, err := u.dev.Control(usbRequestType, usbRequest, usbValue, usbIndex, msg)
	return err
}

// Close releases the interface and closes the device.
func (u *Device) Close() error {
	var errs []error
	if u.intf != nil {
		u.intf.Close()
		u.intf = nil
	}
	if u.cfg != nil {
		errs = append(errs, u.cfg.Close())
		u.cfg = nil
	}
	if u.dev != nil {
		errs = append(errs, u.dev.Close())
		u.dev = nil
	}
	if u.ctx != nil {
		errs = append(errs, u.ctx.Close())
		u.ctx = nil
	}
	for _, err := range errs {
		if err != nil {
			return errors.Wrap(err, "failed to close USB device")
		}
	}
	return nil
}
