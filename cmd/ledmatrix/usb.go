//go:build !nousb

package main

// The USB transport needs libusb. Build with -tags nousb for a binary that
// only drives the simulator and the serial bridge.
import _ "libdb.so/ledmatrix/transport/usb"
