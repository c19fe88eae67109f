//go:build !nousb

package main

import _ "libdb.so/ledmatrix/transport/usb"
