package gpsmux

import (
	"go.bug.st/serial"
)

// NewSerialGPSMux creates a GPSMux backed by a real serial port at the given
// path using the provided options.
func NewSerialGPSMux(path string, opts PortOptions) (*GPSMux[serial.Port], error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	return New[serial.Port](port), nil
}
