package gpsmux

import (
	"io"
	"time"
)

// MockPort implements SerialPorter for dev mode and tests.
type MockPort struct {
	io.Reader
	closer func() error
}

func (m *MockPort) Close() error {
	if m.closer != nil {
		return m.closer()
	}
	return nil
}

// NewMockGPSMux creates a GPSMux backed by a fake port that replays the
// given NMEA sentences at the given interval, forever. Used by dev mode to
// exercise the whole pipeline without a receiver attached.
func NewMockGPSMux(sentences []string, interval time.Duration) *GPSMux[*MockPort] {
	r, w := io.Pipe()

	go func() {
		defer w.Close()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		i := 0
		for range ticker.C {
			if _, err := w.Write([]byte(sentences[i%len(sentences)] + "\r\n")); err != nil {
				return
			}
			i++
		}
	}()

	return New(&MockPort{Reader: r, closer: r.Close})
}
