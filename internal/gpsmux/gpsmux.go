// Package gpsmux provides an abstraction over a serial NMEA GPS receiver
// with the ability for multiple clients to subscribe to position fixes read
// from a single port.
package gpsmux

import (
	"bufio"
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"errors"
	"sync"

	"github.com/greensward-data/turf.report/internal/geo"
	"github.com/greensward-data/turf.report/internal/monitoring"
)

// GPSMux reads NMEA sentences from a serial port, parses out position fixes,
// and fans them out to subscribers. Sentences without a usable fix are
// dropped with a debug log; a parse failure never stops the monitor loop.
type GPSMux[T SerialPorter] struct {
	port         T
	subscribers  map[string]chan geo.Point
	subscriberMu sync.Mutex
	closing      bool
	closingMu    sync.Mutex
}

// Muxer is the consumer-facing interface of GPSMux.
type Muxer interface {
	// Subscribe creates a new channel for receiving position fixes. The
	// returned ID identifies the channel when unsubscribing.
	Subscribe() (string, chan geo.Point)
	// Unsubscribe removes and closes a subscriber channel.
	Unsubscribe(string)
	// Monitor reads sentences from the port and distributes fixes until the
	// context is cancelled or the port fails.
	Monitor(context.Context) error
	// Close closes all subscriber channels and the underlying port.
	Close() error
}

// New creates a GPSMux backed by the given port.
func New[T SerialPorter](port T) *GPSMux[T] {
	return &GPSMux[T]{
		port:        port,
		subscribers: make(map[string]chan geo.Point),
	}
}

// randomID generates a random channel ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

func (g *GPSMux[T]) Subscribe() (string, chan geo.Point) {
	id := randomID()
	ch := make(chan geo.Point, 1)
	g.subscriberMu.Lock()
	defer g.subscriberMu.Unlock()
	g.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber from the mux.
func (g *GPSMux[T]) Unsubscribe(id string) {
	g.subscriberMu.Lock()
	defer g.subscriberMu.Unlock()
	if ch, ok := g.subscribers[id]; ok {
		close(ch)
		delete(g.subscribers, id)
	}
}

// Monitor reads lines from the port, parses fixes, and sends them to all
// subscribers. It returns when the context is cancelled or the port errors.
func (g *GPSMux[T]) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(g.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// Read lines on a separate goroutine so the blocking scan.Scan does not
	// keep us from observing context cancellation.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				// Port closed; surface any scan error.
				return scan.Err()
			}
			g.handleLine(line)
		}
	}
}

func (g *GPSMux[T]) handleLine(line string) {
	if line == "" {
		return
	}
	fix, err := ParseFix(line)
	if err != nil {
		// A receiver emits plenty of non-position sentences; only genuinely
		// malformed input is worth a regular log line.
		if errors.Is(err, ErrNoFix) {
			monitoring.Debugf("gps: %v", err)
		} else {
			monitoring.Logf("gps: dropping line: %v", err)
		}
		return
	}

	g.subscriberMu.Lock()
	defer g.subscriberMu.Unlock()
	for _, ch := range g.subscribers {
		// Non-blocking send: a slow subscriber loses fixes rather than
		// stalling the read loop. GPS updates arrive every second anyway.
		select {
		case ch <- fix:
		default:
		}
	}
}

// Close closes all subscribed channels and the underlying port.
func (g *GPSMux[T]) Close() error {
	g.closingMu.Lock()
	if g.closing {
		g.closingMu.Unlock()
		return nil
	}
	g.closing = true
	g.closingMu.Unlock()

	g.subscriberMu.Lock()
	for id, ch := range g.subscribers {
		close(ch)
		delete(g.subscribers, id)
	}
	g.subscriberMu.Unlock()

	return g.port.Close()
}
