package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf and
// may be swapped out with SetLogger; tests commonly mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// Debugf carries chatty per-fix and per-frame diagnostics. It is a no-op
// until enabled with SetDebug.
var Debugf func(format string, v ...interface{}) = func(string, ...interface{}) {}

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetDebug routes Debugf through the current Logf when enabled, or back to a
// no-op when disabled.
func SetDebug(enabled bool) {
	if enabled {
		Debugf = func(format string, v ...interface{}) {
			Logf("debug: "+format, v...)
		}
		return
	}
	Debugf = func(string, ...interface{}) {}
}
