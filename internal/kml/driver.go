// Package kml reads KML documents as named layers of point-of-interest records.
//
// Reading is gated behind a process-wide driver switch. Call EnableDriver once
// during process setup, before the first Open; Open refuses to read documents
// until then. KML content is untrusted input (it embeds arbitrary HTML in
// descriptions), so nothing reads it implicitly.
package kml

import (
	"sync/atomic"

	"github.com/rotisserie/eris"
)

// ErrDriverDisabled is returned by Open when EnableDriver has not been called.
var ErrDriverDisabled = eris.New("kml: read driver not enabled")

var driverEnabled atomic.Bool

// EnableDriver turns on KML read support for the whole process. It is safe to
// call more than once.
func EnableDriver() {
	driverEnabled.Store(true)
}

// DriverEnabled reports whether EnableDriver has been called.
func DriverEnabled() bool {
	return driverEnabled.Load()
}
