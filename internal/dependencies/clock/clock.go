// Package clock abstracts the wall clock so match timestamps and session
// expiry can be driven by tests.
package clock

import "time"

// Precision is the finest resolution every storage backend keeps. Postgres
// timestamptz stores microseconds, so a match read back compares equal to the
// one that was saved.
const Precision = time.Microsecond

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// SystemClock reads the system clock
type SystemClock struct{}

// New returns the system clock
func New() SystemClock {
	return SystemClock{}
}

// Now returns the current UTC time truncated to Precision
func (SystemClock) Now() time.Time {
	return time.Now().UTC().Truncate(Precision)
}
