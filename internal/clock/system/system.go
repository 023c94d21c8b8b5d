// Package system supplies the wall clock that cache stores measure expiry against.
package system

import "time"

// Clock reads the host clock. Times are normalised to UTC so expiry
// timestamps written to shared stores compare the same on every replica.
type Clock struct{}

func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC.
func (*Clock) Now() time.Time {
	return time.Now().UTC()
}
