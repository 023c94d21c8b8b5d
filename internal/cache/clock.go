package cache

import "time"

// Clock supplies the current time to backends that track expiry themselves.
type Clock interface {
	Now() time.Time
}
