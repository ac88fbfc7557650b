// Package clock provides the millisecond-precision UTC time source used for
// every persisted timestamp. The datastore stores timestamps at millisecond
// resolution, so truncating before writing makes read-after-write return the
// exact value written.
package clock

import "time"

// Clock produces millisecond-truncated UTC instants.
type Clock interface {
	Now() time.Time
}

// System is the wall-clock implementation.
type System struct{}

func (System) Now() time.Time {
	return Truncate(time.Now())
}

// Truncate normalises t to UTC at millisecond resolution.
func Truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
