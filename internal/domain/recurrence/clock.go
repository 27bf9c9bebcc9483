package recurrence

import "time"

// Clock abstracts the source of "now" so the due-occurrence checks are
// testable with fixed times.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }
