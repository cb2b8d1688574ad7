// Copyright The CallTree Authors
// SPDX-License-Identifier: Apache-2.0

package core // import "github.com/traceworks/calltree/core"

import (
	"time"
)

// TimeMillis is a wall-clock timestamp in milliseconds since the Unix epoch.
//
// The model stores entry timestamps at millisecond resolution while durations
// are kept at nanosecond resolution (time.Duration); keeping the two units in
// distinct types makes the conversion in exit-time derivation explicit.
type TimeMillis int64

const (
	// UnsetTime is the sentinel for a timestamp that was never populated.
	UnsetTime TimeMillis = -1

	// UnsetDuration is the sentinel for a duration that was never populated.
	UnsetDuration time.Duration = -1
)

// TimeMillisFromTime converts a time.Time to its TimeMillis representation.
func TimeMillisFromTime(t time.Time) TimeMillis {
	return TimeMillis(t.UnixMilli())
}

// Valid reports whether the timestamp was populated.
func (t TimeMillis) Valid() bool {
	return t >= 0
}

// Time returns the timestamp as a time.Time in UTC.
func (t TimeMillis) Time() time.Time {
	return time.UnixMilli(int64(t)).UTC()
}

// Add returns the timestamp shifted by d, rounded to the nearest millisecond
// with halves rounding away from zero.
func (t TimeMillis) Add(d time.Duration) TimeMillis {
	return t + TimeMillis(d.Round(time.Millisecond).Milliseconds())
}
