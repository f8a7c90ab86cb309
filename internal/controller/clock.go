package controller

import "time"

// SystemClock is the production Clock, backed by the monotonic wall clock.
type SystemClock struct{}

// NowMS returns the current monotonic time in milliseconds. The absolute
// value is meaningless; only differences between calls matter.
func (SystemClock) NowMS() float64 {
	return float64(time.Now().UnixNano()) / 1e6
}
