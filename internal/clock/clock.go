// Package clock supplies the instants written by $currentDate.
package clock

import (
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var nowFunc = time.Now

var (
	mu      sync.Mutex
	lastSec uint32
	counter uint32
)

// Now returns the current instant in UTC at millisecond precision, the
// resolution of a stored date.
func Now() time.Time {
	return nowFunc().UTC().Truncate(time.Millisecond)
}

// Timestamp returns a timestamp for the current second. The increment
// distinguishes timestamps taken within the same second.
func Timestamp() primitive.Timestamp {
	sec := uint32(nowFunc().Unix())

	mu.Lock()
	defer mu.Unlock()

	if sec != lastSec {
		lastSec, counter = sec, 0
	}
	counter++
	return primitive.Timestamp{T: sec, I: counter}
}

// SetNowForTest overrides the clock source and returns a restore function.
func SetNowForTest(fn func() time.Time) func() {
	previous := nowFunc
	nowFunc = fn
	return func() {
		nowFunc = previous
	}
}
