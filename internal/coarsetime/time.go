// Package coarsetime is a clock refreshed every 50ms by a background
// goroutine. Reading it is cheaper than time.Now; the pool uses it for idle
// bookkeeping where millisecond precision does not matter.
package coarsetime

import (
	"sync"
	"sync/atomic"
	"time"
)

const Resolution = 50 * time.Millisecond

var (
	nanos atomic.Int64
	start sync.Once
)

func run() {
	nanos.Store(time.Now().UnixNano())

	ticker := time.NewTicker(Resolution)
	go func() {
		for t := range ticker.C {
			nanos.Store(t.UnixNano())
		}
	}()
}

// Now returns the current time, at most Resolution old.
func Now() time.Time {
	start.Do(run)
	return time.Unix(0, nanos.Load())
}

// Since returns the time elapsed since t, measured on the coarse clock.
func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}
