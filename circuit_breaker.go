package mpd

import (
	"time"

	"github.com/pior/mpd/protocol"
	"github.com/pior/mpd/response"
	"github.com/sony/gobreaker/v2"
)

// CircuitBreaker guards command execution against an unresponsive server.
type CircuitBreaker = gobreaker.CircuitBreaker[*response.Batch]

// NewCircuitBreakerConfig returns a function that creates circuit breakers for a server.
//
// An ACK counts as a success: the server is up and answered. Only I/O,
// parse and pool failures count towards tripping the breaker.
func NewCircuitBreakerConfig(maxRequests uint32, interval, timeout time.Duration) func(addr string) *CircuitBreaker {
	return func(addr string) *CircuitBreaker {
		settings := gobreaker.Settings{
			Name:        addr,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			IsSuccessful: func(err error) bool {
				return err == nil || protocol.IsAck(err)
			},
		}
		return gobreaker.NewCircuitBreaker[*response.Batch](settings)
	}
}
