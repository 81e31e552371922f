package congestion

import "github.com/quic-go/careful-resume/internal/monotime"

// Clock abstracts away the current time so congestion controllers are
// deterministically testable.
type Clock interface {
	Now() monotime.Time
}

// DefaultClock implements Clock using the real monotonic clock.
type DefaultClock struct{}

var _ Clock = DefaultClock{}

// Now returns the current monotonic time.
func (DefaultClock) Now() monotime.Time {
	return monotime.Now()
}
