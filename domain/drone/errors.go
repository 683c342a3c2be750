package drone

import "errors"

var (
	// ErrRunnerStopped is returned when an action is submitted to a runner
	// that is no longer ticking.
	ErrRunnerStopped = errors.New("drone runner stopped")

	// ErrActionQueueFull is returned when manual actions arrive faster than
	// the runner drains them.
	ErrActionQueueFull = errors.New("drone action queue is full")
)
