// Package scheduler implements the cooperative timer manager that drives the
// drone's one-shot command timers. Timers are keyed by fire time on a simulated
// clock and only fire from Advance, on the caller's goroutine, so callbacks never
// run concurrently with the tick that owns the scheduler.
package scheduler

import (
	"container/heap"
)

// Handle identifies a scheduled timer. The zero Handle never refers to a timer.
type Handle uint64

// Valid reports whether h was returned by SetTimer.
func (h Handle) Valid() bool {
	return h != 0
}

type entry struct {
	handle Handle
	fireAt float64
	fn     func()
	index  int
}

// timerQueue orders entries by fire time, then by creation order.
type timerQueue []*entry

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].fireAt == q[j].fireAt {
		return q[i].handle < q[j].handle
	}
	return q[i].fireAt < q[j].fireAt
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x interface{}) {
	e := x.(*entry)
	e.index = len(*q)
	*q = append(*q, e)
}

func (q *timerQueue) Pop() interface{} {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*q = old[:n-1]
	return e
}

// Scheduler is a one-shot timer queue polled once per tick.
// It is not safe for concurrent use.
type Scheduler struct {
	now    float64
	last   Handle
	queue  timerQueue
	active map[Handle]*entry
}

// New creates an empty scheduler with its clock at zero.
func New() *Scheduler {
	return &Scheduler{
		active: make(map[Handle]*entry),
	}
}

// Now returns the scheduler clock in seconds.
func (s *Scheduler) Now() float64 {
	return s.now
}

// SetTimer schedules fn to run once, delay seconds from now. A non-positive
// delay fires on the next Advance.
func (s *Scheduler) SetTimer(delay float64, fn func()) Handle {
	if delay < 0 {
		delay = 0
	}
	s.last++
	e := &entry{
		handle: s.last,
		fireAt: s.now + delay,
		fn:     fn,
	}
	heap.Push(&s.queue, e)
	s.active[e.handle] = e
	return e.handle
}

// ClearTimer cancels the timer behind h and invalidates the handle. It returns
// false if the timer already fired or was cleared.
func (s *Scheduler) ClearTimer(h *Handle) bool {
	if h == nil || !h.Valid() {
		return false
	}
	e, ok := s.active[*h]
	*h = 0
	if !ok {
		return false
	}
	heap.Remove(&s.queue, e.index)
	delete(s.active, e.handle)
	return true
}

// IsActive reports whether the timer behind h is still pending.
func (s *Scheduler) IsActive(h Handle) bool {
	_, ok := s.active[h]
	return ok
}

// TimeLeft returns the seconds until h fires, or 0 if it is not pending.
func (s *Scheduler) TimeLeft(h Handle) float64 {
	e, ok := s.active[h]
	if !ok {
		return 0
	}
	if left := e.fireAt - s.now; left > 0 {
		return left
	}
	return 0
}

// Pending returns the number of live timers.
func (s *Scheduler) Pending() int {
	return len(s.active)
}

// Advance moves the clock forward by dt seconds and runs every timer that is
// due, earliest first. Timers created by a callback during Advance wait for the
// next call even when their delay is zero.
func (s *Scheduler) Advance(dt float64) {
	if dt > 0 {
		s.now += dt
	}
	barrier := s.last
	for len(s.queue) > 0 {
		next := s.queue[0]
		if next.fireAt > s.now || next.handle > barrier {
			return
		}
		heap.Pop(&s.queue)
		delete(s.active, next.handle)
		next.fn()
	}
}
