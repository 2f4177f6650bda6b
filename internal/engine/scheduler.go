package engine

import (
	"container/heap"
	"time"

	"github.com/skyrisegames/skytower/server/internal/events"
)

// EventStatus tracks a scheduled event through its lifetime.
type EventStatus int

const (
	StatusScheduled EventStatus = iota
	StatusActive
	StatusCompleted
	StatusCancelled
)

// Handle identifies a scheduled event (or, for recurring events, the rule).
// Cancelling a handle cancels every future occurrence.
type Handle int64

// Callback is invoked synchronously when an event fires. A callback may
// schedule further events; insertions during a dispatch pass are safe.
type Callback func(payload map[string]interface{})

// scheduledEvent is one pending queue entry. Recurring rules are re-enqueued
// as fresh instances with the next due time; a fired instance is never
// reused.
type scheduledEvent struct {
	handle   Handle
	due      time.Time
	priority events.Priority
	seq      int64 // insertion order, breaks full ties deterministically
	callback Callback
	payload  map[string]interface{}

	repeating bool
	interval  time.Duration

	status EventStatus
}

// eventHeap orders by due time, then by descending priority, then insertion.
type eventHeap []*scheduledEvent

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if !h[i].due.Equal(h[j].due) {
		return h[i].due.Before(h[j].due)
	}
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x interface{}) { *h = append(*h, x.(*scheduledEvent)) }

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return ev
}

// Scheduler owns the simulated clock and a priority queue of pending
// callbacks. Cancellation is lazy: cancelled entries stay queued and are
// skipped when they surface.
type Scheduler struct {
	clock      *Clock
	queue      eventHeap
	byHandle   map[Handle]*scheduledEvent
	nextHandle Handle
	nextSeq    int64
}

// NewScheduler creates a scheduler driving the given clock.
func NewScheduler(clock *Clock) *Scheduler {
	return &Scheduler{
		clock:    clock,
		queue:    make(eventHeap, 0, 16),
		byHandle: make(map[Handle]*scheduledEvent),
	}
}

// ScheduleOnce enqueues a one-shot event. A due time already in the past is
// clamped to now so the event fires on the next tick instead of being
// rejected.
func (s *Scheduler) ScheduleOnce(due time.Time, priority events.Priority, cb Callback, payload map[string]interface{}) Handle {
	if due.Before(s.clock.Now()) {
		due = s.clock.Now()
	}
	return s.enqueue(due, priority, cb, payload, false, 0)
}

// ScheduleAfter enqueues a one-shot event a simulated delay from now.
func (s *Scheduler) ScheduleAfter(delay time.Duration, priority events.Priority, cb Callback, payload map[string]interface{}) Handle {
	return s.ScheduleOnce(s.clock.Now().Add(delay), priority, cb, payload)
}

// ScheduleRecurring enqueues the first occurrence of a recurring rule.
// After every dispatch the next occurrence is enqueued at fired-due +
// interval, so exactly one instance per rule is ever pending. If the clock
// jumps past several boundaries, the missed occurrences fire back-to-back
// within the same tick.
func (s *Scheduler) ScheduleRecurring(start time.Time, interval time.Duration, priority events.Priority, cb Callback, payload map[string]interface{}) Handle {
	if start.Before(s.clock.Now()) {
		start = s.clock.Now()
	}
	return s.enqueue(start, priority, cb, payload, true, interval)
}

func (s *Scheduler) enqueue(due time.Time, priority events.Priority, cb Callback, payload map[string]interface{}, repeating bool, interval time.Duration) Handle {
	s.nextHandle++
	s.nextSeq++
	ev := &scheduledEvent{
		handle:    s.nextHandle,
		due:       due,
		priority:  priority,
		seq:       s.nextSeq,
		callback:  cb,
		payload:   payload,
		repeating: repeating,
		interval:  interval,
		status:    StatusScheduled,
	}
	heap.Push(&s.queue, ev)
	s.byHandle[ev.handle] = ev
	return ev.handle
}

// Cancel marks the event cancelled. The queue entry is skipped at dispatch
// time rather than removed eagerly; for recurring rules no further
// occurrence will fire. Returns false for unknown or finished handles.
func (s *Scheduler) Cancel(h Handle) bool {
	ev, ok := s.byHandle[h]
	if !ok || ev.status == StatusCompleted || ev.status == StatusCancelled {
		return false
	}
	ev.status = StatusCancelled
	return true
}

// Tick advances the clock by elapsedSeconds (scaled by the speed
// multiplier) and dispatches every due event. It returns the simulated
// seconds advanced; while paused it is a no-op.
func (s *Scheduler) Tick(elapsedSeconds float64) float64 {
	if s.clock.Paused() {
		return 0
	}
	simSeconds := s.clock.Advance(elapsedSeconds)
	s.Dispatch()
	return simSeconds
}

// Dispatch pops and fires every event whose due time has passed, in (time,
// then priority) order. Callbacks run synchronously and may enqueue new
// events; anything they add that is already due fires in this same pass.
func (s *Scheduler) Dispatch() {
	now := s.clock.Now()
	for len(s.queue) > 0 && !s.queue[0].due.After(now) {
		ev := heap.Pop(&s.queue).(*scheduledEvent)
		if ev.status == StatusCancelled {
			delete(s.byHandle, ev.handle)
			continue
		}

		ev.status = StatusActive
		ev.callback(ev.payload)
		if ev.status == StatusCancelled {
			// The callback cancelled its own handle; the rule must not
			// come back.
			delete(s.byHandle, ev.handle)
			continue
		}
		ev.status = StatusCompleted

		if ev.repeating && ev.interval > 0 {
			s.nextSeq++
			next := &scheduledEvent{
				handle:    ev.handle,
				due:       ev.due.Add(ev.interval),
				priority:  ev.priority,
				seq:       s.nextSeq,
				callback:  ev.callback,
				payload:   ev.payload,
				repeating: true,
				interval:  ev.interval,
				status:    StatusScheduled,
			}
			heap.Push(&s.queue, next)
			s.byHandle[ev.handle] = next
		} else {
			delete(s.byHandle, ev.handle)
		}
	}
}

// Pending returns the number of live (non-cancelled) queue entries.
func (s *Scheduler) Pending() int {
	n := 0
	for _, ev := range s.queue {
		if ev.status != StatusCancelled {
			n++
		}
	}
	return n
}

// NextDue returns the due time of the earliest live entry, or the zero time
// when the queue is empty.
func (s *Scheduler) NextDue() time.Time {
	// The heap head may be cancelled, so scan for the minimum among live
	// entries.
	var min time.Time
	for _, ev := range s.queue {
		if ev.status == StatusCancelled {
			continue
		}
		if min.IsZero() || ev.due.Before(min) {
			min = ev.due
		}
	}
	return min
}
