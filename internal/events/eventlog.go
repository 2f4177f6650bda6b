// Package events provides the append-only record of everything that happens
// in the simulation, plus the bounded notification feed the UI drains.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a game event.
type EventType string

const (
	EventTypeTimeTick        EventType = "TIME_TICK"
	EventTypeBusinessPlaced  EventType = "BUSINESS_PLACED"
	EventTypeBusinessRemoved EventType = "BUSINESS_REMOVED"
	EventTypeBusinessEvent   EventType = "BUSINESS_EVENT"
	EventTypeMapEventStart   EventType = "MAP_EVENT_START"
	EventTypeMapEventEnd     EventType = "MAP_EVENT_END"
	EventTypeRushHour        EventType = "RUSH_HOUR"
	EventTypeEconomyRollup   EventType = "ECONOMY_ROLLUP"
	EventTypeMilestone       EventType = "MILESTONE"
	EventTypeSpeedChange     EventType = "SPEED_CHANGE"
	EventTypeCustom          EventType = "CUSTOM"
)

// Priority orders notifications and scheduled events.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "LOW"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityHigh:
		return "HIGH"
	case PriorityCritical:
		return "CRITICAL"
	}
	return "UNKNOWN"
}

// GameEvent represents an immutable record of something that happened.
type GameEvent struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"` // wall clock, for the audit trail
	SimTime   time.Time   `json:"sim_time"`  // simulated clock when it happened
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`  // who/what performed the action
	TargetID  string      `json:"target_id"` // what was affected (optional)
	Payload   interface{} `json:"payload"`
	SimDay    int         `json:"sim_day"`
}

// Notification is a fire-and-forget observational record for the UI. The
// core never depends on a notification being acknowledged.
type Notification struct {
	Kind     EventType   `json:"kind"`
	Message  string      `json:"message"`
	SimTime  time.Time   `json:"sim_time"`
	Priority Priority    `json:"priority"`
	Payload  interface{} `json:"payload,omitempty"`
	Read     bool        `json:"read"`
}

// MaxNotifications bounds the recent-history buffer. The oldest record is
// dropped once the cap is reached.
const MaxNotifications = 100

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// EventLog is the in-memory append-only log of game events with an optional
// write-through persister.
type EventLog struct {
	mu            sync.RWMutex
	events        []GameEvent
	notifications []Notification
	persister     EventPersister
}

// NewEventLog creates a new event log. persister may be nil.
func NewEventLog(persister EventPersister) *EventLog {
	return &EventLog{
		events:        make([]GameEvent, 0),
		notifications: make([]Notification, 0, MaxNotifications),
		persister:     persister,
	}
}

// Append adds a new event to the log. Events are immutable once appended.
func (el *EventLog) Append(event GameEvent) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.events = append(el.events, event)

	if el.persister != nil {
		// Write through without blocking the tick.
		go func(e GameEvent) {
			_ = el.persister.Append(e)
		}(event)
	}
}

// Notify appends a notification record, evicting the oldest once the buffer
// is full.
func (el *EventLog) Notify(n Notification) {
	el.mu.Lock()
	defer el.mu.Unlock()
	if len(el.notifications) >= MaxNotifications {
		el.notifications = el.notifications[1:]
	}
	el.notifications = append(el.notifications, n)
}

// Notifications returns a copy of the buffered notifications, optionally
// only the unread ones.
func (el *EventLog) Notifications(unreadOnly bool) []Notification {
	el.mu.RLock()
	defer el.mu.RUnlock()

	out := make([]Notification, 0, len(el.notifications))
	for _, n := range el.notifications {
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	return out
}

// MarkAllRead flags every buffered notification as read.
func (el *EventLog) MarkAllRead() {
	el.mu.Lock()
	defer el.mu.Unlock()
	for i := range el.notifications {
		el.notifications[i].Read = true
	}
}

// GetByType returns all events of a given type.
func (el *EventLog) GetByType(t EventType) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// GetByDay returns all events that occurred on a specific simulated day.
func (el *EventLog) GetByDay(day int) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.SimDay == day {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns a copy of the full event history.
func (el *EventLog) Replay() []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	out := make([]GameEvent, len(el.events))
	copy(out, el.events)
	return out
}

// Len returns the number of recorded events.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.events)
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
