package events

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLogAppendAndReplay(t *testing.T) {
	el := NewEventLog(nil)
	require.Zero(t, el.Len())

	el.Append(GameEvent{ID: GenerateEventID(), Type: EventTypeBusinessPlaced, SimDay: 1})
	el.Append(GameEvent{ID: GenerateEventID(), Type: EventTypeRushHour, SimDay: 2})

	assert.Equal(t, 2, el.Len())

	replay := el.Replay()
	require.Len(t, replay, 2)
	assert.Equal(t, EventTypeBusinessPlaced, replay[0].Type)

	// Replay hands out a copy; mutating it must not corrupt the log.
	replay[0].Type = EventTypeCustom
	assert.Equal(t, EventTypeBusinessPlaced, el.Replay()[0].Type)
}

func TestEventLogFilters(t *testing.T) {
	el := NewEventLog(nil)
	el.Append(GameEvent{Type: EventTypeTimeTick, SimDay: 1})
	el.Append(GameEvent{Type: EventTypeTimeTick, SimDay: 2})
	el.Append(GameEvent{Type: EventTypeMilestone, SimDay: 2})

	assert.Len(t, el.GetByType(EventTypeTimeTick), 2)
	assert.Len(t, el.GetByType(EventTypeMilestone), 1)
	assert.Empty(t, el.GetByType(EventTypeRushHour))

	assert.Len(t, el.GetByDay(2), 2)
	assert.Empty(t, el.GetByDay(5))
}

type recordingPersister struct {
	mu     sync.Mutex
	events []GameEvent
}

func (p *recordingPersister) Append(e GameEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestEventLogWritesThroughToPersister(t *testing.T) {
	p := &recordingPersister{}
	el := NewEventLog(p)

	el.Append(GameEvent{ID: "e1", Type: EventTypeBusinessPlaced})

	// Persistence is asynchronous so the tick never blocks on the store.
	assert.Eventually(t, func() bool { return p.count() == 1 },
		time.Second, 5*time.Millisecond)
}

func TestNotificationRingEvictsOldest(t *testing.T) {
	el := NewEventLog(nil)
	for i := 0; i < MaxNotifications+10; i++ {
		el.Notify(Notification{Kind: EventTypeCustom, Message: fmt.Sprintf("n%d", i)})
	}

	notes := el.Notifications(false)
	require.Len(t, notes, MaxNotifications)
	assert.Equal(t, "n10", notes[0].Message, "the oldest records were dropped")
	assert.Equal(t, fmt.Sprintf("n%d", MaxNotifications+9), notes[len(notes)-1].Message)
}

func TestNotificationsUnreadFilter(t *testing.T) {
	el := NewEventLog(nil)
	el.Notify(Notification{Kind: EventTypeRushHour, Message: "rush"})
	el.Notify(Notification{Kind: EventTypeMilestone, Message: "milestone"})

	assert.Len(t, el.Notifications(true), 2)

	el.MarkAllRead()
	assert.Empty(t, el.Notifications(true))
	assert.Len(t, el.Notifications(false), 2, "read notifications remain in the buffer")
}

func TestPriorityString(t *testing.T) {
	assert.Equal(t, "LOW", PriorityLow.String())
	assert.Equal(t, "MEDIUM", PriorityMedium.String())
	assert.Equal(t, "HIGH", PriorityHigh.String())
	assert.Equal(t, "CRITICAL", PriorityCritical.String())
	assert.Equal(t, "UNKNOWN", Priority(42).String())
}

func TestGenerateEventIDIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateEventID()
		require.NotEmpty(t, id)
		require.False(t, seen[id])
		seen[id] = true
	}
}
