package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyrisegames/skytower/server/internal/events"
)

func TestSchedulerFiresInDueOrder(t *testing.T) {
	clock := NewClock()
	sched := NewScheduler(clock)

	var fired []string
	record := func(name string) Callback {
		return func(map[string]interface{}) { fired = append(fired, name) }
	}

	sched.ScheduleAfter(3*time.Minute, events.PriorityMedium, record("third"), nil)
	sched.ScheduleAfter(1*time.Minute, events.PriorityMedium, record("first"), nil)
	sched.ScheduleAfter(2*time.Minute, events.PriorityMedium, record("second"), nil)

	sched.Tick(10 * 60) // 10 simulated minutes at normal speed

	assert.Equal(t, []string{"first", "second", "third"}, fired)
	assert.Equal(t, 0, sched.Pending())
}

func TestSchedulerPriorityBreaksDueTies(t *testing.T) {
	clock := NewClock()
	sched := NewScheduler(clock)
	due := clock.Now().Add(time.Minute)

	var fired []string
	record := func(name string) Callback {
		return func(map[string]interface{}) { fired = append(fired, name) }
	}

	sched.ScheduleOnce(due, events.PriorityLow, record("low"), nil)
	sched.ScheduleOnce(due, events.PriorityHigh, record("high"), nil)
	sched.ScheduleOnce(due, events.PriorityMedium, record("medium"), nil)

	sched.Tick(120)

	assert.Equal(t, []string{"high", "medium", "low"}, fired)
}

func TestSchedulerInsertionOrderBreaksFullTies(t *testing.T) {
	clock := NewClock()
	sched := NewScheduler(clock)
	due := clock.Now().Add(time.Minute)

	var fired []string
	record := func(name string) Callback {
		return func(map[string]interface{}) { fired = append(fired, name) }
	}

	sched.ScheduleOnce(due, events.PriorityMedium, record("a"), nil)
	sched.ScheduleOnce(due, events.PriorityMedium, record("b"), nil)
	sched.ScheduleOnce(due, events.PriorityMedium, record("c"), nil)

	sched.Tick(120)

	assert.Equal(t, []string{"a", "b", "c"}, fired)
}

func TestSchedulerCancel(t *testing.T) {
	clock := NewClock()
	sched := NewScheduler(clock)

	fired := false
	h := sched.ScheduleAfter(time.Minute, events.PriorityMedium, func(map[string]interface{}) {
		fired = true
	}, nil)

	require.True(t, sched.Cancel(h))
	assert.False(t, sched.Cancel(h), "second cancel must report failure")
	assert.False(t, sched.Cancel(Handle(9999)), "unknown handle must report failure")

	sched.Tick(120)
	assert.False(t, fired, "cancelled event must not fire")
	assert.Equal(t, 0, sched.Pending())
}

func TestSchedulerPastDueFiresImmediately(t *testing.T) {
	clock := NewClock()
	sched := NewScheduler(clock)

	fired := false
	sched.ScheduleOnce(clock.Now().Add(-time.Hour), events.PriorityMedium, func(map[string]interface{}) {
		fired = true
	}, nil)

	sched.Tick(1)
	assert.True(t, fired, "a past due time is clamped to now, not dropped")
}

func TestSchedulerRecurringCatchUp(t *testing.T) {
	clock := NewClock()
	sched := NewScheduler(clock)

	count := 0
	sched.ScheduleRecurring(clock.Now().Add(time.Hour), time.Hour, events.PriorityMedium,
		func(map[string]interface{}) { count++ }, nil)

	// One big jump past three boundaries fires the missed occurrences
	// back-to-back within the same tick.
	sched.Tick(3 * 3600)
	assert.Equal(t, 3, count)
	assert.Equal(t, 1, sched.Pending(), "exactly one instance per rule stays pending")

	sched.Tick(3600)
	assert.Equal(t, 4, count)
}

func TestSchedulerCancelStopsRecurringRule(t *testing.T) {
	clock := NewClock()
	sched := NewScheduler(clock)

	count := 0
	h := sched.ScheduleRecurring(clock.Now().Add(time.Minute), time.Minute, events.PriorityMedium,
		func(map[string]interface{}) { count++ }, nil)

	sched.Tick(120)
	require.Equal(t, 2, count)

	require.True(t, sched.Cancel(h))
	sched.Tick(300)
	assert.Equal(t, 2, count, "no occurrence may fire after cancellation")
}

func TestSchedulerRecurringRuleMayCancelItself(t *testing.T) {
	clock := NewClock()
	sched := NewScheduler(clock)

	count := 0
	var h Handle
	h = sched.ScheduleRecurring(clock.Now().Add(time.Minute), time.Minute, events.PriorityMedium,
		func(map[string]interface{}) {
			count++
			require.True(t, sched.Cancel(h))
		}, nil)

	sched.Tick(6 * 60)
	assert.Equal(t, 1, count, "a rule cancelled from its own callback must not be re-enqueued")
	assert.Equal(t, 0, sched.Pending())
	assert.False(t, sched.Cancel(h), "the handle is finished after the in-callback cancel")
}

func TestSchedulerCallbackMayScheduleDuringDispatch(t *testing.T) {
	clock := NewClock()
	sched := NewScheduler(clock)

	var fired []string
	sched.ScheduleAfter(time.Minute, events.PriorityMedium, func(map[string]interface{}) {
		fired = append(fired, "outer")
		// Already due, so it fires within the same dispatch pass.
		sched.ScheduleOnce(clock.Now(), events.PriorityMedium, func(map[string]interface{}) {
			fired = append(fired, "inner")
		}, nil)
	}, nil)

	sched.Tick(60)
	assert.Equal(t, []string{"outer", "inner"}, fired)
}

func TestSchedulerPayloadDelivery(t *testing.T) {
	clock := NewClock()
	sched := NewScheduler(clock)

	var got map[string]interface{}
	sched.ScheduleAfter(time.Second, events.PriorityMedium, func(p map[string]interface{}) {
		got = p
	}, map[string]interface{}{"period": "morning"})

	sched.Tick(2)
	require.NotNil(t, got)
	assert.Equal(t, "morning", got["period"])
}

func TestSchedulerNoDispatchWhilePaused(t *testing.T) {
	clock := NewClock()
	sched := NewScheduler(clock)

	fired := false
	sched.ScheduleAfter(time.Second, events.PriorityMedium, func(map[string]interface{}) {
		fired = true
	}, nil)

	clock.SetSpeed(SpeedPause)
	assert.Zero(t, sched.Tick(3600))
	assert.False(t, fired)

	clock.SetSpeed(SpeedNormal)
	sched.Tick(2)
	assert.True(t, fired)
}

func TestSchedulerNextDue(t *testing.T) {
	clock := NewClock()
	sched := NewScheduler(clock)

	assert.True(t, sched.NextDue().IsZero(), "empty queue has no next due time")

	first := clock.Now().Add(time.Minute)
	sched.ScheduleOnce(clock.Now().Add(time.Hour), events.PriorityMedium, func(map[string]interface{}) {}, nil)
	h := sched.ScheduleOnce(first, events.PriorityMedium, func(map[string]interface{}) {}, nil)

	assert.Equal(t, first, sched.NextDue())

	sched.Cancel(h)
	assert.Equal(t, clock.Now().Add(time.Hour), sched.NextDue(), "cancelled entries are ignored")
}
