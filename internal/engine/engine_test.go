package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyrisegames/skytower/server/internal/domain/business"
	"github.com/skyrisegames/skytower/server/internal/events"
	"github.com/skyrisegames/skytower/server/internal/worldmap"
)

func newTestEngine(cash float64) (*Engine, *events.EventLog) {
	m := worldmap.Default()
	m.Cash = cash
	el := events.NewEventLog(nil)
	e := NewEngine(m, el, nil)
	e.Tower().SetSeed(7)
	return e, el
}

func TestEnginePlaceBusinessChargesBuildCost(t *testing.T) {
	e, el := newTestEngine(500000)

	ok, reason := e.PlaceBusiness(business.TypeRestaurant, 0)
	require.True(t, ok, reason)
	assert.Equal(t, 450000.0, e.Ledger().Balance())

	assert.Len(t, el.GetByType(events.EventTypeBusinessPlaced), 1)
}

func TestEnginePlaceBusinessInsufficientFunds(t *testing.T) {
	// The default bankroll cannot afford any catalog entry.
	e, _ := newTestEngine(0)

	ok, reason := e.PlaceBusiness(business.TypeRestaurant, 0)
	assert.False(t, ok)
	assert.Contains(t, reason, "insufficient funds")
	assert.Equal(t, float64(StartingBalance), e.Ledger().Balance(), "a rejected placement charges nothing")
}

func TestEnginePlaceBusinessUnknownType(t *testing.T) {
	e, _ := newTestEngine(500000)
	ok, reason := e.PlaceBusiness("casino", 0)
	assert.False(t, ok)
	assert.Contains(t, reason, "unknown business type")
}

func TestEnginePlacementFailureRefunds(t *testing.T) {
	e, _ := newTestEngine(500000)

	ok, _ := e.PlaceBusiness(business.TypeRestaurant, 0)
	require.True(t, ok)
	balance := e.Ledger().Balance()

	ok, _ = e.PlaceBusiness(business.TypeBar, 0)
	assert.False(t, ok, "the floor is taken")
	assert.Equal(t, balance, e.Ledger().Balance())
}

func TestEngineRemoveBusiness(t *testing.T) {
	e, el := newTestEngine(500000)
	_, _ = e.PlaceBusiness(business.TypeRestaurant, 0)

	assert.True(t, e.RemoveBusiness(0))
	assert.False(t, e.RemoveBusiness(0))
	assert.Len(t, el.GetByType(events.EventTypeBusinessRemoved), 1)
}

func TestEngineSnapshotBusinessesIsSafeWhileStepping(t *testing.T) {
	e, _ := newTestEngine(700000)
	_, _ = e.PlaceBusiness(business.TypeRestaurant, 0)
	_, _ = e.PlaceBusiness(business.TypeHotel, 1)

	// Read snapshots while another goroutine drives the simulation, the
	// way the periodic backup loop does. Run with -race.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			e.Step(60)
		}
	}()
	for i := 0; i < 200; i++ {
		assert.Len(t, e.SnapshotBusinesses(), 2)
		_ = e.Balance()
	}
	<-done

	snaps := e.SnapshotBusinesses()
	require.Len(t, snaps, 2)
	assert.Equal(t, business.TypeRestaurant, snaps[0].Type)
	assert.Equal(t, 0, snaps[0].Floor)
	assert.Equal(t, business.TypeHotel, snaps[1].Type)
	assert.Equal(t, 1, snaps[1].Floor)
}

func TestEngineSpeedAndPause(t *testing.T) {
	e, el := newTestEngine(0)

	e.SetSpeed("fast")
	before := e.Now()
	e.Step(60)
	assert.Equal(t, before.Add(2*time.Minute), e.Now(), "fast speed doubles simulated time")

	paused := e.TogglePause()
	assert.True(t, paused)
	frozen := e.Now()
	e.Step(3600)
	assert.Equal(t, frozen, e.Now())

	assert.False(t, e.TogglePause())
	assert.NotEmpty(t, el.GetByType(events.EventTypeSpeedChange))
}

func TestEngineHourlyAccrual(t *testing.T) {
	e, el := newTestEngine(500000)
	ok, _ := e.PlaceBusiness(business.TypeRestaurant, 0)
	require.True(t, ok)

	// The first hourly tick fires at 07:00 before income has been derived,
	// so only running costs accrue.
	e.Step(3600)
	report := e.FinancialReport()
	assert.Greater(t, report.DailyExpenses, 0.0)

	// By the second tick the business has an actual income to book.
	e.Step(3600)
	report = e.FinancialReport()
	assert.Greater(t, report.DailyRevenue, 0.0)
	assert.Greater(t, report.Expenses[ExpenseSalaries], 0.0)
	assert.Greater(t, report.Expenses[ExpenseMaintenance], 0.0)

	assert.NotEmpty(t, el.GetByType(events.EventTypeTimeTick))
}

func TestEngineMidnightRollup(t *testing.T) {
	e, el := newTestEngine(500000)
	ok, _ := e.PlaceBusiness(business.TypeRestaurant, 0)
	require.True(t, ok)

	// The game opens at 06:00; nineteen hourly steps cross midnight.
	for i := 0; i < 19; i++ {
		e.Step(3600)
	}

	require.Equal(t, 2, e.State().Day)
	rollups := el.GetByType(events.EventTypeEconomyRollup)
	require.Len(t, rollups, 1)

	// The books were reset at midnight, so the buckets hold at most the two
	// post-midnight hours, not a full day.
	report := e.FinancialReport()
	assert.Less(t, report.DailyExpenses, 150.0)
}

func TestEngineRushHours(t *testing.T) {
	e, el := newTestEngine(0)

	// Two hourly steps from 06:00 land exactly on the 08:00 rush.
	for i := 0; i < 2; i++ {
		e.Step(3600)
	}
	require.Len(t, el.GetByType(events.EventTypeRushHour), 1)
	assert.Greater(t, e.spawnMultiplier(), 1.0, "the boost lasts an hour after rush begins")

	// Nine more reach the 17:00 rush.
	for i := 0; i < 9; i++ {
		e.Step(3600)
	}
	assert.Len(t, el.GetByType(events.EventTypeRushHour), 2)
}

func TestEngineMapEventLifecycle(t *testing.T) {
	m := worldmap.Default()
	m.Events = []worldmap.SpecialEvent{{
		Kind:              "festival",
		DailyChance:       1.0, // always fires on the daily roll
		VisitorMultiplier: 1.5,
		RevenueMultiplier: 1.2,
		DurationDays:      0.1, // 2.4 hours
		Message:           "A festival fills the streets!",
	}}
	el := events.NewEventLog(nil)
	e := NewEngine(m, el, nil)
	e.Tower().SetSeed(7)

	// Step past the 09:00 roll.
	for i := 0; i < 4; i++ {
		e.Step(3600)
	}
	require.Equal(t, []string{"festival"}, e.ActiveMapEventKinds())
	assert.Len(t, el.GetByType(events.EventTypeMapEventStart), 1)
	assert.Greater(t, e.spawnMultiplier(), 1.0)
	assert.InDelta(t, 1.2, e.revenueMultiplier(), 1e-9)

	// Step past the event's end.
	for i := 0; i < 3; i++ {
		e.Step(3600)
	}
	assert.Empty(t, e.ActiveMapEventKinds())
	assert.Len(t, el.GetByType(events.EventTypeMapEventEnd), 1)
	assert.InDelta(t, 1.0, e.revenueMultiplier(), 1e-9)
}

func TestEngineMilestoneReward(t *testing.T) {
	m := worldmap.Default()
	m.Cash = 500000
	m.Milestones = []worldmap.Milestone{{
		Population: 10,
		CashReward: 5000,
		Message:    "First crowd!",
	}}
	el := events.NewEventLog(nil)
	e := NewEngine(m, el, nil)
	e.Tower().SetSeed(7)

	ok, _ := e.PlaceBusiness(business.TypeRestaurant, 0)
	require.True(t, ok)
	e.Tower().Businesses()[0].Customers = 50

	before := e.Ledger().Balance()
	e.Step(1)

	assert.Equal(t, before+5000, e.Ledger().Balance())
	require.Len(t, el.GetByType(events.EventTypeMilestone), 1)

	// Granted once; another step must not pay again.
	e.Step(1)
	assert.Equal(t, before+5000, e.Ledger().Balance())
}

func TestEngineScheduleCustom(t *testing.T) {
	e, el := newTestEngine(0)

	e.ScheduleCustom(0.5, "Check the books", map[string]interface{}{"note": "reminder"})

	// Half a simulated day later the reminder fires.
	for i := 0; i < 13; i++ {
		e.Step(3600)
	}
	custom := el.GetByType(events.EventTypeCustom)
	require.Len(t, custom, 1)

	found := false
	for _, n := range el.Notifications(false) {
		if n.Message == "Check the books" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEngineApplyUpgrade(t *testing.T) {
	e, _ := newTestEngine(0)
	e.Ledger().AddRevenue(RevenueBusinesses, 100)
	e.ApplyUpgrade(Upgrade{Name: "Ad Blitz", RevenueMultiplier: 2})
	assert.Equal(t, 200.0, e.FinancialReport().DailyRevenue)
}

func TestEngineRestore(t *testing.T) {
	e, _ := newTestEngine(0)

	restored := e.Now().Add(72 * time.Hour)
	e.RestoreClock(restored)
	assert.Equal(t, restored, e.Now())

	// Restoring a business charges nothing.
	before := e.Ledger().Balance()
	assert.True(t, e.RestoreBusiness(business.TypeRestaurant, 0))
	assert.Equal(t, before, e.Ledger().Balance())
	assert.NotNil(t, e.Tower().BusinessAt(0))
}

func TestEngineStateSnapshot(t *testing.T) {
	e, _ := newTestEngine(500000)
	_, _ = e.PlaceBusiness(business.TypeRestaurant, 0)

	s := e.State()
	assert.Equal(t, 1, s.Day)
	assert.Equal(t, 6.0, s.Hour)
	assert.False(t, s.Paused)
	assert.Equal(t, 1, s.Tower.Businesses)
	assert.Equal(t, 450000.0, s.Economy.Balance)
	assert.NotEmpty(t, s.Notifications, "the placement notification is pending")
}
