package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/skyrisegames/skytower/server/internal/domain/business"
	"github.com/skyrisegames/skytower/server/internal/events"
	"github.com/skyrisegames/skytower/server/internal/platform/logger"
	"github.com/skyrisegames/skytower/server/internal/worldmap"
)

// salaryPerStaffPerDay is the flat daily wage per staff member.
const salaryPerStaffPerDay = 100

// rushHourBoost is the visitor multiplier applied for one hour after each
// rush hour starts.
const rushHourBoost = 1.5

// mapEventState tracks an active map-wide event and its modifiers.
type mapEventState struct {
	event worldmap.SpecialEvent
	until time.Time
}

// Engine is the central orchestrator: it owns the clock, scheduler, tower,
// ledger and map, and applies player commands. Every exported entry point
// takes the mutex; the simulation itself is single-threaded per frame.
type Engine struct {
	mu sync.Mutex

	eventLog *events.EventLog
	logger   *logger.Logger
	worldMap worldmap.Map

	clock     *Clock
	scheduler *Scheduler
	tower     *Tower
	ledger    *Ledger

	activeMapEvents map[string]*mapEventState
	rushUntil       time.Time
	lastStars       int
}

// NewEngine wires the simulation together and bootstraps the recurring
// schedule (rush hours, hourly accrual, daily rollup, map event rolls).
func NewEngine(worldMap worldmap.Map, eventLog *events.EventLog, log *logger.Logger) *Engine {
	clock := NewClock()
	e := &Engine{
		eventLog:        eventLog,
		logger:          log,
		worldMap:        worldMap,
		clock:           clock,
		scheduler:       NewScheduler(clock),
		tower:           NewTower(worldMap, eventLog, log),
		ledger:          NewLedger(worldMap.StartingCash()),
		activeMapEvents: make(map[string]*mapEventState),
		lastStars:       1,
	}
	e.bootstrapSchedule()
	return e
}

// nextOccurrence returns the next simulated time at hour:00, strictly after
// now.
func (e *Engine) nextOccurrence(hour int) time.Time {
	now := e.clock.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

func (e *Engine) bootstrapSchedule() {
	day := 24 * time.Hour

	// Hourly heartbeat: accrue income and costs, emit the time tick.
	e.scheduler.ScheduleRecurring(e.clock.Now().Truncate(time.Hour).Add(time.Hour), time.Hour,
		events.PriorityMedium, e.onHourTick, nil)

	// Morning and evening rush.
	e.scheduler.ScheduleRecurring(e.nextOccurrence(8), day, events.PriorityMedium, e.onRushHour,
		map[string]interface{}{"period": "morning"})
	e.scheduler.ScheduleRecurring(e.nextOccurrence(17), day, events.PriorityMedium, e.onRushHour,
		map[string]interface{}{"period": "evening"})

	// Daily map event roll, mid-morning.
	e.scheduler.ScheduleRecurring(e.nextOccurrence(9), day, events.PriorityLow, e.onMapEventRoll, nil)

	// Midnight ledger rollup. High priority so the books close before
	// anything else scheduled at the same instant.
	e.scheduler.ScheduleRecurring(e.nextOccurrence(0), day, events.PriorityHigh, e.onMidnight, nil)
}

// Step advances the simulation by dtSeconds of real time. It is the only
// mutating path during normal operation.
func (e *Engine) Step(dtSeconds float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	simSeconds := e.scheduler.Tick(dtSeconds)
	if simSeconds <= 0 {
		return
	}

	dtDays := simSeconds / 86400
	e.tower.Tick(dtDays, e.clock.HourOfDay(), e.clock.Day(), e.spawnMultiplier())

	e.checkMilestones()
	e.checkStarRating()
}

// spawnMultiplier combines active map events and the rush hour boost into
// the customer draw factor. Callers hold the mutex.
func (e *Engine) spawnMultiplier() float64 {
	m := 1.0
	for _, s := range e.activeMapEvents {
		if s.event.VisitorMultiplier > 0 {
			m *= s.event.VisitorMultiplier
		}
	}
	if e.clock.Now().Before(e.rushUntil) {
		m *= rushHourBoost
	}
	return m
}

// revenueMultiplier combines active map events into the income factor.
func (e *Engine) revenueMultiplier() float64 {
	m := 1.0
	for _, s := range e.activeMapEvents {
		if s.event.RevenueMultiplier > 0 {
			m *= s.event.RevenueMultiplier
		}
	}
	return m
}

// onHourTick accrues one hour of income and running costs and emits the
// TIME_TICK event.
func (e *Engine) onHourTick(map[string]interface{}) {
	revMult := e.revenueMultiplier()
	for _, b := range e.tower.Businesses() {
		if !b.Open {
			continue
		}
		e.ledger.AddRevenue(RevenueBusinesses, b.ActualIncome/24*revMult)
		e.ledger.AddExpense(ExpenseMaintenance, b.Maintenance/24)
		e.ledger.AddExpense(ExpenseSalaries, float64(b.Staff)*salaryPerStaffPerDay/24)
	}

	e.appendEvent(events.EventTypeTimeTick, "clock", "", map[string]interface{}{
		"day":  e.clock.Day(),
		"hour": int(e.clock.HourOfDay()),
	})
}

// onRushHour applies the one-hour visitor boost and notifies clients.
func (e *Engine) onRushHour(payload map[string]interface{}) {
	e.rushUntil = e.clock.Now().Add(time.Hour)
	period, _ := payload["period"].(string)

	e.appendEvent(events.EventTypeRushHour, "clock", "", payload)
	e.notify(events.EventTypeRushHour, fmt.Sprintf("%s rush hour! Visitors surge.", period), events.PriorityLow, nil)
}

// onMapEventRoll rolls each of the map's special events once per day.
// An event already running is not rolled again.
func (e *Engine) onMapEventRoll(map[string]interface{}) {
	for _, ev := range e.worldMap.SpecialEvents() {
		if _, running := e.activeMapEvents[ev.Kind]; running {
			continue
		}
		if e.tower.rng.Float64() >= ev.DailyChance {
			continue
		}
		e.startMapEvent(ev)
	}
}

func (e *Engine) startMapEvent(ev worldmap.SpecialEvent) {
	duration := time.Duration(ev.DurationDays * 24 * float64(time.Hour))
	e.activeMapEvents[ev.Kind] = &mapEventState{
		event: ev,
		until: e.clock.Now().Add(duration),
	}

	e.appendEvent(events.EventTypeMapEventStart, e.worldMap.Name(), ev.Kind, map[string]interface{}{
		"visitor_multiplier": ev.VisitorMultiplier,
		"revenue_multiplier": ev.RevenueMultiplier,
		"duration_days":      ev.DurationDays,
	})
	e.notify(events.EventTypeMapEventStart, ev.Message, events.PriorityHigh, nil)
	if e.logger != nil {
		e.logger.Event(string(events.EventTypeMapEventStart), e.worldMap.Name(), ev.Kind)
	}

	kind := ev.Kind
	e.scheduler.ScheduleAfter(duration, events.PriorityMedium, func(map[string]interface{}) {
		e.endMapEvent(kind)
	}, nil)
}

func (e *Engine) endMapEvent(kind string) {
	if _, ok := e.activeMapEvents[kind]; !ok {
		return
	}
	delete(e.activeMapEvents, kind)
	e.appendEvent(events.EventTypeMapEventEnd, e.worldMap.Name(), kind, nil)
	e.notify(events.EventTypeMapEventEnd, fmt.Sprintf("The %s is over.", kind), events.PriorityLow, nil)
}

// onMidnight closes the day's books: roll the buckets into the balance,
// record the rollup, then reset for the new day.
func (e *Engine) onMidnight(map[string]interface{}) {
	report := e.ledger.Report()
	net := e.ledger.UpdateBalance()

	e.appendEvent(events.EventTypeEconomyRollup, "ledger", "", map[string]interface{}{
		"revenue":  report.DailyRevenue,
		"expenses": report.DailyExpenses,
		"net":      net,
		"balance":  e.ledger.Balance(),
	})
	e.notify(events.EventTypeEconomyRollup,
		fmt.Sprintf("Day %d closed: %+.0f (balance %.0f)", e.clock.Day()-1, net, e.ledger.Balance()),
		events.PriorityMedium, nil)

	e.ledger.ResetDailyValues()
}

// checkMilestones grants map milestones the tower population has newly
// reached.
func (e *Engine) checkMilestones() {
	reached := e.worldMap.OnPopulationMilestone(e.tower.Population())
	for _, m := range reached {
		if m.CashReward > 0 {
			e.ledger.Deposit(m.CashReward)
		}
		e.appendEvent(events.EventTypeMilestone, e.worldMap.Name(), "", map[string]interface{}{
			"population":  m.Population,
			"cash_reward": m.CashReward,
			"unlocks":     m.Unlocks,
		})
		e.notify(events.EventTypeMilestone, m.Message, events.PriorityHigh, nil)
		if e.logger != nil {
			e.logger.Event(string(events.EventTypeMilestone), e.worldMap.Name(), m.Message)
		}
	}
}

// checkStarRating forwards rating changes to the map.
func (e *Engine) checkStarRating() {
	stars := e.tower.StarRating()
	if stars == e.lastStars {
		return
	}
	e.lastStars = stars
	e.worldMap.OnStarRatingChange(stars)
	e.notify(events.EventTypeMilestone, fmt.Sprintf("The tower is now rated %d stars.", stars), events.PriorityMedium, nil)
}

func (e *Engine) appendEvent(t events.EventType, actor, target string, payload interface{}) {
	if e.eventLog == nil {
		return
	}
	e.eventLog.Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		SimTime:   e.clock.Now(),
		Type:      t,
		ActorID:   actor,
		TargetID:  target,
		Payload:   payload,
		SimDay:    e.clock.Day(),
	})
}

func (e *Engine) notify(kind events.EventType, message string, priority events.Priority, payload interface{}) {
	if e.eventLog == nil {
		return
	}
	e.eventLog.Notify(events.Notification{
		Kind:     kind,
		Message:  message,
		SimTime:  e.clock.Now(),
		Priority: priority,
		Payload:  payload,
	})
}

// --- Player commands ---

// PlaceBusiness buys and places a business. The build cost is withdrawn
// first and refunded if placement fails, so a rejected placement leaves both
// tower and ledger untouched.
func (e *Engine) PlaceBusiness(t business.Type, floorNum int) (ok bool, reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cfg, known := business.Catalog[t]
	if !known {
		return false, fmt.Sprintf("unknown business type %q", t)
	}
	if can, why := e.tower.CanPlace(t, floorNum); !can {
		return false, why
	}
	if !e.ledger.Withdraw(cfg.BuildCost) {
		return false, fmt.Sprintf("insufficient funds: need %.0f, have %.0f", cfg.BuildCost, e.ledger.Balance())
	}
	b, placed := e.tower.AddBusiness(t, floorNum)
	if !placed {
		e.ledger.Deposit(cfg.BuildCost)
		return false, "placement failed"
	}

	e.appendEvent(events.EventTypeBusinessPlaced, string(t), fmt.Sprintf("floor-%d", floorNum), map[string]interface{}{
		"size": b.Size(),
		"cost": cfg.BuildCost,
	})
	e.notify(events.EventTypeBusinessPlaced, fmt.Sprintf("New %s opened on floor %d.", t, floorNum), events.PriorityLow, nil)
	return true, ""
}

// RemoveBusiness tears down the business at floorNum.
func (e *Engine) RemoveBusiness(floorNum int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	b := e.tower.BusinessAt(floorNum)
	if b == nil || !e.tower.RemoveBusiness(floorNum) {
		return false
	}
	e.appendEvent(events.EventTypeBusinessRemoved, string(b.Type), fmt.Sprintf("floor-%d", b.Floor), nil)
	return true
}

// SetSpeed applies a named simulation speed.
func (e *Engine) SetSpeed(speed string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clock.SetSpeed(Speed(speed))
	e.appendEvent(events.EventTypeSpeedChange, "player", "", map[string]interface{}{
		"speed":      speed,
		"multiplier": e.clock.Multiplier(),
	})
}

// TogglePause flips the pause state and reports whether the clock is now
// paused.
func (e *Engine) TogglePause() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	paused := e.clock.TogglePause()
	e.appendEvent(events.EventTypeSpeedChange, "player", "", map[string]interface{}{"paused": paused})
	return paused
}

// ScheduleCustom queues a player-defined reminder delayDays of simulated
// time from now.
func (e *Engine) ScheduleCustom(delayDays float64, message string, payload map[string]interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delay := time.Duration(delayDays * 24 * float64(time.Hour))
	e.scheduler.ScheduleAfter(delay, events.PriorityLow, func(p map[string]interface{}) {
		e.appendEvent(events.EventTypeCustom, "player", "", p)
		e.notify(events.EventTypeCustom, message, events.PriorityLow, p)
	}, payload)
}

// ApplyUpgrade records a permanent economy upgrade.
func (e *Engine) ApplyUpgrade(u Upgrade) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ledger.ApplyUpgrade(u)
}

// --- Restore hooks, used when booting from snapshots ---

// RestoreClock overrides the simulated time without dispatching anything.
func (e *Engine) RestoreClock(t time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clock.SetTime(t)
}

// RestoreBusiness places a business without charging the build cost.
func (e *Engine) RestoreBusiness(t business.Type, floorNum int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.tower.AddBusiness(t, floorNum)
	return ok
}

// --- Queries ---

// ActiveMapEventKinds lists the map events currently in effect.
func (e *Engine) ActiveMapEventKinds() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	kinds := make([]string, 0, len(e.activeMapEvents))
	for k := range e.activeMapEvents {
		kinds = append(kinds, k)
	}
	return kinds
}

// GameState is the combined snapshot served over the wire.
type GameState struct {
	Time            string                `json:"time"`
	Day             int                   `json:"day"`
	Hour            float64               `json:"hour"`
	Paused          bool                  `json:"paused"`
	SpeedMultiplier float64               `json:"speed_multiplier"`
	Tower           Stats                 `json:"tower"`
	Economy         FinancialReport       `json:"economy"`
	ActiveEvents    []string              `json:"active_events"`
	Notifications   []events.Notification `json:"notifications"`
}

// State snapshots the whole game for clients.
func (e *Engine) State() GameState {
	e.mu.Lock()
	defer e.mu.Unlock()

	kinds := make([]string, 0, len(e.activeMapEvents))
	for k := range e.activeMapEvents {
		kinds = append(kinds, k)
	}

	var notes []events.Notification
	if e.eventLog != nil {
		notes = e.eventLog.Notifications(true)
	}

	return GameState{
		Time:            e.clock.TimeString(),
		Day:             e.clock.Day(),
		Hour:            e.clock.HourOfDay(),
		Paused:          e.clock.Paused(),
		SpeedMultiplier: e.clock.Multiplier(),
		Tower:           e.tower.Stats(),
		Economy:         e.ledger.Report(),
		ActiveEvents:    kinds,
		Notifications:   notes,
	}
}

// TowerStats snapshots the tower.
func (e *Engine) TowerStats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tower.Stats()
}

// FloorStats snapshots one floor.
func (e *Engine) FloorStats(floorNum int) (FloorInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tower.FloorStats(floorNum)
}

// AllFloorStats snapshots every floor.
func (e *Engine) AllFloorStats() []FloorInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tower.AllFloorStats()
}

// FinancialReport snapshots the ledger.
func (e *Engine) FinancialReport() FinancialReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Report()
}

// BusinessSnapshot is a point-in-time copy of one business, safe to read
// after the engine lock is released.
type BusinessSnapshot struct {
	Type         business.Type
	Floor        int
	Popularity   float64
	Satisfaction float64
	Customers    int
	Open         bool
}

// SnapshotBusinesses copies every placed business under the engine lock.
// Concurrent readers (the backup loop) must use this instead of walking
// Tower().Businesses() directly.
func (e *Engine) SnapshotBusinesses() []BusinessSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snaps := make([]BusinessSnapshot, 0, len(e.tower.businesses))
	for _, b := range e.tower.businesses {
		snaps = append(snaps, BusinessSnapshot{
			Type:         b.Type,
			Floor:        b.Floor,
			Popularity:   b.Popularity,
			Satisfaction: b.Satisfaction,
			Customers:    b.Customers,
			Open:         b.Open,
		})
	}
	return snaps
}

// Balance returns the current ledger balance.
func (e *Engine) Balance() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Balance()
}

// TimeString formats the simulated time.
func (e *Engine) TimeString() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.TimeString()
}

// Now returns the simulated time.
func (e *Engine) Now() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.Now()
}

// Tower exposes the tower for single-threaded test harnesses. It bypasses
// the engine lock; concurrent callers must use SnapshotBusinesses or
// TowerStats instead.
func (e *Engine) Tower() *Tower {
	return e.tower
}

// Ledger exposes the ledger for single-threaded test harnesses. It bypasses
// the engine lock; concurrent callers must use Balance or FinancialReport
// instead.
func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

// Scheduler exposes the scheduler for test harnesses.
func (e *Engine) Scheduler() *Scheduler {
	return e.scheduler
}

// EventLog exposes the event log for the network layer.
func (e *Engine) EventLog() *events.EventLog {
	return e.eventLog
}
