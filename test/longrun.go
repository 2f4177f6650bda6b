// Package test - longrun.go
// Headless long-run validation: simulate a month of tower time at high
// speed and check the invariants that must survive it.
package test

import (
	"fmt"
	"math"
	"time"

	"github.com/skyrisegames/skytower/server/internal/domain/business"
	"github.com/skyrisegames/skytower/server/internal/engine"
	"github.com/skyrisegames/skytower/server/internal/events"
	"github.com/skyrisegames/skytower/server/internal/platform/logger"
	"github.com/skyrisegames/skytower/server/internal/worldmap"
)

// simulatedDays is how much tower time the long run covers.
const simulatedDays = 30

// LongRunTest drives the engine headlessly and records invariant checks.
type LongRunTest struct {
	engine   *engine.Engine
	eventLog *events.EventLog
	logger   *logger.Logger
	results  []TestResult
}

// TestResult captures the outcome of each check.
type TestResult struct {
	ScenarioName string
	Passed       bool
	Reason       string
}

// NewLongRunTest creates the harness with a well-funded map so placements
// are not budget-limited.
func NewLongRunTest() *LongRunTest {
	log := logger.NewLogger()
	el := events.NewEventLog(nil)

	worldMap := worldmap.Default()
	worldMap.Cash = 2_000_000

	return &LongRunTest{
		engine:   engine.NewEngine(worldMap, el, log),
		eventLog: el,
		logger:   log,
		results:  make([]TestResult, 0),
	}
}

// GetResults returns the recorded check outcomes.
func (t *LongRunTest) GetResults() []TestResult {
	return t.results
}

func (t *LongRunTest) record(name string, passed bool, reason string) {
	t.results = append(t.results, TestResult{ScenarioName: name, Passed: passed, Reason: reason})
	status := "PASS"
	if !passed {
		status = "FAIL"
	}
	fmt.Printf("  [%s] %s: %s\n", status, name, reason)
}

// seedTower places a small mixed district before the clock starts.
func (t *LongRunTest) seedTower() bool {
	placements := []struct {
		t     business.Type
		floor int
	}{
		{business.TypeRestaurant, 0},
		{business.TypeBar, 1},
		{business.TypeRetail, 2},
		{business.TypeHotel, 3}, // grows the tower to floor 6
		{business.TypeSpa, 7},
		{business.TypeOffice, 8},
	}
	for _, p := range placements {
		if ok, reason := t.engine.PlaceBusiness(p.t, p.floor); !ok {
			t.record("seed placements", false, fmt.Sprintf("%s at %d rejected: %s", p.t, p.floor, reason))
			return false
		}
	}
	t.record("seed placements", true, fmt.Sprintf("%d businesses placed", len(placements)))
	return true
}

// RunTest simulates the configured days at ultra speed and verifies the
// invariants.
func (t *LongRunTest) RunTest() {
	if !t.seedTower() {
		return
	}

	t.engine.SetSpeed("ultra")

	lastClock := t.engine.Now()
	monotonic := true
	synergyBounded := true
	reputationBounded := true
	balanceFinite := true

	// Each step feeds one simulated hour at normal speed; ultra multiplies
	// that by 5, so a month passes in a few thousand iterations.
	stepSimSeconds := 3600.0
	deadline := time.Now().Add(2 * time.Minute)

	for {
		t.engine.Step(stepSimSeconds)

		now := t.engine.Now()
		if now.Before(lastClock) {
			monotonic = false
		}
		lastClock = now

		for _, b := range t.engine.Tower().Businesses() {
			if b.SynergyBonus > 0.75+1e-9 {
				synergyBounded = false
			}
		}
		rep := t.engine.Tower().Reputation()
		if rep < 0 || rep > 100 {
			reputationBounded = false
		}
		if math.IsNaN(t.engine.Ledger().Balance()) || math.IsInf(t.engine.Ledger().Balance(), 0) {
			balanceFinite = false
		}

		if dayOf(t) >= simulatedDays {
			break
		}
		if time.Now().After(deadline) {
			t.record("wall clock budget", false, "simulation did not reach the target day in time")
			return
		}
	}

	t.record("clock monotonic", monotonic, "simulated time never moved backwards")
	t.record("synergy clamp", synergyBounded, "no business exceeded the 0.75 bonus cap")
	t.record("reputation bounds", reputationBounded, "reputation stayed within [0,100]")
	t.record("balance finite", balanceFinite, fmt.Sprintf("final balance %.0f", t.engine.Ledger().Balance()))

	t.record("target reached", dayOf(t) >= simulatedDays,
		fmt.Sprintf("simulated through day %d", dayOf(t)))

	// The recurring schedule must not leak: four recurring rules plus at
	// most a handful of one-shot map event ends should be pending.
	pending := t.engine.Scheduler().Pending()
	t.record("bounded schedule", pending < 20,
		fmt.Sprintf("%d pending scheduler entries", pending))

	// A month of hourly ticks and daily rollups leaves a long trail.
	t.record("event trail", t.eventLog.Len() > simulatedDays*24,
		fmt.Sprintf("%d events recorded", t.eventLog.Len()))

	// Daily buckets were reset at the final midnight, so accumulated
	// revenue must cover at most the current partial day.
	report := t.engine.FinancialReport()
	t.record("daily reset", report.DailyRevenue >= 0 && report.DailyExpenses >= 0,
		fmt.Sprintf("partial day revenue %.0f expenses %.0f", report.DailyRevenue, report.DailyExpenses))
}

func dayOf(t *LongRunTest) int {
	return t.engine.State().Day
}
