// Package engine contains the simulation core: the clock and event
// scheduler, the tower aggregator, the economy ledger and the orchestrator
// that wires them together.
package engine

import "time"

// Speed is a named simulation speed token.
type Speed string

const (
	SpeedPause  Speed = "pause"
	SpeedNormal Speed = "normal"
	SpeedFast   Speed = "fast"
	SpeedUltra  Speed = "ultra"
)

// speedMultipliers maps each token to its time multiplier.
var speedMultipliers = map[Speed]float64{
	SpeedPause:  0,
	SpeedNormal: 1,
	SpeedFast:   2,
	SpeedUltra:  5,
}

// simEpoch is where every new game starts: opening day at 06:00.
var simEpoch = time.Date(2025, time.January, 1, 6, 0, 0, 0, time.UTC)

// Clock owns the simulated time. Time only moves through Advance and is
// monotonically non-decreasing while unpaused.
type Clock struct {
	now        time.Time
	multiplier float64
	paused     bool
}

// NewClock creates a clock at the simulation epoch, running at normal speed.
func NewClock() *Clock {
	return &Clock{now: simEpoch, multiplier: 1}
}

// Advance moves simulated time forward by elapsedSeconds scaled by the
// current speed multiplier. It returns the simulated seconds actually
// advanced (zero while paused).
func (c *Clock) Advance(elapsedSeconds float64) float64 {
	if c.paused {
		return 0
	}
	simSeconds := elapsedSeconds * c.multiplier
	c.now = c.now.Add(time.Duration(simSeconds * float64(time.Second)))
	return simSeconds
}

// SetSpeed applies a named speed token. Unknown tokens fall back to normal,
// matching the forgiving behavior of the speed menu.
func (c *Clock) SetSpeed(s Speed) {
	mult, ok := speedMultipliers[s]
	if !ok {
		mult = 1
	}
	c.multiplier = mult
	c.paused = s == SpeedPause
}

// TogglePause flips the pause flag without touching the stored multiplier,
// so resuming restores the previous speed.
func (c *Clock) TogglePause() bool {
	c.paused = !c.paused
	if c.paused {
		return true
	}
	if c.multiplier == 0 {
		c.multiplier = 1
	}
	return false
}

// SetTime overrides the simulated time; used when restoring a saved clock.
func (c *Clock) SetTime(t time.Time) {
	c.now = t
}

// Now returns the current simulated time.
func (c *Clock) Now() time.Time {
	return c.now
}

// Paused reports whether the clock is paused.
func (c *Clock) Paused() bool {
	return c.paused
}

// Multiplier returns the active speed multiplier.
func (c *Clock) Multiplier() float64 {
	return c.multiplier
}

// HourOfDay returns the fractional hour of the simulated day, e.g. 13.5 at
// half past one.
func (c *Clock) HourOfDay() float64 {
	return float64(c.now.Hour()) + float64(c.now.Minute())/60
}

// Day returns the 1-based simulated day number since the epoch.
func (c *Clock) Day() int {
	return int(c.now.Sub(simEpoch.Truncate(24*time.Hour)).Hours()/24) + 1
}

// TimeString formats the simulated time for display.
func (c *Clock) TimeString() string {
	return c.now.Format("2006-01-02 15:04")
}
