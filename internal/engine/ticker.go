package engine

import (
	"context"
	"time"

	"github.com/skyrisegames/skytower/server/internal/platform/logger"
	"github.com/skyrisegames/skytower/server/internal/platform/metrics"
)

// TickRate defines how often the simulation advances in real time.
const TickRate = 250 * time.Millisecond

// TimeScale converts real seconds into simulated seconds before the speed
// multiplier: one real second is one simulated minute at normal speed.
const TimeScale = 60.0

// Ticker drives the engine at a fixed real-time cadence. It only knows about
// time progression, never about tower state.
type Ticker struct {
	engine   *Engine
	logger   *logger.Logger
	stopChan chan struct{}
}

// NewTicker creates a ticker for the given engine.
func NewTicker(e *Engine, log *logger.Logger) *Ticker {
	return &Ticker{
		engine:   e,
		logger:   log,
		stopChan: make(chan struct{}),
	}
}

// Start begins the loop. Call in a goroutine.
func (t *Ticker) Start(ctx context.Context) {
	t.logger.Info("Engine ticker started.")

	ticker := time.NewTicker(TickRate)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Engine ticker stopped by context.")
			return
		case <-t.stopChan:
			t.logger.Info("Engine ticker stopped manually.")
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last).Seconds()
			last = now

			start := time.Now()
			t.engine.Step(elapsed * TimeScale)
			metrics.Get().RecordTick(time.Since(start))
		}
	}
}

// Stop gracefully stops the ticker.
func (t *Ticker) Stop() {
	close(t.stopChan)
}
