package engine

import (
	"context"
	"time"

	"github.com/ASaxcs/bot2/internal/scheduler"
)

// RegisterMaintenance wires the engine's periodic work into the
// scheduler: decay ticks and coalesced saves at their configured
// intervals.
func (e *Engine) RegisterMaintenance(s *scheduler.Scheduler) error {
	decayEvery := time.Duration(e.settings.Engine.DecayIntervalSec) * time.Second
	saveEvery := time.Duration(e.settings.Engine.SaveIntervalSec) * time.Second

	if err := s.Register(scheduler.IntervalTask(
		"engine.decay", "Emotional decay tick", decayEvery,
		func(ctx context.Context) error { return e.DecayNow() },
	)); err != nil {
		return err
	}
	return s.Register(scheduler.IntervalTask(
		"engine.save", "Coalesced state save", saveEvery,
		func(ctx context.Context) error { return e.saveIfDirty() },
	))
}

// saveIfDirty persists only when a mutation happened since the last
// save, so the save task is cheap when the engine is idle.
func (e *Engine) saveIfDirty() error {
	_, err := e.submit(func(now time.Time) (any, error) {
		if !e.dirty {
			return nil, nil
		}
		return nil, e.persist(now)
	})
	return err
}
