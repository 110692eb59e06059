// Package trait implements the three adaptive personality traits:
// assertiveness, empathy and curiosity. Each adapter nudges its level
// inside configured bounds as interactions come in.
//
// Adapters are not safe for concurrent use. The engine's owner goroutine
// is the only caller.
package trait

import (
	"math"
	"time"

	"github.com/ASaxcs/bot2/internal/config"
	"github.com/ASaxcs/bot2/internal/core"
	"github.com/ASaxcs/bot2/internal/logging"
)

// maxNudge caps any single externally requested level change.
const maxNudge = 0.1

// History is trimmed to keepHistory entries once it exceeds maxHistory.
const (
	maxHistory  = 100
	keepHistory = 50
)

// LevelChange records one trait level movement.
type LevelChange struct {
	Timestamp  time.Time `json:"timestamp"`
	OldLevel   float64   `json:"old_level"`
	NewLevel   float64   `json:"new_level"`
	Adjustment float64   `json:"adjustment"`
	Trigger    string    `json:"trigger"`
}

// TrendAnalysis summarizes recent trait movement.
type TrendAnalysis struct {
	Trend            string    `json:"trend"` // increasing, decreasing, stable
	AverageLevel     float64   `json:"average_level"`
	ChangeFrequency  int       `json:"change_frequency"`
	DominantTriggers []string  `json:"dominant_triggers"`
	RecentRange      []float64 `json:"recent_range,omitempty"` // [min, max]
}

// Adapter is one adaptive personality trait.
type Adapter interface {
	Name() core.TraitName
	Level() float64
	// Update folds one interaction into the trait level.
	Update(exp core.InteractionExperience)
	// Nudge applies an externally computed adjustment, capped per call.
	Nudge(delta float64, trigger string, now time.Time)
	ResetToBase()
	Trend(window int) TrendAnalysis
	History() []LevelChange
	Restore(level float64, history []LevelChange)
}

// tracker carries the state shared by all three adapters.
type tracker struct {
	name    core.TraitName
	cfg     config.TraitConfig
	level   float64
	history []LevelChange
	log     *logging.Logger
}

func newTracker(name core.TraitName, cfg config.TraitConfig) tracker {
	return tracker{
		name:  name,
		cfg:   cfg,
		level: core.ClampRange(cfg.BaseLevel, cfg.MinLevel, cfg.MaxLevel),
		log:   logging.Component("trait." + string(name)),
	}
}

func (t *tracker) Name() core.TraitName { return t.name }

func (t *tracker) Level() float64 {
	return core.ClampRange(t.level, t.cfg.MinLevel, t.cfg.MaxLevel)
}

// apply scales raw by the adaptation rate, moves the level and records
// the change. No-op for zero adjustments.
func (t *tracker) apply(raw float64, trigger string, now time.Time) {
	if raw == 0 {
		return
	}
	scaled := raw * t.cfg.AdaptationRate
	t.move(scaled, trigger, now)
}

// move shifts the level by an already-scaled delta.
func (t *tracker) move(delta float64, trigger string, now time.Time) {
	old := t.level
	t.level = core.ClampRange(t.level+delta, t.cfg.MinLevel, t.cfg.MaxLevel)

	if math.Abs(old-t.level) > 0.05 {
		t.log.Info("level adjusted: %.3f -> %.3f (%s)", old, t.level, trigger)
	}

	t.history = append(t.history, LevelChange{
		Timestamp:  now,
		OldLevel:   old,
		NewLevel:   t.level,
		Adjustment: delta,
		Trigger:    trigger,
	})
	if len(t.history) > maxHistory {
		t.history = t.history[len(t.history)-keepHistory:]
	}
}

func (t *tracker) Nudge(delta float64, trigger string, now time.Time) {
	if delta > maxNudge {
		delta = maxNudge
	} else if delta < -maxNudge {
		delta = -maxNudge
	}
	if delta == 0 {
		return
	}
	t.move(delta, trigger, now)
}

func (t *tracker) ResetToBase() {
	t.level = core.ClampRange(t.cfg.BaseLevel, t.cfg.MinLevel, t.cfg.MaxLevel)
	t.log.Info("reset to base level %.2f", t.level)
}

func (t *tracker) History() []LevelChange {
	out := make([]LevelChange, len(t.history))
	copy(out, t.history)
	return out
}

func (t *tracker) Restore(level float64, history []LevelChange) {
	t.level = core.ClampRange(level, t.cfg.MinLevel, t.cfg.MaxLevel)
	t.history = t.history[:0]
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	t.history = append(t.history, history...)
}

func (t *tracker) Trend(window int) TrendAnalysis {
	if window <= 0 || window > len(t.history) {
		window = len(t.history)
	}
	recent := t.history[len(t.history)-window:]

	if len(recent) == 0 {
		return TrendAnalysis{
			Trend:        "stable",
			AverageLevel: t.Level(),
		}
	}

	sum, lo, hi := 0.0, recent[0].NewLevel, recent[0].NewLevel
	counts := map[string]int{}
	for _, c := range recent {
		sum += c.NewLevel
		if c.NewLevel < lo {
			lo = c.NewLevel
		}
		if c.NewLevel > hi {
			hi = c.NewLevel
		}
		counts[c.Trigger]++
	}

	trend := "stable"
	if len(recent) > 1 {
		delta := recent[len(recent)-1].NewLevel - recent[0].NewLevel
		if delta > 0.1 {
			trend = "increasing"
		} else if delta < -0.1 {
			trend = "decreasing"
		}
	}

	// Up to three most frequent triggers.
	var dominant []string
	for len(dominant) < 3 && len(counts) > 0 {
		best, bestN := "", -1
		for trig, n := range counts {
			if n > bestN {
				best, bestN = trig, n
			}
		}
		dominant = append(dominant, best)
		delete(counts, best)
	}

	return TrendAnalysis{
		Trend:            trend,
		AverageLevel:     sum / float64(len(recent)),
		ChangeFrequency:  len(recent),
		DominantTriggers: dominant,
		RecentRange:      []float64{lo, hi},
	}
}

// Set bundles the three adapters.
type Set struct {
	Assertiveness *Assertiveness
	Empathy       *Empathy
	Curiosity     *Curiosity
}

// NewSet builds all three adapters from config.
func NewSet(cfg config.PersonalityConfig) *Set {
	return &Set{
		Assertiveness: NewAssertiveness(cfg.Assertiveness),
		Empathy:       NewEmpathy(cfg.Empathy),
		Curiosity:     NewCuriosity(cfg.Curiosity),
	}
}

// ByName returns the adapter for a trait name.
func (s *Set) ByName(name core.TraitName) (Adapter, bool) {
	switch name {
	case core.TraitAssertiveness:
		return s.Assertiveness, true
	case core.TraitEmpathy:
		return s.Empathy, true
	case core.TraitCuriosity:
		return s.Curiosity, true
	}
	return nil, false
}

// All returns the adapters in canonical order.
func (s *Set) All() []Adapter {
	return []Adapter{s.Assertiveness, s.Empathy, s.Curiosity}
}

// Levels returns the current level of every trait.
func (s *Set) Levels() core.PersonalityLevels {
	return core.PersonalityLevels{
		Assertiveness: s.Assertiveness.Level(),
		Empathy:       s.Empathy.Level(),
		Curiosity:     s.Curiosity.Level(),
	}
}

// Update feeds one interaction to every adapter.
func (s *Set) Update(exp core.InteractionExperience) {
	s.Assertiveness.Update(exp)
	s.Empathy.Update(exp)
	s.Curiosity.Update(exp)
}
