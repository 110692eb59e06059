package engine

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ASaxcs/bot2/internal/adaptation"
	"github.com/ASaxcs/bot2/internal/core"
	"github.com/ASaxcs/bot2/internal/emotion"
	"github.com/ASaxcs/bot2/internal/storage"
	"github.com/ASaxcs/bot2/internal/trait"
	"github.com/ASaxcs/bot2/internal/trigger"
)

// DialogueResult is what one processed utterance produced.
type DialogueResult struct {
	Seq       int64                    `json:"seq"`
	Signal    core.TriggerSignal       `json:"signal"`
	Scores    map[core.Emotion]float64 `json:"scores,omitempty"`
	State     core.EmotionalState      `json:"state"`
	Influence core.ResponseInfluence   `json:"influence"`
}

// ExperienceOutcome is what one recorded interaction changed.
type ExperienceOutcome struct {
	ID          string                     `json:"id"`
	Seq         int64                      `json:"seq"`
	Events      []trigger.EventType        `json:"events,omitempty"`
	Adjustments map[core.TraitName]float64 `json:"adjustments,omitempty"`
	State       core.EmotionalState        `json:"state"`
	Personality core.PersonalityLevels     `json:"personality"`
}

// Stats aggregates the engine's runtime and learning statistics.
type Stats struct {
	Sequence        int64                  `json:"sequence"`
	StartedAt       time.Time              `json:"started_at"`
	Restored        bool                   `json:"restored_from_disk"`
	Emotion         emotion.Summary        `json:"emotion"`
	Personality     core.PersonalityLevels `json:"personality"`
	Adaptation      adaptation.Insights    `json:"adaptation"`
	ExperienceCount int                    `json:"experience_count"`
	EmotionCounts   map[core.Emotion]int   `json:"emotion_counts,omitempty"`
}

// ProcessDialogue scores one utterance for emotional triggers and folds
// the result into the state. On a timed-out wait the caller gets the
// neutral influence while the update still lands.
func (e *Engine) ProcessDialogue(text string) (DialogueResult, error) {
	if strings.TrimSpace(text) == "" {
		return DialogueResult{Influence: core.NeutralInfluence()}, core.ErrEmptyInput
	}
	value, err := e.submit(func(now time.Time) (any, error) {
		sig, res := e.detect.Detect(text, now)
		state := e.machine.Apply(sig, now)
		e.noteChange()
		return DialogueResult{
			Seq:       e.seq,
			Signal:    sig,
			Scores:    res.Scores,
			State:     state,
			Influence: emotion.Influence(state),
		}, nil
	})
	if err != nil {
		return DialogueResult{Influence: core.NeutralInfluence()}, err
	}
	return value.(DialogueResult), nil
}

// RecordExperience stores one completed exchange, fires any interaction
// event triggers it implies, updates the traits and lets the adaptation
// coordinator learn from it.
func (e *Engine) RecordExperience(exp core.InteractionExperience) (ExperienceOutcome, error) {
	if strings.TrimSpace(exp.UserInput) == "" {
		return ExperienceOutcome{}, core.ErrEmptyInput
	}
	if exp.SuccessScore != exp.SuccessScore || exp.SuccessScore < 0 || exp.SuccessScore > 1 {
		return ExperienceOutcome{}, core.ErrInvalidScore
	}
	if exp.ID == "" {
		exp.ID = uuid.NewString()
	}

	value, err := e.submit(func(now time.Time) (any, error) {
		if exp.Timestamp.IsZero() {
			exp.Timestamp = now
		}
		if exp.EmotionAtTime == "" {
			exp.EmotionAtTime = e.machine.State().PrimaryEmotion
		}

		events := e.events.DetectEvents(exp.UserInput, exp.AIResponse, now)
		for _, event := range events {
			if sig, ok := e.events.Signal(event, now); ok {
				e.machine.Apply(sig, now)
			}
		}

		e.traits.Update(exp)
		adjustments := e.coord.Learn(exp)
		for name, delta := range adjustments {
			if delta == 0 {
				continue
			}
			if adapter, ok := e.traits.ByName(name); ok {
				adapter.Nudge(delta, "adaptation", now)
			}
		}

		if err := e.experiences.Save(exp); err != nil {
			return nil, err
		}
		e.noteChange()
		return ExperienceOutcome{
			ID:          exp.ID,
			Seq:         e.seq,
			Events:      events,
			Adjustments: adjustments,
			State:       e.machine.State(),
			Personality: e.traits.Levels(),
		}, nil
	})
	if err != nil {
		return ExperienceOutcome{ID: exp.ID}, err
	}
	return value.(ExperienceOutcome), nil
}

// GetState returns the latest published emotional state. Never blocks.
func (e *Engine) GetState() core.EmotionalState {
	return e.view.Load().State
}

// GetPersonality returns the latest published trait levels. Never blocks.
func (e *Engine) GetPersonality() core.PersonalityLevels {
	return e.view.Load().Personality
}

// GetInfluence returns how the current state should color a reply.
// Never blocks.
func (e *Engine) GetInfluence() core.ResponseInfluence {
	return e.view.Load().Influence
}

// PredictStyle suggests trait levels for an upcoming interaction of the
// given trigger category, based on learned context associations.
func (e *Engine) PredictStyle(primaryTrigger string) (map[core.TraitName]float64, error) {
	value, err := e.submit(func(now time.Time) (any, error) {
		return e.coord.PredictOptimalStyle(primaryTrigger), nil
	})
	if err != nil {
		return nil, err
	}
	return value.(map[core.TraitName]float64), nil
}

// SetBaseline forces the emotional state to a fixed starting point.
func (e *Engine) SetBaseline(em core.Emotion, intensity float64) error {
	if !core.KnownEmotion(em) {
		return core.ErrUnknownEmotion
	}
	_, err := e.submit(func(now time.Time) (any, error) {
		if err := e.machine.SetBaseline(em, intensity, now); err != nil {
			return nil, err
		}
		e.noteChange()
		return nil, nil
	})
	return err
}

// Reset returns every component to its configured baseline. Stored
// experiences are kept; only live state and learned adjustments clear.
func (e *Engine) Reset() error {
	_, err := e.submit(func(now time.Time) (any, error) {
		e.resetToBaseline(now)
		e.noteChange()
		e.log.Info("engine reset to baseline at seq %d", e.seq)
		return nil, nil
	})
	return err
}

// resetToBaseline runs on the owner goroutine only.
func (e *Engine) resetToBaseline(now time.Time) {
	e.machine.Reset(now)
	for _, adapter := range e.traits.All() {
		adapter.ResetToBase()
	}
	e.coord.Reset()
	e.events = trigger.NewEventDetector(e.settings.Emotion.Sensitivity)
}

// Save writes a snapshot immediately instead of waiting for the next
// coalesced save.
func (e *Engine) Save() error {
	_, err := e.submit(func(now time.Time) (any, error) {
		return nil, e.persist(now)
	})
	return err
}

// Load replaces live state with the snapshot on disk. A missing or
// corrupt snapshot resets the engine to its baseline instead of
// failing; the returned flag reports whether a snapshot was applied.
func (e *Engine) Load() (bool, error) {
	loaded, err := e.submit(func(now time.Time) (any, error) {
		snap, err := e.snapshots.Load()
		if storage.IsNotUsable(err) {
			e.resetToBaseline(now)
			e.noteChange()
			e.log.Warn("no usable snapshot, reset to baseline: %v", err)
			return false, nil
		}
		if err != nil {
			return false, err
		}
		e.applySnapshot(snap)
		e.noteChange()
		e.log.Info("state reloaded from snapshot saved %s", snap.SavedAt.Format(time.RFC3339))
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return loaded.(bool), nil
}

// DecayNow applies temporal decay against the current clock. Normally
// driven on an interval by the maintenance scheduler.
func (e *Engine) DecayNow() error {
	_, err := e.submit(func(now time.Time) (any, error) {
		e.machine.Decay(now)
		e.noteChange()
		return nil, nil
	})
	return err
}

// Trend analyzes one trait's recent level changes.
func (e *Engine) Trend(name core.TraitName, window int) (trait.TrendAnalysis, error) {
	if _, ok := e.traits.ByName(name); !ok {
		return trait.TrendAnalysis{}, core.ErrUnknownTrait
	}
	value, err := e.submit(func(now time.Time) (any, error) {
		adapter, _ := e.traits.ByName(name)
		return adapter.Trend(window), nil
	})
	if err != nil {
		return trait.TrendAnalysis{}, err
	}
	return value.(trait.TrendAnalysis), nil
}

// Stats reports runtime, emotional and learning statistics.
func (e *Engine) Stats() (Stats, error) {
	count, err := e.experiences.Count()
	if err != nil {
		return Stats{}, err
	}
	byEmotion, err := e.experiences.CountByEmotion()
	if err != nil {
		return Stats{}, err
	}
	value, err := e.submit(func(now time.Time) (any, error) {
		return Stats{
			Sequence:        e.seq,
			StartedAt:       e.startedAt,
			Restored:        e.restored,
			Emotion:         e.machine.Summarize(),
			Personality:     e.traits.Levels(),
			Adaptation:      e.coord.Insights(),
			ExperienceCount: count,
			EmotionCounts:   byEmotion,
		}, nil
	})
	if err != nil {
		return Stats{}, err
	}
	return value.(Stats), nil
}

// AdaptationInsights reports the coordinator's learning state.
func (e *Engine) AdaptationInsights() (adaptation.Insights, error) {
	value, err := e.submit(func(now time.Time) (any, error) {
		return e.coord.Insights(), nil
	})
	if err != nil {
		return adaptation.Insights{}, err
	}
	return value.(adaptation.Insights), nil
}

// Patterns reports per-emotion occurrence statistics.
func (e *Engine) Patterns() (map[core.Emotion]emotion.PatternStats, error) {
	value, err := e.submit(func(now time.Time) (any, error) {
		return e.machine.Patterns(), nil
	})
	if err != nil {
		return nil, err
	}
	return value.(map[core.Emotion]emotion.PatternStats), nil
}

// Experiences lists stored interactions, newest first. Reads the store
// directly; database/sql handles the concurrency.
func (e *Engine) Experiences(limit, offset int) ([]core.InteractionExperience, error) {
	return e.experiences.List(limit, offset)
}

// Experience returns one stored interaction by ID.
func (e *Engine) Experience(id string) (*core.InteractionExperience, error) {
	return e.experiences.Get(id)
}

// RecentStates returns the durable state log, newest first.
func (e *Engine) RecentStates(limit int) ([]storage.StateLogEntry, error) {
	return e.stateLog.Recent(limit)
}
