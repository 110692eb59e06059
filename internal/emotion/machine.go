// Package emotion implements the bounded emotional state machine: decay,
// signal application, blending and stability damping.
//
// A Machine is not safe for concurrent use. The engine's owner goroutine
// is the only writer.
package emotion

import (
	"math"
	"time"

	"github.com/ASaxcs/bot2/internal/config"
	"github.com/ASaxcs/bot2/internal/core"
	"github.com/ASaxcs/bot2/internal/logging"
)

// secondaryFloor is the strength below which secondary emotions are pruned.
const secondaryFloor = 0.05

// emotionInteractions encodes how a primary emotion pushes the secondaries.
// Negative values suppress, positive values amplify.
var emotionInteractions = map[core.Emotion]map[core.Emotion]float64{
	core.EmotionJoy: {
		core.EmotionSadness:  -0.8,
		core.EmotionAnger:    -0.6,
		core.EmotionFear:     -0.7,
		core.EmotionSurprise: 0.3,
		core.EmotionDisgust:  -0.4,
	},
	core.EmotionSadness: {
		core.EmotionJoy:      -0.9,
		core.EmotionAnger:    0.4,
		core.EmotionFear:     0.3,
		core.EmotionSurprise: -0.2,
		core.EmotionDisgust:  0.2,
	},
	core.EmotionAnger: {
		core.EmotionJoy:      -0.7,
		core.EmotionSadness:  0.3,
		core.EmotionFear:     -0.5,
		core.EmotionSurprise: -0.3,
		core.EmotionDisgust:  0.5,
	},
	core.EmotionFear: {
		core.EmotionJoy:      -0.8,
		core.EmotionSadness:  0.4,
		core.EmotionAnger:    0.2,
		core.EmotionSurprise: 0.6,
		core.EmotionDisgust:  0.3,
	},
	core.EmotionSurprise: {
		core.EmotionJoy:      0.4,
		core.EmotionSadness:  0.2,
		core.EmotionAnger:    0.3,
		core.EmotionFear:     0.5,
		core.EmotionDisgust:  0.1,
	},
	core.EmotionDisgust: {
		core.EmotionJoy:      -0.6,
		core.EmotionSadness:  0.3,
		core.EmotionAnger:    0.4,
		core.EmotionFear:     0.2,
		core.EmotionSurprise: -0.1,
	},
}

var energyEffects = map[core.Emotion]float64{
	core.EmotionJoy:      0.3,
	core.EmotionSadness:  -0.4,
	core.EmotionAnger:    0.2,
	core.EmotionFear:     -0.2,
	core.EmotionSurprise: 0.1,
	core.EmotionDisgust:  -0.1,
}

var stabilityEffects = map[core.Emotion]float64{
	core.EmotionJoy:      0.1,
	core.EmotionSadness:  -0.2,
	core.EmotionAnger:    -0.3,
	core.EmotionFear:     -0.25,
	core.EmotionSurprise: -0.15,
	core.EmotionDisgust:  -0.1,
}

// PatternStats accumulates per-emotion occurrence statistics.
type PatternStats struct {
	Frequency        int     `json:"frequency"`
	AverageIntensity float64 `json:"average_intensity"`
}

// Machine holds the single evolving emotional state.
type Machine struct {
	cfg      config.EmotionConfig
	state    core.EmotionalState
	history  []core.EmotionalState
	patterns map[core.Emotion]*PatternStats
	log      *logging.Logger
}

// NewMachine builds a machine in the neutral resting state.
func NewMachine(cfg config.EmotionConfig, now time.Time) *Machine {
	return &Machine{
		cfg:      cfg,
		state:    core.NeutralState(now),
		history:  make([]core.EmotionalState, 0, cfg.MaxHistory),
		patterns: make(map[core.Emotion]*PatternStats),
		log:      logging.Component("emotion"),
	}
}

// State returns a deep copy of the current state.
func (m *Machine) State() core.EmotionalState {
	return m.state.Clone()
}

// Apply folds one trigger signal into the state. The sequence is fixed:
// candidate from the signal, decay of the current state, blend, then
// stability damping.
func (m *Machine) Apply(sig core.TriggerSignal, now time.Time) core.EmotionalState {
	candidate := m.candidateState(sig, now)
	m.Decay(now)

	previous := m.state.Clone()
	blended := m.blend(m.state, candidate, now)
	m.state = m.constrain(blended)

	m.recordChange(previous, now)
	m.updatePatterns(sig)

	m.log.Debug("state updated: %s (intensity %.2f)", m.state.PrimaryEmotion, m.state.Intensity)
	return m.state.Clone()
}

// candidateState derives a target state from the signal alone.
func (m *Machine) candidateState(sig core.TriggerSignal, now time.Time) core.EmotionalState {
	dominant := sig.Category
	intensity := core.Clamp01(sig.IntensityModifier)

	if dominant == core.EmotionNeutral || intensity < 0.1 {
		// Calm input settles the state.
		return core.EmotionalState{
			PrimaryEmotion:    core.EmotionNeutral,
			Intensity:         0.0,
			SecondaryEmotions: map[core.Emotion]float64{},
			EnergyLevel:       m.state.EnergyLevel,
			Stability:         math.Min(1.0, m.state.Stability+0.1),
			UpdatedAt:         now,
		}
	}

	secondaries := map[core.Emotion]float64{}
	for emotion, coeff := range emotionInteractions[dominant] {
		base, present := sig.EmotionMapping[emotion]
		if !present {
			continue
		}
		strength := base + intensity*coeff
		if strength > 0.1 {
			secondaries[emotion] = core.Clamp01(strength)
		}
	}

	energy := core.Clamp01(m.state.EnergyLevel + energyEffects[dominant]*intensity*m.cfg.TransitionSpeed)
	stability := core.Clamp01(m.state.Stability + stabilityEffects[dominant]*intensity*m.cfg.TransitionSpeed)

	return core.EmotionalState{
		PrimaryEmotion:    dominant,
		Intensity:         intensity,
		SecondaryEmotions: secondaries,
		EnergyLevel:       energy,
		Stability:         stability,
		UpdatedAt:         now,
	}
}

// Decay applies exponential decay for the time elapsed since the last
// update, recovers energy and stability, and prunes weak secondaries.
// Decay with zero elapsed time is a no-op.
func (m *Machine) Decay(now time.Time) {
	minutes := now.Sub(m.state.UpdatedAt).Minutes()
	if minutes <= 0 {
		return
	}

	factor := math.Exp(-m.cfg.DecayRate * minutes)
	m.state.Intensity *= factor

	for emotion, strength := range m.state.SecondaryEmotions {
		decayed := strength * factor
		if decayed > secondaryFloor {
			m.state.SecondaryEmotions[emotion] = decayed
		} else {
			delete(m.state.SecondaryEmotions, emotion)
		}
	}

	m.state.EnergyLevel = math.Min(1.0, m.state.EnergyLevel+m.cfg.EnergyRecoveryRate*minutes)
	m.state.Stability = math.Min(1.0, m.state.Stability+m.cfg.EnergyRecoveryRate*0.5*minutes)
	m.state.UpdatedAt = now
}

func (m *Machine) blend(current, next core.EmotionalState, now time.Time) core.EmotionalState {
	bf := m.cfg.TransitionSpeed

	var primary core.Emotion
	var intensity float64
	if next.Intensity > current.Intensity*(1+bf) {
		primary = next.PrimaryEmotion
		intensity = current.Intensity + (next.Intensity-current.Intensity)*bf
	} else {
		primary = current.PrimaryEmotion
		intensity = current.Intensity * (1 - m.cfg.DecayRate*0.1)
	}

	secondaries := map[core.Emotion]float64{}
	for emotion := range current.SecondaryEmotions {
		secondaries[emotion] = 0
	}
	for emotion := range next.SecondaryEmotions {
		secondaries[emotion] = 0
	}
	for emotion := range secondaries {
		cur := current.SecondaryEmotions[emotion]
		nxt := next.SecondaryEmotions[emotion]
		blended := cur + (nxt-cur)*bf
		if blended > secondaryFloor {
			secondaries[emotion] = blended
		} else {
			delete(secondaries, emotion)
		}
	}

	return core.EmotionalState{
		PrimaryEmotion:    primary,
		Intensity:         math.Max(0, intensity),
		SecondaryEmotions: secondaries,
		EnergyLevel:       core.Clamp01(current.EnergyLevel + (next.EnergyLevel-current.EnergyLevel)*bf),
		Stability:         core.Clamp01(current.Stability + (next.Stability-current.Stability)*bf),
		UpdatedAt:         now,
	}
}

// constrain caps intensity and secondary strengths as a function of
// stability, so an unstable state cannot swing to extremes.
func (m *Machine) constrain(s core.EmotionalState) core.EmotionalState {
	sf := s.Stability * m.cfg.StabilityFactor

	maxIntensity := 0.3 + 0.7*sf
	if s.Intensity > maxIntensity {
		s.Intensity = maxIntensity
	}

	maxSecondary := 0.2 + 0.5*sf
	for emotion, strength := range s.SecondaryEmotions {
		if strength > maxSecondary {
			s.SecondaryEmotions[emotion] = maxSecondary
		}
	}
	return s
}

func (m *Machine) recordChange(previous core.EmotionalState, now time.Time) {
	m.history = append(m.history, previous)
	if len(m.history) > m.cfg.MaxHistory {
		m.history = m.history[len(m.history)-m.cfg.MaxHistory:]
	}

	if previous.PrimaryEmotion != m.state.PrimaryEmotion {
		m.log.Info("emotion changed: %s -> %s", previous.PrimaryEmotion, m.state.PrimaryEmotion)
	}
	if diff := math.Abs(m.state.Intensity - previous.Intensity); diff > 0.3 {
		m.log.Info("intensity shift: %.2f -> %.2f", previous.Intensity, m.state.Intensity)
	}
}

func (m *Machine) updatePatterns(sig core.TriggerSignal) {
	p, ok := m.patterns[sig.Category]
	if !ok {
		p = &PatternStats{}
		m.patterns[sig.Category] = p
	}
	p.Frequency++
	p.AverageIntensity = (p.AverageIntensity*float64(p.Frequency-1) + sig.IntensityModifier) / float64(p.Frequency)
}

// Reset returns the state to neutral and clears history.
func (m *Machine) Reset(now time.Time) {
	m.state = core.NeutralState(now)
	m.history = m.history[:0]
	m.log.Info("emotional state reset to neutral")
}

// SetBaseline forces a starting emotion, used at boot or for testing
// scenarios.
func (m *Machine) SetBaseline(emotion core.Emotion, intensity float64, now time.Time) error {
	if !core.KnownEmotion(emotion) {
		return core.ErrUnknownEmotion
	}
	m.state = core.EmotionalState{
		PrimaryEmotion:    emotion,
		Intensity:         core.Clamp01(intensity),
		SecondaryEmotions: map[core.Emotion]float64{},
		EnergyLevel:       0.7,
		Stability:         0.8,
		UpdatedAt:         now,
	}
	m.log.Info("emotional baseline set: %s (%.2f)", emotion, intensity)
	return nil
}

// History returns up to limit most recent prior states, newest last.
func (m *Machine) History(limit int) []core.EmotionalState {
	if limit <= 0 || limit > len(m.history) {
		limit = len(m.history)
	}
	out := make([]core.EmotionalState, limit)
	copy(out, m.history[len(m.history)-limit:])
	return out
}

// Patterns returns a copy of the per-emotion occurrence statistics.
func (m *Machine) Patterns() map[core.Emotion]PatternStats {
	out := make(map[core.Emotion]PatternStats, len(m.patterns))
	for emotion, p := range m.patterns {
		out[emotion] = *p
	}
	return out
}

// Trend direction labels.
const (
	TrendImproving  = "improving"
	TrendDeclining  = "declining"
	TrendStable     = "stable"
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
)

// Summary is a snapshot of the machine's recent behavior.
type Summary struct {
	Current        core.EmotionalState           `json:"current_state"`
	Recent         []core.EmotionalState         `json:"recent_emotions"`
	Patterns       map[core.Emotion]PatternStats `json:"emotional_patterns"`
	StabilityTrend string                        `json:"stability_trend"`
	EnergyTrend    string                        `json:"energy_trend"`
}

// Summarize builds the full summary over the last few states.
func (m *Machine) Summarize() Summary {
	return Summary{
		Current:        m.State(),
		Recent:         m.History(5),
		Patterns:       m.Patterns(),
		StabilityTrend: m.stabilityTrend(),
		EnergyTrend:    m.energyTrend(),
	}
}

func (m *Machine) stabilityTrend() string {
	if len(m.history) < 3 {
		return TrendStable
	}
	first := m.history[len(m.history)-3].Stability
	last := m.state.Stability
	switch {
	case last > first:
		return TrendImproving
	case last < first:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func (m *Machine) energyTrend() string {
	if len(m.history) < 3 {
		return TrendStable
	}
	first := m.history[len(m.history)-3].EnergyLevel
	last := m.state.EnergyLevel
	switch {
	case last > first:
		return TrendIncreasing
	case last < first:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// Restore installs a previously persisted state and history without
// running it through the update pipeline.
func (m *Machine) Restore(state core.EmotionalState, history []core.EmotionalState) {
	state.Intensity = core.Clamp01(state.Intensity)
	state.EnergyLevel = core.Clamp01(state.EnergyLevel)
	state.Stability = core.Clamp01(state.Stability)
	if state.SecondaryEmotions == nil {
		state.SecondaryEmotions = map[core.Emotion]float64{}
	}
	for emotion, strength := range state.SecondaryEmotions {
		state.SecondaryEmotions[emotion] = core.Clamp01(strength)
	}
	if !core.KnownEmotion(state.PrimaryEmotion) {
		state.PrimaryEmotion = core.EmotionNeutral
	}
	m.state = state

	m.history = m.history[:0]
	if len(history) > m.cfg.MaxHistory {
		history = history[len(history)-m.cfg.MaxHistory:]
	}
	m.history = append(m.history, history...)
}
