// Package core defines the fundamental types for the affective engine.
// Every other package speaks in these types.
package core

import (
	"time"
)

// -----------------------------------------------------------------------------
// EMOTION - The base emotion vocabulary
// -----------------------------------------------------------------------------

// Emotion is a type-safe emotion category.
type Emotion string

// The eleven base emotions. Neutral is the resting state, not a feeling.
const (
	EmotionJoy        Emotion = "joy"
	EmotionSadness    Emotion = "sadness"
	EmotionAnger      Emotion = "anger"
	EmotionFear       Emotion = "fear"
	EmotionSurprise   Emotion = "surprise"
	EmotionDisgust    Emotion = "disgust"
	EmotionCuriosity  Emotion = "curiosity"
	EmotionEmpathy    Emotion = "empathy"
	EmotionExcitement Emotion = "excitement"
	EmotionConfusion  Emotion = "confusion"
	EmotionNeutral    Emotion = "neutral"
)

// AllEmotions lists every known emotion, neutral included.
var AllEmotions = []Emotion{
	EmotionJoy, EmotionSadness, EmotionAnger, EmotionFear,
	EmotionSurprise, EmotionDisgust, EmotionCuriosity, EmotionEmpathy,
	EmotionExcitement, EmotionConfusion, EmotionNeutral,
}

// KnownEmotion reports whether e is part of the base vocabulary.
func KnownEmotion(e Emotion) bool {
	for _, known := range AllEmotions {
		if e == known {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// EMOTIONAL STATE - The single continuously evolving mood
// -----------------------------------------------------------------------------

// EmotionalState is a complete snapshot of the engine's mood.
// Intensity, every secondary strength, energy and stability are always
// clamped to [0,1]. Mutated only by the emotion state machine.
type EmotionalState struct {
	PrimaryEmotion    Emotion             `json:"current_mood"`
	Intensity         float64             `json:"intensity"`
	SecondaryEmotions map[Emotion]float64 `json:"secondary_emotions"`
	EnergyLevel       float64             `json:"energy_level"`
	Stability         float64             `json:"stability"`
	UpdatedAt         time.Time           `json:"timestamp"`
}

// NeutralState returns the well-defined resting state the engine can
// always fall back to.
func NeutralState(now time.Time) EmotionalState {
	return EmotionalState{
		PrimaryEmotion:    EmotionNeutral,
		Intensity:         0.0,
		SecondaryEmotions: map[Emotion]float64{},
		EnergyLevel:       0.7,
		Stability:         1.0,
		UpdatedAt:         now,
	}
}

// Clone returns a deep copy safe to hand to readers.
func (s EmotionalState) Clone() EmotionalState {
	out := s
	out.SecondaryEmotions = make(map[Emotion]float64, len(s.SecondaryEmotions))
	for k, v := range s.SecondaryEmotions {
		out.SecondaryEmotions[k] = v
	}
	return out
}

// -----------------------------------------------------------------------------
// TRIGGER SIGNAL - A weighted emotion hypothesis from one input
// -----------------------------------------------------------------------------

// TriggerSignal is the ephemeral output of the trigger producer.
// It is produced and consumed within a single update cycle, never stored.
type TriggerSignal struct {
	Category          Emotion             `json:"category"`
	EmotionMapping    map[Emotion]float64 `json:"emotion_mapping"`
	IntensityModifier float64             `json:"intensity_modifier"`
	SourceText        string              `json:"source_text"`
	Timestamp         time.Time           `json:"timestamp"`
}

// Weight returns the signal's own category weight.
func (t TriggerSignal) Weight() float64 {
	return t.EmotionMapping[t.Category]
}

// -----------------------------------------------------------------------------
// INTERACTION EXPERIENCE - One completed exchange, ready for learning
// -----------------------------------------------------------------------------

// InteractionExperience records a completed user/AI exchange for the
// adaptation coordinator. Append-only, count-bounded.
type InteractionExperience struct {
	ID              string            `json:"id"`
	Timestamp       time.Time         `json:"timestamp"`
	UserInput       string            `json:"user_input"`
	AIResponse      string            `json:"ai_response"`
	ContextSnapshot map[string]string `json:"context_snapshot,omitempty"`
	EmotionAtTime   Emotion           `json:"emotion_at_time"`
	SuccessScore    float64           `json:"success_score"` // 0.0 to 1.0
	LearningTags    []string          `json:"learning_tags,omitempty"`
}

// -----------------------------------------------------------------------------
// RESPONSE INFLUENCE - How the current mood shapes output
// -----------------------------------------------------------------------------

// ResponseInfluence tells the (external) output formatter how the current
// state should color a reply. Pure function of state.
type ResponseInfluence struct {
	Style             string   `json:"style"`
	WordBias          []string `json:"word_bias"`
	LengthPreference  string   `json:"length_preference"` // concise, moderate, detailed
	Enthusiasm        float64  `json:"enthusiasm"`
	EmpathyModifier   float64  `json:"empathy_modifier"`
	CuriosityModifier float64  `json:"curiosity_modifier"`
}

// NeutralInfluence is the fallback handed to callers whose wait timed out.
func NeutralInfluence() ResponseInfluence {
	return ResponseInfluence{
		Style:             "neutral",
		WordBias:          nil,
		LengthPreference:  "moderate",
		Enthusiasm:        0.5,
		EmpathyModifier:   1.0,
		CuriosityModifier: 1.0,
	}
}

// -----------------------------------------------------------------------------
// PERSONALITY
// -----------------------------------------------------------------------------

// TraitName identifies one of the three adaptive personality traits.
type TraitName string

const (
	TraitAssertiveness TraitName = "assertiveness"
	TraitEmpathy       TraitName = "empathy"
	TraitCuriosity     TraitName = "curiosity"
)

// AllTraits lists the traits in their canonical order.
var AllTraits = []TraitName{TraitAssertiveness, TraitEmpathy, TraitCuriosity}

// KnownTrait reports whether t is one of the adaptive traits.
func KnownTrait(t TraitName) bool {
	for _, known := range AllTraits {
		if t == known {
			return true
		}
	}
	return false
}

// PersonalityLevels is the read-only view of current trait levels.
type PersonalityLevels struct {
	Assertiveness float64 `json:"assertiveness"`
	Empathy       float64 `json:"empathy"`
	Curiosity     float64 `json:"curiosity"`
}

// Clamp01 bounds v to [0,1]. NaN collapses to the fallback so a bad
// config value can never poison persisted state.
func Clamp01(v float64) float64 {
	if v != v { // NaN
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClampRange bounds v to [lo,hi], collapsing NaN to lo.
func ClampRange(v, lo, hi float64) float64 {
	if v != v {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
