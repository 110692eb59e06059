package emotion

import "github.com/ASaxcs/bot2/internal/core"

var wordBiases = map[core.Emotion][]string{
	core.EmotionJoy:      {"wonderful", "amazing", "excellent", "fantastic", "delightful"},
	core.EmotionSadness:  {"unfortunately", "sadly", "regrettably", "difficult", "challenging"},
	core.EmotionAnger:    {"unacceptable", "frustrating", "concerning", "problematic", "serious"},
	core.EmotionFear:     {"careful", "cautious", "uncertain", "concerning", "worried"},
	core.EmotionSurprise: {"interesting", "unexpected", "remarkable", "fascinating", "unusual"},
	core.EmotionDisgust:  {"problematic", "concerning", "inappropriate", "unacceptable", "wrong"},
}

var baseEnthusiasm = map[core.Emotion]float64{
	core.EmotionJoy:      0.8,
	core.EmotionSurprise: 0.6,
	core.EmotionAnger:    0.7,
	core.EmotionSadness:  0.2,
	core.EmotionFear:     0.3,
	core.EmotionDisgust:  0.4,
	core.EmotionNeutral:  0.5,
}

var empathyModifiers = map[core.Emotion]float64{
	core.EmotionJoy:      1.2,
	core.EmotionSadness:  1.4,
	core.EmotionAnger:    0.7,
	core.EmotionFear:     1.1,
	core.EmotionSurprise: 1.0,
	core.EmotionDisgust:  0.8,
}

var curiosityBase = map[core.Emotion]float64{
	core.EmotionJoy:      1.3,
	core.EmotionSurprise: 1.5,
	core.EmotionAnger:    0.6,
	core.EmotionSadness:  0.8,
	core.EmotionFear:     0.7,
	core.EmotionDisgust:  0.5,
}

// highIntensity splits each emotion's style pair.
const highIntensity = 0.6

var styleHigh = map[core.Emotion]string{
	core.EmotionJoy:      "enthusiastic",
	core.EmotionSadness:  "gentle",
	core.EmotionAnger:    "firm",
	core.EmotionFear:     "cautious",
	core.EmotionSurprise: "animated",
	core.EmotionDisgust:  "direct",
}

var styleLow = map[core.Emotion]string{
	core.EmotionJoy:      "positive",
	core.EmotionSadness:  "subdued",
	core.EmotionAnger:    "assertive",
	core.EmotionFear:     "careful",
	core.EmotionSurprise: "curious",
	core.EmotionDisgust:  "critical",
}

// Influence maps an emotional state to response shaping hints. Pure
// function: same state, same influence.
func Influence(s core.EmotionalState) core.ResponseInfluence {
	emotion := s.PrimaryEmotion
	intensity := s.Intensity
	energy := s.EnergyLevel

	style := "neutral"
	if intensity >= 0.2 {
		table := styleLow
		if intensity > highIntensity {
			table = styleHigh
		}
		if st, ok := table[emotion]; ok {
			style = st
		}
	}

	length := "concise"
	if energy > 0.7 {
		length = "detailed"
	} else if energy > 0.4 {
		length = "moderate"
	}

	enth, ok := baseEnthusiasm[emotion]
	if !ok {
		enth = 0.5
	}

	emp, ok := empathyModifiers[emotion]
	if !ok {
		emp = 1.0
	}

	cur, ok := curiosityBase[emotion]
	if !ok {
		cur = 1.0
	}

	return core.ResponseInfluence{
		Style:             style,
		WordBias:          wordBiases[emotion],
		LengthPreference:  length,
		Enthusiasm:        enth * energy,
		EmpathyModifier:   emp,
		CuriosityModifier: cur * (0.5 + 0.5*energy),
	}
}
