package trait

import (
	"github.com/ASaxcs/bot2/internal/config"
	"github.com/ASaxcs/bot2/internal/core"
	"github.com/ASaxcs/bot2/internal/parser"
)

// Emotion lexicons used to read the user's emotional state.
var empathyLexicons = map[string][]string{
	"sadness": {
		"sad", "depressed", "down", "upset", "crying", "tears",
		"hurt", "broken", "devastated", "heartbroken", "disappointed",
		"lost", "empty", "lonely", "grief", "mourning",
	},
	"anxiety": {
		"anxious", "worried", "nervous", "scared", "afraid",
		"panic", "stress", "overwhelmed", "terrified", "concerned",
		"uneasy", "troubled", "restless", "tension",
	},
	"anger": {
		"angry", "mad", "furious", "rage", "irritated",
		"annoyed", "frustrated", "livid", "outraged",
		"hate", "disgusted", "infuriated",
	},
	"joy": {
		"happy", "excited", "thrilled", "delighted", "joyful",
		"elated", "ecstatic", "cheerful", "glad", "pleased",
		"overjoyed", "euphoric", "blissful",
	},
	"confusion": {
		"confused", "lost", "puzzled", "bewildered", "perplexed",
		"uncertain", "unclear", "mixed up",
	},
	"pain": {
		"pain", "hurt", "ache", "suffering", "agony",
		"torment", "anguish", "distress", "misery",
	},
}

var empatheticPhrases = []string{
	"i understand", "i can see", "that sounds", "i'm sorry",
	"i feel for you", "that must be", "i can imagine",
	"it's understandable", "i hear you", "that's difficult",
}

var supportivePhrases = []string{
	"you're not alone", "it's okay", "that's normal",
	"you're doing great", "hang in there", "i'm here",
	"you can get through this", "it will be okay",
}

var validationPhrases = []string{
	"your feelings are valid", "that makes sense", "of course you feel",
	"anyone would feel", "it's natural to", "you have every right",
}

var empathyIntensifiers = []string{"very", "extremely", "really", "so", "incredibly", "totally"}

var personalIndicators = []string{"i feel", "i am", "i'm", "my", "me"}

// EmotionalAnalysis is the empathy adapter's reading of an input.
type EmotionalAnalysis struct {
	Emotions        map[string]float64 `json:"emotions"`
	OverallIntensity float64           `json:"overall_intensity"`
	RequiresEmpathy bool               `json:"requires_empathy"`
	PrimaryEmotion  string             `json:"primary_emotion,omitempty"`
}

// Empathy rises when the user shows emotion we failed to meet, and
// relaxes when a flat input got an over-warm reply.
type Empathy struct {
	tracker
}

func NewEmpathy(cfg config.TraitConfig) *Empathy {
	return &Empathy{tracker: newTracker(core.TraitEmpathy, cfg)}
}

// Analyze reads the emotional content of text.
func (e *Empathy) Analyze(text string) EmotionalAnalysis {
	d := parser.Parse(text)

	emotions := map[string]float64{}
	intensity := 0.0
	for emotion, lexicon := range empathyLexicons {
		hits := 0
		for _, word := range lexicon {
			if found, _ := d.ContainsPhrase(word); found {
				hits++
			}
		}
		if hits > 0 {
			score := float64(hits) / 3.0
			if score > 1 {
				score = 1
			}
			emotions[emotion] = score
			intensity += score
		}
	}

	for _, w := range empathyIntensifiers {
		if d.Contains(w) {
			intensity += 0.2
		}
	}
	if d.ExclamationCount() > 1 {
		intensity += 0.3
	}
	if d.QuestionCount() > 0 &&
		(d.Contains("why") || d.Contains("how") || d.Contains("what")) {
		intensity += 0.2
	}
	for _, ind := range personalIndicators {
		if found, _ := d.ContainsPhrase(ind); found {
			intensity += 0.1
		}
	}
	if intensity > 1 {
		intensity = 1
	}

	primary := ""
	best := 0.0
	for emotion, score := range emotions {
		if score > best {
			primary, best = emotion, score
		}
	}

	return EmotionalAnalysis{
		Emotions:         emotions,
		OverallIntensity: intensity,
		RequiresEmpathy:  intensity > 0.3,
		PrimaryEmotion:   primary,
	}
}

func (e *Empathy) Update(exp core.InteractionExperience) {
	analysis := e.Analyze(exp.UserInput)
	responseScore := e.responseEmpathy(exp.AIResponse, analysis)

	adjustment := 0.0
	switch {
	case analysis.OverallIntensity > 0.5 && responseScore < 0.3:
		// Strong emotion met with a flat reply.
		adjustment = 0.1
	case analysis.OverallIntensity > 0.3 && responseScore > 0.7:
		adjustment = 0.05
	case analysis.OverallIntensity < 0.2 && responseScore > 0.8:
		adjustment = -0.03
	}

	trigger := "emotional_interaction"
	if analysis.PrimaryEmotion != "" {
		trigger = analysis.PrimaryEmotion
	}
	e.apply(adjustment, trigger, exp.Timestamp)
}

// responseEmpathy scores how empathetic a reply was, in [0,1].
func (e *Empathy) responseEmpathy(response string, analysis EmotionalAnalysis) float64 {
	d := parser.Parse(response)

	score := 0.0
	for _, p := range empatheticPhrases {
		if found, _ := d.ContainsPhrase(p); found {
			score += 2
		}
	}
	for _, p := range supportivePhrases {
		if found, _ := d.ContainsPhrase(p); found {
			score += 1.5
		}
	}
	for _, p := range validationPhrases {
		if found, _ := d.ContainsPhrase(p); found {
			score += 2.5
		}
	}

	if analysis.PrimaryEmotion != "" {
		acknowledged := d.Contains(analysis.PrimaryEmotion)
		if !acknowledged {
			for _, word := range empathyLexicons[analysis.PrimaryEmotion] {
				if found, _ := d.ContainsPhrase(word); found {
					acknowledged = true
					break
				}
			}
		}
		if acknowledged {
			score++
		}
	}

	score /= 5.0
	if score > 1 {
		score = 1
	}
	return score
}

// ShouldShowEmpathy reports whether the input calls for an empathetic
// response at the current level.
func (e *Empathy) ShouldShowEmpathy(text string) bool {
	return e.Analyze(text).RequiresEmpathy && e.Level() > 0.4
}
