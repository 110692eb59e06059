package trait

import (
	"github.com/ASaxcs/bot2/internal/config"
	"github.com/ASaxcs/bot2/internal/core"
	"github.com/ASaxcs/bot2/internal/parser"
)

// Adaptation factor weights for assertiveness.
const (
	positiveFeedback   = 0.05
	negativeFeedback   = -0.03
	conflictResolution = 0.08
	passiveResponse    = -0.02
	leadershipMoment   = 0.1
)

var assertiveTriggers = []string{
	"disagree", "wrong", "no", "stop", "enough",
	"demand", "insist", "require", "must", "need",
}

var passiveTriggers = []string{
	"maybe", "perhaps", "sorry", "excuse me",
	"if you don't mind", "could you possibly",
}

var confidentPhrases = []string{
	"i believe", "i'm certain", "definitely", "absolutely",
	"i recommend", "you should", "it's important",
}

var hesitantPhrases = []string{
	"i think maybe", "perhaps", "might be", "could be",
	"i'm not sure", "possibly",
}

// Assertiveness adapts toward or away from directness depending on how
// assertive the user is and how confident the replies were.
type Assertiveness struct {
	tracker
}

func NewAssertiveness(cfg config.TraitConfig) *Assertiveness {
	return &Assertiveness{tracker: newTracker(core.TraitAssertiveness, cfg)}
}

func (a *Assertiveness) Update(exp core.InteractionExperience) {
	input := parser.Parse(exp.UserInput)
	response := parser.Parse(exp.AIResponse)

	adjustment := 0.0

	// An assertive user pulls us toward matching firmness; a passive
	// one invites us to lead.
	if containsAnyPhrase(input, assertiveTriggers) {
		adjustment += conflictResolution * 0.5
	} else if containsAnyPhrase(input, passiveTriggers) {
		adjustment += leadershipMoment * 0.3
	}

	if containsAnyPhrase(response, confidentPhrases) {
		adjustment += positiveFeedback * 0.5
	} else if containsAnyPhrase(response, hesitantPhrases) {
		adjustment += passiveResponse
	}

	a.apply(adjustment, a.identifyTrigger(input), exp.Timestamp)
}

func (a *Assertiveness) identifyTrigger(input *parser.Doc) string {
	switch {
	case containsAnyPhrase(input, []string{"disagree", "wrong", "no"}):
		return "disagreement"
	case containsAnyPhrase(input, []string{"demand", "insist", "must"}):
		return "user_assertive"
	case containsAnyPhrase(input, []string{"maybe", "perhaps", "sorry"}):
		return "user_passive"
	default:
		return "general_interaction"
	}
}

// Modifier describes how a trait level should shape responses.
type Modifier struct {
	Tone         string   `json:"tone"`
	Directness   string   `json:"directness"`
	Phrases      []string `json:"phrases"`
	AvoidPhrases []string `json:"avoid_phrases"`
}

// Modifier returns tone guidance for the current assertiveness level.
func (a *Assertiveness) Modifier() Modifier {
	level := a.Level()
	switch {
	case level >= 0.8:
		return Modifier{
			Tone:         "confident",
			Directness:   "high",
			Phrases:      []string{"I strongly believe", "It's clear that", "Definitely"},
			AvoidPhrases: []string{"maybe", "perhaps", "might be"},
		}
	case level >= 0.6:
		return Modifier{
			Tone:         "balanced",
			Directness:   "medium",
			Phrases:      []string{"I think", "I believe", "It seems"},
			AvoidPhrases: []string{"I'm not sure"},
		}
	case level >= 0.4:
		return Modifier{
			Tone:         "gentle",
			Directness:   "medium",
			Phrases:      []string{"I suggest", "Consider that", "It might be"},
			AvoidPhrases: []string{"absolutely", "definitely"},
		}
	default:
		return Modifier{
			Tone:         "tentative",
			Directness:   "low",
			Phrases:      []string{"Perhaps", "Maybe", "It could be"},
			AvoidPhrases: []string{"I'm certain", "definitely"},
		}
	}
}

func containsAnyPhrase(d *parser.Doc, phrases []string) bool {
	for _, p := range phrases {
		if found, _ := d.ContainsPhrase(p); found {
			return true
		}
	}
	return false
}
