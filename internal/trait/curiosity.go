package trait

import (
	"github.com/ASaxcs/bot2/internal/config"
	"github.com/ASaxcs/bot2/internal/core"
	"github.com/ASaxcs/bot2/internal/parser"
)

var curiosityTriggers = []string{
	"what", "why", "how", "when", "where", "who",
	"explain", "tell me about", "interesting",
	"learn", "discover", "explore", "understand",
}

var questionMarkers = []string{"what", "why", "how", "explain"}

// maxKnownTopics bounds the observed vocabulary. When the set fills up
// it is cleared, so long sessions keep a fresh notion of novelty instead
// of growing without limit.
const maxKnownTopics = 5000

// Curiosity rises on questions and fresh topics and settles when the
// conversation gets short and repetitive.
type Curiosity struct {
	tracker
	questionCount int
	knownTopics   map[string]bool
}

func NewCuriosity(cfg config.TraitConfig) *Curiosity {
	return &Curiosity{
		tracker:     newTracker(core.TraitCuriosity, cfg),
		knownTopics: make(map[string]bool),
	}
}

func (c *Curiosity) Update(exp core.InteractionExperience) {
	input := parser.Parse(exp.UserInput)
	response := parser.Parse(exp.AIResponse)

	boost := 0.0
	trigger := "general_interaction"

	if input.QuestionCount() > 0 || containsAnyPhrase(input, questionMarkers) {
		boost += 0.05
		c.questionCount++
		trigger = "question"
	}

	if c.observeTopic(input) {
		boost += 0.03
		trigger = "new_topic"
	}

	if containsAnyPhrase(input, curiosityTriggers) {
		boost += 0.02
	}

	// A terse exchange dampens the drive a little.
	if response.WordCount() < 10 {
		boost -= 0.01
	}

	c.apply(boost, trigger, exp.Timestamp)
}

// observeTopic reports whether the input is mostly unseen vocabulary,
// and folds its tokens into the known set.
func (c *Curiosity) observeTopic(d *parser.Doc) bool {
	if d.WordCount() == 0 {
		return false
	}
	novel := 0
	for _, tok := range d.Tokens {
		if !c.knownTopics[tok] {
			novel++
		}
	}
	isNew := float64(novel)/float64(d.WordCount()) > 0.3
	if isNew {
		if len(c.knownTopics)+len(d.Tokens) > maxKnownTopics {
			c.knownTopics = make(map[string]bool)
		}
		for _, tok := range d.Tokens {
			c.knownTopics[tok] = true
		}
	}
	return isNew
}

// ResetToBase also clears the interaction counters, not just the level.
func (c *Curiosity) ResetToBase() {
	c.tracker.ResetToBase()
	c.questionCount = 0
	c.knownTopics = make(map[string]bool)
}

// Restore installs a persisted level. Counters are not persisted, so
// they start over.
func (c *Curiosity) Restore(level float64, history []LevelChange) {
	c.tracker.Restore(level, history)
	c.questionCount = 0
	c.knownTopics = make(map[string]bool)
}

// Status reports the adapter's internal counters.
type CuriosityStatus struct {
	CurrentLevel   float64 `json:"current_level"`
	BaseLevel      float64 `json:"base_level"`
	QuestionsAsked int     `json:"questions_asked"`
	TopicsExplored int     `json:"topics_explored"`
	AdaptationRate float64 `json:"adaptation_rate"`
}

func (c *Curiosity) Status() CuriosityStatus {
	return CuriosityStatus{
		CurrentLevel:   c.Level(),
		BaseLevel:      c.cfg.BaseLevel,
		QuestionsAsked: c.questionCount,
		TopicsExplored: len(c.knownTopics),
		AdaptationRate: c.cfg.AdaptationRate,
	}
}
