// Package trigger turns raw interaction text and interaction events into
// weighted emotion signals for the state machine.
package trigger

import (
	"regexp"
	"time"

	"github.com/ASaxcs/bot2/internal/core"
	"github.com/ASaxcs/bot2/internal/parser"
)

// Scoring increments per rule kind. Negated matches subtract instead.
const (
	keywordScore        = 0.5
	keywordNegatedScore = -0.3
	phraseScore         = 0.7
	phraseNegatedScore  = -0.4
	patternScore        = 0.6
	minSignalScore      = 0.1
)

// ruleSet holds the detection vocabulary for one emotion.
type ruleSet struct {
	keywords []string
	phrases  []string
	patterns []*regexp.Regexp
}

var dialogueRules = map[core.Emotion]ruleSet{
	core.EmotionJoy: {
		keywords: []string{
			"happy", "joy", "joyful", "excited", "thrilled", "delighted",
			"wonderful", "amazing", "fantastic", "great", "excellent",
			"love", "adore", "cherish", "celebrate", "triumph", "success",
			"perfect", "beautiful", "awesome", "brilliant", "marvelous",
		},
		phrases: []string{
			"i'm so happy", "this is great", "i love this", "fantastic news",
			"couldn't be better", "over the moon", "on cloud nine",
			"best day ever", "so excited", "absolutely wonderful",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(\w+)?\s*(love|adore|enjoy)\s+(\w+)`),
			regexp.MustCompile(`(so|very|extremely)\s+(happy|excited|thrilled)`),
			regexp.MustCompile(`(this|that)\s+is\s+(amazing|wonderful|fantastic|great)`),
		},
	},
	core.EmotionSadness: {
		keywords: []string{
			"sad", "depressed", "upset", "disappointed", "heartbroken",
			"miserable", "gloomy", "melancholy", "dejected", "downhearted",
			"grief", "sorrow", "despair", "lonely", "isolated",
			"terrible", "awful", "horrible", "devastating", "tragic",
		},
		phrases: []string{
			"i'm so sad", "feeling down", "really upset", "heartbroken",
			"can't stop crying", "feeling lonely", "so disappointed",
			"this is awful", "terrible news", "worst day ever",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(feel|feeling)\s+(sad|down|depressed|upset)`),
			regexp.MustCompile(`(so|very|extremely)\s+(disappointed|upset|heartbroken)`),
			regexp.MustCompile(`(can't|cannot)\s+(stop|help)\s+(crying|feeling sad)`),
		},
	},
	core.EmotionAnger: {
		keywords: []string{
			"angry", "furious", "mad", "rage", "livid", "irate",
			"annoyed", "irritated", "frustrated", "outraged", "indignant",
			"hate", "despise", "loathe", "detest", "resent",
			"stupid", "idiotic", "ridiculous", "absurd", "unfair",
		},
		phrases: []string{
			"so angry", "really mad", "can't believe", "absolutely furious",
			"this is ridiculous", "makes me angry", "fed up with",
			"sick and tired", "drives me crazy", "absolutely hate",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(so|really|extremely)\s+(angry|mad|furious|frustrated)`),
			regexp.MustCompile(`(hate|despise|can't stand)\s+(\w+)`),
			regexp.MustCompile(`(this|that)\s+is\s+(ridiculous|stupid|unfair|absurd)`),
		},
	},
	core.EmotionFear: {
		keywords: []string{
			"afraid", "scared", "frightened", "terrified", "fearful",
			"anxious", "worried", "nervous", "concerned", "panicked",
			"dread", "apprehensive", "uneasy", "paranoid", "phobic",
			"dangerous", "threatening", "risky", "unsafe", "precarious",
		},
		phrases: []string{
			"i'm scared", "really worried", "so afraid", "terrified of",
			"makes me nervous", "afraid that", "worried about",
			"scared to death", "anxiety attack", "panic attack",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(scared|afraid|terrified)\s+(of|that|to)`),
			regexp.MustCompile(`(really|so|very)\s+(worried|anxious|nervous)`),
			regexp.MustCompile(`(what if|suppose)\s+(\w+)`),
		},
	},
	core.EmotionSurprise: {
		keywords: []string{
			"surprised", "shocked", "amazed", "astonished", "stunned",
			"bewildered", "confused", "puzzled", "perplexed", "baffled",
			"unexpected", "sudden", "abrupt", "unforeseen", "startling",
			"wow", "whoa", "omg", "unbelievable", "incredible",
		},
		phrases: []string{
			"can't believe", "so surprised", "didn't expect", "out of nowhere",
			"caught off guard", "totally shocked", "never saw coming",
			"what a surprise", "how unexpected", "didn't see that coming",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(can't|cannot)\s+believe`),
			regexp.MustCompile(`(didn't|never)\s+(expect|think|imagine)`),
			regexp.MustCompile(`(so|really|totally)\s+(surprised|shocked|amazed)`),
		},
	},
}

// Detector scores dialogue text against the emotion vocabulary.
type Detector struct {
	sensitivity float64
}

// NewDetector builds a dialogue detector. Sensitivity scales the overall
// intensity of every emitted signal.
func NewDetector(sensitivity float64) *Detector {
	return &Detector{sensitivity: core.Clamp01(sensitivity)}
}

// Result is a full dialogue analysis: per-emotion scores plus the
// derived dominant signal.
type Result struct {
	Scores    map[core.Emotion]float64
	Dominant  core.Emotion
	Intensity float64
}

// Detect scores text against every emotion rule set and returns the
// analysis. Text with no match above threshold comes back neutral with
// weight 1.0, so downstream always receives a valid signal.
func (d *Detector) Detect(text string, now time.Time) (core.TriggerSignal, Result) {
	doc := parser.Parse(text)
	amp := doc.Amplification()

	scores := make(map[core.Emotion]float64, len(dialogueRules)+1)
	for emotion, rules := range dialogueRules {
		score := 0.0

		for _, kw := range rules.keywords {
			if !doc.Contains(kw) {
				continue
			}
			if doc.Negated(kw) {
				score += keywordNegatedScore
			} else {
				score += keywordScore
			}
		}

		for _, phrase := range rules.phrases {
			found, negated := doc.ContainsPhrase(phrase)
			if !found {
				continue
			}
			if negated {
				score += phraseNegatedScore
			} else {
				score += phraseScore
			}
		}

		for _, re := range rules.patterns {
			if n := len(re.FindAllString(doc.Lower, -1)); n > 0 {
				score += float64(n) * patternScore
			}
		}

		scores[emotion] = core.Clamp01(score * amp)
	}

	dominant := core.EmotionNeutral
	maxScore := 0.0
	for emotion, score := range scores {
		if score > maxScore {
			dominant = emotion
			maxScore = score
		}
	}

	if maxScore <= minSignalScore {
		// Nothing triggered. Emit the neutral baseline.
		scores = map[core.Emotion]float64{core.EmotionNeutral: 1.0}
		signal := core.TriggerSignal{
			Category:          core.EmotionNeutral,
			EmotionMapping:    scores,
			IntensityModifier: 0.0,
			SourceText:        doc.Cleaned,
			Timestamp:         now,
		}
		return signal, Result{Scores: scores, Dominant: core.EmotionNeutral, Intensity: 0.0}
	}

	intensity := core.Clamp01(maxScore * d.sensitivity)
	signal := core.TriggerSignal{
		Category:          dominant,
		EmotionMapping:    scores,
		IntensityModifier: intensity,
		SourceText:        doc.Cleaned,
		Timestamp:         now,
	}
	return signal, Result{Scores: scores, Dominant: dominant, Intensity: intensity}
}
