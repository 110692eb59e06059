// Package adaptation implements the learning coordinator: it analyzes
// completed interactions, accumulates momentum and recognized patterns,
// and produces bounded trait adjustments.
//
// A Coordinator is not safe for concurrent use. The engine's owner
// goroutine is the only caller.
package adaptation

import (
	"math"
	"time"

	"github.com/ASaxcs/bot2/internal/config"
	"github.com/ASaxcs/bot2/internal/core"
	"github.com/ASaxcs/bot2/internal/logging"
	"github.com/ASaxcs/bot2/internal/parser"
)

// maxAdjustment bounds any single per-trait adjustment.
const maxAdjustment = 0.1

// Sentiment labels.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Interaction trigger categories.
const (
	TriggerHelpSeeking         = "help_seeking"
	TriggerInformationSeeking  = "information_seeking"
	TriggerCreativeRequest     = "creative_request"
	TriggerEmotionalExpression = "emotional_expression"
	TriggerGeneral             = "general"
)

// Analysis is the coordinator's reading of one interaction.
type Analysis struct {
	Sentiment         string   `json:"sentiment"`
	Complexity        float64  `json:"complexity"`
	EngagementLevel   float64  `json:"engagement_level"`
	SuccessIndicators []string `json:"success_indicators,omitempty"`
	FailureIndicators []string `json:"failure_indicators,omitempty"`
	PrimaryTrigger    string   `json:"primary_trigger"`
	Confidence        float64  `json:"confidence"`
}

// Pattern is a recognized trigger/sentiment combination that produced
// useful adjustments.
type Pattern struct {
	Key         string                     `json:"pattern"`
	Adjustments map[core.TraitName]float64 `json:"adjustments"`
	Confidence  float64                    `json:"confidence"`
	Count       int                        `json:"count"`
	LastSeen    time.Time                  `json:"last_seen"`
}

// ContextAssociation tracks which traits worked for a trigger category.
type ContextAssociation struct {
	SuccessfulTraits map[core.TraitName]int `json:"successful_traits"`
	InteractionCount int                    `json:"interaction_count"`
}

// Momentum carries decayed counts of recent interaction sentiment.
type Momentum struct {
	Positive float64 `json:"positive_interactions"`
	Negative float64 `json:"negative_interactions"`
	Neutral  float64 `json:"neutral_interactions"`
}

// AdaptationEntry logs one significant adaptation event.
type AdaptationEntry struct {
	Timestamp   time.Time                  `json:"timestamp"`
	Trigger     string                     `json:"trigger"`
	Adjustments map[core.TraitName]float64 `json:"adjustments"`
	Confidence  float64                    `json:"confidence"`
}

// State is the coordinator's persistable learning state.
type State struct {
	Momentum     Momentum                       `json:"momentum"`
	Patterns     map[string]*Pattern            `json:"patterns"`
	Associations map[string]*ContextAssociation `json:"context_associations"`
}

// Coordinator learns from interactions and proposes trait adjustments.
type Coordinator struct {
	cfg          config.AdaptationConfig
	momentum     Momentum
	patterns     map[string]*Pattern
	associations map[string]*ContextAssociation
	adaptLog     []AdaptationEntry
	interactions int
	log          *logging.Logger
}

// NewCoordinator builds an empty coordinator.
func NewCoordinator(cfg config.AdaptationConfig) *Coordinator {
	return &Coordinator{
		cfg:          cfg,
		patterns:     make(map[string]*Pattern),
		associations: make(map[string]*ContextAssociation),
		log:          logging.Component("adaptation"),
	}
}

// Learn analyzes one interaction and returns per-trait adjustments,
// each bounded to [-0.1, 0.1].
func (c *Coordinator) Learn(exp core.InteractionExperience) map[core.TraitName]float64 {
	analysis := c.Analyze(exp.UserInput, exp.AIResponse)
	c.updateMomentum(analysis)
	adjustments := c.calculateAdjustments(analysis)
	c.updatePatterns(analysis, adjustments, exp.Timestamp)

	c.interactions++

	significant := false
	for _, adj := range adjustments {
		if math.Abs(adj) > 0.05 {
			significant = true
			break
		}
	}
	if significant {
		c.adaptLog = append(c.adaptLog, AdaptationEntry{
			Timestamp:   exp.Timestamp,
			Trigger:     analysis.PrimaryTrigger,
			Adjustments: copyAdjustments(adjustments),
			Confidence:  analysis.Confidence,
		})
		if len(c.adaptLog) > 100 {
			c.adaptLog = c.adaptLog[len(c.adaptLog)-100:]
		}
	}

	return adjustments
}

// Analyze extracts learning signals from an exchange.
func (c *Coordinator) Analyze(userInput, aiResponse string) Analysis {
	analysis := Analysis{
		Sentiment:       SentimentNeutral,
		Complexity:      0.5,
		EngagementLevel: 0.5,
		PrimaryTrigger:  TriggerGeneral,
		Confidence:      0.5,
	}

	user := parser.Parse(userInput)
	combined := parser.Parse(userInput + " " + aiResponse)

	positive, negative := combined.SentimentScores()
	switch combined.SentimentHint() {
	case parser.HintPositive:
		analysis.Sentiment = SentimentPositive
		analysis.SuccessIndicators = append(analysis.SuccessIndicators, "positive_language")
	case parser.HintNegative:
		analysis.Sentiment = SentimentNegative
		analysis.FailureIndicators = append(analysis.FailureIndicators, "negative_language")
	}

	if n := combined.WordCount(); n > 0 {
		total := 0
		for _, tok := range combined.Tokens {
			total += len(tok)
		}
		analysis.Complexity = math.Min(1.0, float64(total)/float64(n)/10.0)
	}

	questions := combined.QuestionCount()
	exclamations := combined.ExclamationCount()
	analysis.EngagementLevel = math.Min(1.0, float64(questions+exclamations)/5.0)

	switch {
	case user.Contains("help") || user.Contains("assist") || user.Contains("support"):
		analysis.PrimaryTrigger = TriggerHelpSeeking
	case user.Contains("explain") || user.Contains("how") || user.Contains("why") || user.Contains("what"):
		analysis.PrimaryTrigger = TriggerInformationSeeking
	case user.Contains("create") || user.Contains("make") || user.Contains("build") || user.Contains("design"):
		analysis.PrimaryTrigger = TriggerCreativeRequest
	case user.Contains("feel") || user.Contains("emotion") || user.Contains("sad") || user.Contains("happy") || user.Contains("angry"):
		analysis.PrimaryTrigger = TriggerEmotionalExpression
	}

	signal := math.Abs(float64(positive-negative)) + float64(questions+exclamations)
	analysis.Confidence = math.Min(1.0, signal/5.0)

	return analysis
}

func (c *Coordinator) updateMomentum(analysis Analysis) {
	switch analysis.Sentiment {
	case SentimentPositive:
		c.momentum.Positive++
	case SentimentNegative:
		c.momentum.Negative++
	default:
		c.momentum.Neutral++
	}
	c.momentum.Positive *= c.cfg.MemoryDecay
	c.momentum.Negative *= c.cfg.MemoryDecay
	c.momentum.Neutral *= c.cfg.MemoryDecay
}

func (c *Coordinator) calculateAdjustments(analysis Analysis) map[core.TraitName]float64 {
	adjustments := map[core.TraitName]float64{
		core.TraitAssertiveness: 0,
		core.TraitEmpathy:       0,
		core.TraitCuriosity:     0,
	}

	base := c.cfg.LearningRate * analysis.Confidence

	if analysis.PrimaryTrigger == TriggerHelpSeeking && analysis.Sentiment == SentimentPositive {
		adjustments[core.TraitAssertiveness] += base * 0.5
	} else if analysis.PrimaryTrigger == TriggerCreativeRequest {
		adjustments[core.TraitAssertiveness] += base * 0.2
	}

	if analysis.PrimaryTrigger == TriggerEmotionalExpression {
		adjustments[core.TraitEmpathy] += base * 0.7
	} else if analysis.Sentiment == SentimentNegative {
		adjustments[core.TraitEmpathy] += base * 0.4
	} else if hasIndicator(analysis.SuccessIndicators, "positive_language") {
		adjustments[core.TraitEmpathy] += base * 0.2
	}

	if analysis.PrimaryTrigger == TriggerInformationSeeking {
		adjustments[core.TraitCuriosity] += base * 0.6
	} else if analysis.EngagementLevel > 0.7 {
		adjustments[core.TraitCuriosity] += base * 0.3
	} else if analysis.PrimaryTrigger == TriggerCreativeRequest {
		adjustments[core.TraitCuriosity] += base * 0.4
	}

	momentumFactor := (c.momentum.Positive - c.momentum.Negative) / 10.0
	momentumFactor = core.ClampRange(momentumFactor, -0.5, 0.5)
	for trait := range adjustments {
		adjustments[trait] += momentumFactor * base * 0.2
		adjustments[trait] = core.ClampRange(adjustments[trait], -maxAdjustment, maxAdjustment)
	}

	return adjustments
}

func (c *Coordinator) updatePatterns(analysis Analysis, adjustments map[core.TraitName]float64, now time.Time) {
	patternKey := analysis.PrimaryTrigger + "_" + analysis.Sentiment

	meaningful := false
	for _, adj := range adjustments {
		if math.Abs(adj) > 0.02 {
			meaningful = true
			break
		}
	}

	if analysis.Sentiment == SentimentPositive && meaningful {
		if p, ok := c.patterns[patternKey]; ok {
			p.Count++
			p.LastSeen = now
			for trait, adj := range adjustments {
				p.Adjustments[trait] = p.Adjustments[trait]*0.8 + adj*0.2
			}
		} else {
			c.patterns[patternKey] = &Pattern{
				Key:         patternKey,
				Adjustments: copyAdjustments(adjustments),
				Confidence:  analysis.Confidence,
				Count:       1,
				LastSeen:    now,
			}
		}
	}

	assoc, ok := c.associations[analysis.PrimaryTrigger]
	if !ok {
		assoc = &ContextAssociation{
			SuccessfulTraits: map[core.TraitName]int{
				core.TraitAssertiveness: 0,
				core.TraitEmpathy:       0,
				core.TraitCuriosity:     0,
			},
		}
		c.associations[analysis.PrimaryTrigger] = assoc
	}
	assoc.InteractionCount++

	if analysis.Sentiment == SentimentPositive {
		for trait, adj := range adjustments {
			if adj > 0 {
				assoc.SuccessfulTraits[trait]++
			}
		}
	}
}

// Insights summarizes the learning state for introspection endpoints.
type Insights struct {
	TotalInteractions   int                            `json:"total_interactions"`
	Momentum            Momentum                       `json:"learning_momentum"`
	SuccessfulPatterns  int                            `json:"successful_patterns"`
	AdaptationFrequency int                            `json:"adaptation_frequency"`
	RecentAdaptations   []AdaptationEntry              `json:"recent_adaptations"`
	ContextAssociations map[string]*ContextAssociation `json:"context_associations"`
}

func (c *Coordinator) Insights() Insights {
	recent := c.adaptLog
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	recentCopy := make([]AdaptationEntry, len(recent))
	copy(recentCopy, recent)

	assoc := make(map[string]*ContextAssociation, len(c.associations))
	for k, v := range c.associations {
		traits := make(map[core.TraitName]int, len(v.SuccessfulTraits))
		for t, n := range v.SuccessfulTraits {
			traits[t] = n
		}
		assoc[k] = &ContextAssociation{SuccessfulTraits: traits, InteractionCount: v.InteractionCount}
	}

	return Insights{
		TotalInteractions:   c.interactions,
		Momentum:            c.momentum,
		SuccessfulPatterns:  len(c.patterns),
		AdaptationFrequency: len(c.adaptLog),
		RecentAdaptations:   recentCopy,
		ContextAssociations: assoc,
	}
}

// PredictOptimalStyle suggests trait levels for a trigger category,
// preferring learned context associations over global patterns.
func (c *Coordinator) PredictOptimalStyle(primaryTrigger string) map[core.TraitName]float64 {
	if assoc, ok := c.associations[primaryTrigger]; ok && assoc.InteractionCount > 0 {
		out := make(map[core.TraitName]float64, len(assoc.SuccessfulTraits))
		for trait, score := range assoc.SuccessfulTraits {
			out[trait] = math.Min(1.0, float64(score)/float64(assoc.InteractionCount))
		}
		return out
	}

	out := map[core.TraitName]float64{
		core.TraitAssertiveness: 0.5,
		core.TraitEmpathy:       0.5,
		core.TraitCuriosity:     0.5,
	}
	for _, p := range c.patterns {
		if p.Count <= 2 {
			continue
		}
		for trait, adj := range p.Adjustments {
			out[trait] += adj * 0.1
		}
	}
	for trait := range out {
		out[trait] = core.ClampRange(out[trait], 0.1, 0.9)
	}
	return out
}

// Reset clears all learning state.
func (c *Coordinator) Reset() {
	c.momentum = Momentum{}
	c.patterns = make(map[string]*Pattern)
	c.associations = make(map[string]*ContextAssociation)
	c.adaptLog = c.adaptLog[:0]
	c.interactions = 0
	c.log.Info("learning state reset")
}

// Export returns a deep copy of the persistable state.
func (c *Coordinator) Export() State {
	patterns := make(map[string]*Pattern, len(c.patterns))
	for k, p := range c.patterns {
		patterns[k] = &Pattern{
			Key:         p.Key,
			Adjustments: copyAdjustments(p.Adjustments),
			Confidence:  p.Confidence,
			Count:       p.Count,
			LastSeen:    p.LastSeen,
		}
	}
	assoc := make(map[string]*ContextAssociation, len(c.associations))
	for k, a := range c.associations {
		traits := make(map[core.TraitName]int, len(a.SuccessfulTraits))
		for t, n := range a.SuccessfulTraits {
			traits[t] = n
		}
		assoc[k] = &ContextAssociation{SuccessfulTraits: traits, InteractionCount: a.InteractionCount}
	}
	return State{Momentum: c.momentum, Patterns: patterns, Associations: assoc}
}

// Restore installs a previously exported state.
func (c *Coordinator) Restore(s State) {
	c.momentum = s.Momentum
	c.patterns = make(map[string]*Pattern)
	for k, p := range s.Patterns {
		if p == nil {
			continue
		}
		if p.Adjustments == nil {
			p.Adjustments = map[core.TraitName]float64{}
		}
		c.patterns[k] = p
	}
	c.associations = make(map[string]*ContextAssociation)
	for k, a := range s.Associations {
		if a == nil {
			continue
		}
		if a.SuccessfulTraits == nil {
			a.SuccessfulTraits = map[core.TraitName]int{}
		}
		c.associations[k] = a
	}
}

func copyAdjustments(in map[core.TraitName]float64) map[core.TraitName]float64 {
	out := make(map[core.TraitName]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func hasIndicator(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
