// Package parser provides the lexical analysis behind trigger detection
// and adaptation: cleaning, tokenization, negation scoping, intensity
// amplifiers, crude entity extraction and a sentiment hint.
package parser

import (
	"regexp"
	"strings"
)

// negationWindow is how many tokens before a match a negation word
// still flips its polarity.
const negationWindow = 5

var negationWords = map[string]bool{
	"not": true, "never": true, "no": true, "none": true,
	"nothing": true, "nobody": true, "nowhere": true,
	"neither": true, "nor": true,
	"barely": true, "hardly": true, "scarcely": true, "seldom": true,
}

// amplifierWeights scale a matched trigger's score upward.
var amplifierWeights = map[string]float64{
	"very":         1.3,
	"extremely":    1.5,
	"really":       1.2,
	"so":           1.2,
	"absolutely":   1.4,
	"totally":      1.3,
	"completely":   1.4,
	"incredibly":   1.3,
	"tremendously": 1.4,
	"immensely":    1.3,
}

// sentimentPositive and sentimentNegative are crude marker words for the
// sentiment hint. A hit inside a negation window counts for the other side.
var sentimentPositive = []string{
	"thank", "great", "good", "excellent", "helpful", "amazing",
	"love", "perfect", "wonderful", "fantastic",
}
var sentimentNegative = []string{
	"bad", "wrong", "terrible", "hate", "awful", "useless",
	"confused", "frustrated", "horrible", "disappointed",
}

// Sentiment hint labels.
const (
	HintPositive = "positive"
	HintNegative = "negative"
	HintNeutral  = "neutral"
)

// Entity kinds.
const (
	EntityName   = "name"
	EntityNumber = "number"
)

// Entity is a crude extraction from the text: a capitalized token or a
// number. No disambiguation is attempted.
type Entity struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

var (
	tokenPattern     = regexp.MustCompile(`[a-z0-9']+`)
	controlPattern   = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")
	spaceRunPattern  = regexp.MustCompile(`\s+`)
	dotRunPattern    = regexp.MustCompile(`\.{2,}`)
	bangRunPattern   = regexp.MustCompile(`!{2,}`)
	qmarkRunPattern  = regexp.MustCompile(`\?{2,}`)
	capitalizedToken = regexp.MustCompile(`\b[A-Z][a-z']+\b`)
	numberToken      = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)
)

// Clean normalizes raw input: control characters dropped, whitespace
// collapsed, runs of repeated punctuation reduced.
func Clean(text string) string {
	text = controlPattern.ReplaceAllString(text, " ")
	text = spaceRunPattern.ReplaceAllString(strings.TrimSpace(text), " ")
	text = dotRunPattern.ReplaceAllString(text, "...")
	text = bangRunPattern.ReplaceAllString(text, "!")
	return qmarkRunPattern.ReplaceAllString(text, "?")
}

// Tokens lowercases text and splits it into word tokens.
func Tokens(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// Doc is a tokenized input ready for repeated matching. Building one up
// front keeps per-keyword lookups cheap.
type Doc struct {
	Raw      string
	Cleaned  string
	Lower    string
	Tokens   []string
	Entities []Entity
	index    map[string][]int // token -> positions
}

// Parse cleans and tokenizes text into a Doc.
func Parse(text string) *Doc {
	cleaned := Clean(text)
	lower := strings.ToLower(cleaned)
	tokens := tokenPattern.FindAllString(lower, -1)
	index := make(map[string][]int, len(tokens))
	for i, tok := range tokens {
		index[tok] = append(index[tok], i)
	}
	return &Doc{
		Raw:      text,
		Cleaned:  cleaned,
		Lower:    lower,
		Tokens:   tokens,
		Entities: extractEntities(cleaned),
		index:    index,
	}
}

func extractEntities(cleaned string) []Entity {
	var entities []Entity
	for _, m := range capitalizedToken.FindAllString(cleaned, -1) {
		entities = append(entities, Entity{Kind: EntityName, Text: m})
	}
	for _, m := range numberToken.FindAllString(cleaned, -1) {
		entities = append(entities, Entity{Kind: EntityNumber, Text: m})
	}
	return entities
}

// Contains reports whether the token occurs anywhere in the input.
func (d *Doc) Contains(token string) bool {
	return len(d.index[token]) > 0
}

// Count returns how many times the token occurs.
func (d *Doc) Count(token string) int {
	return len(d.index[token])
}

// WordCount returns the number of tokens.
func (d *Doc) WordCount() int {
	return len(d.Tokens)
}

// Negated reports whether any occurrence of token falls inside the
// scope of a preceding negation word.
func (d *Doc) Negated(token string) bool {
	for _, pos := range d.index[token] {
		if d.negatedAt(pos) {
			return true
		}
	}
	return false
}

func (d *Doc) negatedAt(pos int) bool {
	start := pos - negationWindow
	if start < 0 {
		start = 0
	}
	for i := start; i < pos; i++ {
		if negationWords[d.Tokens[i]] {
			return true
		}
	}
	return false
}

// ContainsPhrase reports whether the multi-word phrase appears in the
// input, and whether that appearance is negated.
func (d *Doc) ContainsPhrase(phrase string) (found, negated bool) {
	words := Tokens(phrase)
	if len(words) == 0 {
		return false, false
	}
	if len(words) == 1 {
		return d.Contains(words[0]), d.Negated(words[0])
	}
	for _, start := range d.index[words[0]] {
		if start+len(words) > len(d.Tokens) {
			continue
		}
		match := true
		for i := 1; i < len(words); i++ {
			if d.Tokens[start+i] != words[i] {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		found = true
		lo := start - negationWindow
		if lo < 0 {
			lo = 0
		}
		for i := lo; i < start; i++ {
			if negationWords[d.Tokens[i]] {
				negated = true
			}
		}
		if found {
			return found, negated
		}
	}
	return found, negated
}

// Amplification returns the combined multiplier of every amplifier word
// present in the input. With no amplifiers it returns 1.
func (d *Doc) Amplification() float64 {
	mult := 1.0
	for word, weight := range amplifierWeights {
		if d.Contains(word) {
			mult *= weight
		}
	}
	return mult
}

// QuestionCount returns the number of question marks in the raw text.
func (d *Doc) QuestionCount() int {
	return strings.Count(d.Raw, "?")
}

// ExclamationCount returns the number of exclamation marks in the raw text.
func (d *Doc) ExclamationCount() int {
	return strings.Count(d.Raw, "!")
}

// SentimentScores counts positive and negative marker occurrences.
// A negated occurrence counts for the opposite side.
func (d *Doc) SentimentScores() (positive, negative int) {
	for _, w := range sentimentPositive {
		for _, pos := range d.index[w] {
			if d.negatedAt(pos) {
				negative++
			} else {
				positive++
			}
		}
	}
	for _, w := range sentimentNegative {
		for _, pos := range d.index[w] {
			if d.negatedAt(pos) {
				positive++
			} else {
				negative++
			}
		}
	}
	return positive, negative
}

// SentimentHint classifies the input from the marker counts.
func (d *Doc) SentimentHint() string {
	positive, negative := d.SentimentScores()
	switch {
	case positive > negative:
		return HintPositive
	case negative > positive:
		return HintNegative
	default:
		return HintNeutral
	}
}
