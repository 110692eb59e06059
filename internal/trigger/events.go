package trigger

import (
	"regexp"
	"sync"
	"time"

	"github.com/ASaxcs/bot2/internal/core"
)

// EventType classifies a non-lexical interaction event.
type EventType string

const (
	EventUserPraise         EventType = "user_praise"
	EventUserCriticism      EventType = "user_criticism"
	EventSuccessfulTask     EventType = "successful_task"
	EventFailedTask         EventType = "failed_task"
	EventNewLearning        EventType = "new_learning"
	EventConfusionDetected  EventType = "confusion_detected"
	EventHumorDetected      EventType = "humor_detected"
	EventSadnessDetected    EventType = "sadness_detected"
	EventExcitementDetected EventType = "excitement_detected"
	EventGratitudeReceived  EventType = "gratitude_received"
	EventLongSilence        EventType = "long_silence"
	EventRapidInteraction   EventType = "rapid_interaction"
	EventComplexQuestion    EventType = "complex_question"
	EventSimpleQuestion     EventType = "simple_question"
	EventCreativeRequest    EventType = "creative_request"
	EventPersonalSharing    EventType = "personal_sharing"
)

// eventRule binds an event to the emotion it provokes.
type eventRule struct {
	emotion   core.Emotion
	intensity float64
	cooldown  time.Duration
}

var eventRules = map[EventType]eventRule{
	EventUserPraise:         {core.EmotionJoy, 0.8, 30 * time.Second},
	EventGratitudeReceived:  {core.EmotionJoy, 0.7, 0},
	EventUserCriticism:      {core.EmotionSadness, 0.6, 60 * time.Second},
	EventSuccessfulTask:     {core.EmotionJoy, 0.6, 10 * time.Second},
	EventFailedTask:         {core.EmotionSadness, 0.5, 30 * time.Second},
	EventNewLearning:        {core.EmotionCuriosity, 0.7, 0},
	EventConfusionDetected:  {core.EmotionConfusion, 0.6, 0},
	EventHumorDetected:      {core.EmotionJoy, 0.8, 0},
	EventSadnessDetected:    {core.EmotionEmpathy, 0.7, 0},
	EventExcitementDetected: {core.EmotionExcitement, 0.8, 0},
	EventRapidInteraction:   {core.EmotionExcitement, 0.6, 0},
	EventLongSilence:        {core.EmotionConfusion, 0.4, 0},
	EventComplexQuestion:    {core.EmotionCuriosity, 0.7, 0},
	EventCreativeRequest:    {core.EmotionExcitement, 0.8, 0},
	EventPersonalSharing:    {core.EmotionEmpathy, 0.7, 0},
}

// Textual event matchers, checked against the combined user/AI text.
var eventPatterns = []struct {
	event EventType
	res   []*regexp.Regexp
}{
	{EventUserPraise, []*regexp.Regexp{
		regexp.MustCompile(`(?i)(excellent|amazing|fantastic|wonderful|great job|well done|perfect|brilliant|outstanding|impressive)`),
		regexp.MustCompile(`(?i)(love (this|it|that)|this is (great|awesome|perfect))`),
		regexp.MustCompile(`(?i)(you('re| are) (so|very) (helpful|smart|good|amazing))`),
	}},
	{EventUserCriticism, []*regexp.Regexp{
		regexp.MustCompile(`(?i)(wrong|incorrect|bad|terrible|awful|useless|stupid|dumb)`),
		regexp.MustCompile(`(?i)(disappointed|unsatisfied|not (good|helpful|useful))`),
		regexp.MustCompile(`(?i)(this (doesn't|does not) (work|help|make sense))`),
	}},
	{EventConfusionDetected, []*regexp.Regexp{
		regexp.MustCompile(`(?i)(confused|don't understand|unclear|what do you mean)`),
		regexp.MustCompile(`(?i)(i('m| am) lost|doesn't make sense|can you explain)`),
	}},
	{EventHumorDetected, []*regexp.Regexp{
		regexp.MustCompile(`(?i)(haha|lol|funny|hilarious|amusing|witty)`),
		regexp.MustCompile(`(?i)(joke|kidding|just kidding)`),
		regexp.MustCompile(`(?i)(made me (laugh|smile)|that's funny)`),
	}},
	{EventSadnessDetected, []*regexp.Regexp{
		regexp.MustCompile(`(?i)(sad|depressed|down|upset|unhappy|feeling low)`),
		regexp.MustCompile(`(?i)(difficult time|hard time|struggling|tough)`),
		regexp.MustCompile(`(?i)(crying|tears|heartbroken|devastated)`),
	}},
	{EventExcitementDetected, []*regexp.Regexp{
		regexp.MustCompile(`(?i)(excited|thrilled|can't wait|incredible)`),
		regexp.MustCompile(`(?i)(wow|omg|fantastic|awesome|super)`),
	}},
	{EventGratitudeReceived, []*regexp.Regexp{
		regexp.MustCompile(`(?i)(thank you|thanks|grateful|appreciate)`),
		regexp.MustCompile(`(?i)(so helpful|really appreciate|thankful)`),
	}},
	{EventCreativeRequest, []*regexp.Regexp{
		regexp.MustCompile(`(?i)(create|write|generate|make|design|build)`),
		regexp.MustCompile(`(?i)(story|poem|song|art|creative|imagine)`),
		regexp.MustCompile(`(?i)(brainstorm|ideas|innovative)`),
	}},
	{EventComplexQuestion, []*regexp.Regexp{
		regexp.MustCompile(`(?i)(explain|analyze|compare|evaluate|discuss)`),
		regexp.MustCompile(`(?i)(complex|complicated|difficult|challenging)`),
	}},
	{EventPersonalSharing, []*regexp.Regexp{
		regexp.MustCompile(`(?i)(my (life|family|relationship|experience))`),
		regexp.MustCompile(`(?i)(i (feel|felt|think|believe))`),
	}},
}

// Interaction timing thresholds.
const (
	rapidInteractionGap = 5 * time.Second
	longSilenceGap      = 3 * time.Minute
	shortInputWords     = 5
	longInputWords      = 20
)

// EventDetector maps interaction events to trigger signals, applying
// per-event cooldowns and repetition dampening.
type EventDetector struct {
	mu          sync.Mutex
	sensitivity float64
	lastFired   map[EventType]time.Time
	recent      []firedEvent
	lastSeen    time.Time
}

type firedEvent struct {
	event EventType
	at    time.Time
}

// NewEventDetector builds an event detector with the given sensitivity.
func NewEventDetector(sensitivity float64) *EventDetector {
	return &EventDetector{
		sensitivity: core.Clamp01(sensitivity),
		lastFired:   make(map[EventType]time.Time),
	}
}

// DetectEvents finds interaction events in the given exchange. Timing
// events (rapid interaction, long silence, question size) come from the
// gap since the previous call and the input length.
func (d *EventDetector) DetectEvents(userInput, aiResponse string, now time.Time) []EventType {
	combined := userInput + " " + aiResponse

	seen := make(map[EventType]bool)
	var events []EventType
	add := func(e EventType) {
		if !seen[e] {
			seen[e] = true
			events = append(events, e)
		}
	}

	for _, ep := range eventPatterns {
		for _, re := range ep.res {
			if re.MatchString(combined) {
				add(ep.event)
				break
			}
		}
	}

	d.mu.Lock()
	if !d.lastSeen.IsZero() {
		gap := now.Sub(d.lastSeen)
		if gap < rapidInteractionGap {
			add(EventRapidInteraction)
		} else if gap > longSilenceGap {
			add(EventLongSilence)
		}
	}
	d.lastSeen = now
	d.mu.Unlock()

	wordCount := countWords(userInput)
	if wordCount > 0 && wordCount < shortInputWords {
		add(EventSimpleQuestion)
	} else if wordCount > longInputWords {
		add(EventComplexQuestion)
	}

	return events
}

func countWords(s string) int {
	n := 0
	inWord := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' {
			inWord = false
		} else if !inWord {
			inWord = true
			n++
		}
	}
	return n
}

// Signal converts one detected event into a trigger signal, or returns
// false when the event has no rule, is cooling down, or is dampened
// below the emission floor by repetition.
func (d *EventDetector) Signal(event EventType, now time.Time) (core.TriggerSignal, bool) {
	rule, ok := eventRules[event]
	if !ok {
		return core.TriggerSignal{}, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if rule.cooldown > 0 {
		if last, fired := d.lastFired[event]; fired && now.Sub(last) < rule.cooldown {
			return core.TriggerSignal{}, false
		}
	}

	intensity := rule.intensity * d.sensitivity
	// Repeats inside five minutes lose intensity geometrically.
	repeats := 0
	cutoff := now.Add(-5 * time.Minute)
	kept := d.recent[:0]
	for _, fe := range d.recent {
		if fe.at.Before(cutoff) {
			continue
		}
		kept = append(kept, fe)
		if fe.event == event {
			repeats++
		}
	}
	d.recent = kept
	for i := 0; i < repeats; i++ {
		intensity *= 0.8
	}

	if intensity < minSignalScore {
		return core.TriggerSignal{}, false
	}

	d.lastFired[event] = now
	d.recent = append(d.recent, firedEvent{event: event, at: now})
	if len(d.recent) > 100 {
		d.recent = d.recent[len(d.recent)-100:]
	}

	intensity = core.Clamp01(intensity)
	return core.TriggerSignal{
		Category:          rule.emotion,
		EmotionMapping:    map[core.Emotion]float64{rule.emotion: intensity},
		IntensityModifier: intensity,
		SourceText:        "event:" + string(event),
		Timestamp:         now,
	}, true
}
