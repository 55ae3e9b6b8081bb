package emergency

import (
	"math"
	"strings"
)

const (
	LevelNone     = "none"
	LevelLow      = "low"
	LevelMedium   = "medium"
	LevelHigh     = "high"
	LevelCritical = "critical"
)

var levelRanks = map[string]int{
	LevelNone:     0,
	LevelLow:      1,
	LevelMedium:   2,
	LevelHigh:     3,
	LevelCritical: 4,
}

// Detection is the outcome of one emergency scan. IsEmergency is
// derived from Level at construction and the two never disagree.
type Detection struct {
	IsEmergency        bool     `json:"is_emergency"`
	Level              string   `json:"level"`
	Confidence         float64  `json:"confidence"`
	Indicators         []string `json:"indicators"`
	RecommendedActions []string `json:"recommended_actions"`
	UrgencyScore       float64  `json:"urgency_score"`
	MedicalPriority    string   `json:"medical_priority"`
}

// Detector is a rule-based classifier over the fixed pattern tables.
// Detect is a pure function of its input text, so a single Detector is
// safe for concurrent use.
type Detector struct{}

func NewDetector() *Detector {
	return &Detector{}
}

// Detect scans the text for critical and priority condition families,
// folds in urgency cues, and maps the combined score to a five-level
// ordinal scale.
func (d *Detector) Detect(text string) Detection {
	lower := strings.ToLower(text)

	criticalScores := scoreCriticalPatterns(lower)
	priorityScores := scorePriorityConditions(lower)
	modifiers := urgencyModifiers(lower)

	emergencyScore := combineScores(criticalScores, priorityScores, modifiers)
	level := levelFor(emergencyScore)
	indicators := collectIndicators(lower, criticalScores, priorityScores)

	return Detection{
		IsEmergency:        level != LevelNone,
		Level:              level,
		Confidence:         detectionConfidence(criticalScores, priorityScores, modifiers),
		Indicators:         indicators,
		RecommendedActions: recommendedActions(level, indicators),
		UrgencyScore:       urgencyScore(emergencyScore, modifiers),
		MedicalPriority:    medicalPriority(level),
	}
}

type familyScore struct {
	name  string
	score float64
}

func scoreCriticalPatterns(text string) []familyScore {
	scores := make([]familyScore, 0, len(criticalPatterns))
	for _, pattern := range criticalPatterns {
		score := 0.3*float64(countMatches(text, pattern.keywords)) +
			0.4*float64(countMatches(text, pattern.phrases)) +
			0.2*float64(countMatches(text, pattern.symptoms)) +
			0.1*float64(countMatches(text, pattern.severityIndicators))
		scores = append(scores, familyScore{name: pattern.name, score: math.Min(1.0, score)})
	}
	return scores
}

func scorePriorityConditions(text string) []familyScore {
	scores := make([]familyScore, 0, len(priorityConditions))
	for _, condition := range priorityConditions {
		score := 0.4*float64(countMatches(text, condition.keywords)) +
			0.3*float64(countMatches(text, condition.indicators)) +
			0.2*float64(countMatches(text, condition.bodyParts))
		score *= condition.severity
		scores = append(scores, familyScore{name: condition.name, score: math.Min(1.0, score)})
	}
	return scores
}

func urgencyModifiers(text string) []float64 {
	return []float64{
		math.Min(1.0, float64(countMatches(text, timeIndicators))*0.3),
		math.Min(1.0, float64(countMatches(text, intensityIndicators))*0.3),
		math.Min(1.0, float64(countMatches(text, actionIndicators))*0.4),
		math.Min(1.0, float64(countMatches(text, symptomCombinations))*0.5),
	}
}

func combineScores(critical, priority []familyScore, modifiers []float64) float64 {
	score := 0.5*maxScore(critical) + 0.3*maxScore(priority) + 0.2*average(modifiers)

	// two or more critical families above threshold indicate a
	// compound emergency and escalate the combined score
	strong := 0
	for _, fs := range critical {
		if fs.score > 0.3 {
			strong++
		}
	}
	if strong > 1 {
		score += 0.2
	}

	return clamp01(score)
}

func levelFor(score float64) string {
	switch {
	case score >= 0.9:
		return LevelCritical
	case score >= 0.7:
		return LevelHigh
	case score >= 0.5:
		return LevelMedium
	case score >= 0.3:
		return LevelLow
	default:
		return LevelNone
	}
}

func detectionConfidence(critical, priority []familyScore, modifiers []float64) float64 {
	confidence := math.Max(maxScore(critical), maxScore(priority))

	strongFamilies := 0
	for _, fs := range critical {
		if fs.score > 0.3 {
			strongFamilies++
		}
	}
	for _, fs := range priority {
		if fs.score > 0.3 {
			strongFamilies++
		}
	}
	if strongFamilies > 1 {
		confidence += 0.2
	}

	total := 0.0
	for _, m := range modifiers {
		total += m
	}
	confidence += total * 0.1

	return clamp01(confidence)
}

// collectIndicators reports the matched keywords of every family that
// scored above 0.3, in table declaration order, capped at ten.
func collectIndicators(text string, critical, priority []familyScore) []string {
	var indicators []string

	for i, fs := range critical {
		if fs.score <= 0.3 {
			continue
		}
		pattern := criticalPatterns[i]
		for _, keyword := range pattern.keywords {
			if strings.Contains(text, keyword) {
				indicators = append(indicators, "Critical: "+keyword)
			}
		}
		for _, phrase := range pattern.phrases {
			if strings.Contains(text, phrase) {
				indicators = append(indicators, "Critical phrase: "+phrase)
			}
		}
	}

	for i, fs := range priority {
		if fs.score <= 0.3 {
			continue
		}
		condition := priorityConditions[i]
		for _, keyword := range condition.keywords {
			if strings.Contains(text, keyword) {
				indicators = append(indicators, "Priority: "+keyword)
			}
		}
	}

	if len(indicators) > 10 {
		indicators = indicators[:10]
	}
	return indicators
}

func recommendedActions(level string, indicators []string) []string {
	var actions []string

	switch level {
	case LevelCritical:
		actions = append(actions,
			"Call 911 immediately",
			"Do not delay seeking emergency medical care",
			"If unconscious, check for breathing and pulse",
			"Stay with the person until help arrives",
		)
	case LevelHigh:
		actions = append(actions,
			"Seek immediate medical attention",
			"Go to the nearest emergency room",
			"Call emergency services if symptoms worsen",
			"Do not drive yourself if experiencing severe symptoms",
		)
	case LevelMedium:
		actions = append(actions,
			"Schedule urgent medical consultation",
			"Contact your healthcare provider immediately",
			"Monitor symptoms closely",
			"Go to urgent care if symptoms persist or worsen",
		)
	case LevelLow:
		actions = append(actions,
			"Monitor symptoms",
			"Contact healthcare provider if symptoms worsen",
			"Consider urgent care if symptoms persist",
		)
	}

	if indicatorsMention(indicators, "chest pain") {
		actions = append(actions,
			"If chest pain, sit down and rest",
			"Take prescribed heart medication if available",
		)
	}
	if indicatorsMention(indicators, "breathing") {
		actions = append(actions,
			"Try to stay calm and breathe slowly",
			"Sit upright if possible",
		)
	}
	if indicatorsMention(indicators, "bleeding") {
		actions = append(actions,
			"Apply direct pressure to stop bleeding",
			"Elevate the injured area if possible",
		)
	}

	return actions
}

func urgencyScore(emergencyScore float64, modifiers []float64) float64 {
	return clamp01(0.7*emergencyScore + 0.3*average(modifiers))
}

func medicalPriority(level string) string {
	switch level {
	case LevelCritical:
		return "immediate"
	case LevelHigh:
		return "urgent"
	case LevelMedium:
		return "priority"
	case LevelLow:
		return "routine"
	default:
		return "non_urgent"
	}
}

func indicatorsMention(indicators []string, needle string) bool {
	for _, indicator := range indicators {
		if strings.Contains(strings.ToLower(indicator), needle) {
			return true
		}
	}
	return false
}

func countMatches(text string, needles []string) int {
	count := 0
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			count++
		}
	}
	return count
}

func maxScore(scores []familyScore) float64 {
	best := 0.0
	for _, fs := range scores {
		if fs.score > best {
			best = fs.score
		}
	}
	return best
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func clamp01(value float64) float64 {
	return math.Min(1.0, math.Max(0.0, value))
}
