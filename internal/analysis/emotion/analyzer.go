package emotion

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// Analysis is the outcome of one emotional scan. It shapes tone and
// recommendations downstream but never gates the response on its own.
type Analysis struct {
	PrimaryEmotion  string             `json:"primary_emotion"`
	EmotionScores   map[string]float64 `json:"emotion_scores"`
	Intensity       float64            `json:"intensity"`
	Confidence      float64            `json:"confidence"`
	Indicators      []string           `json:"indicators"`
	Recommendations []string           `json:"recommendations"`
}

// Analyzer is a rule-based classifier over the fixed emotion tables,
// blended with a VADER sentiment signal. Analyze is a pure function
// of its inputs, so a single Analyzer is safe for concurrent use.
type Analyzer struct{}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze classifies the emotional state of the text. An optional
// context string amplifies scores when serious medical topics are in
// play; pass "" when there is none.
func (a *Analyzer) Analyze(text, context string) Analysis {
	lower := strings.ToLower(text)

	scores := emotionScores(lower)
	if context != "" {
		applyContextModifiers(scores, context)
	}

	sentiment := analyzeSentiment(text)
	combined := blendWithSentiment(scores, sentiment)

	primary := primaryEmotion(combined)
	intensity := intensityOf(combined, lower, text)

	return Analysis{
		PrimaryEmotion:  primary,
		EmotionScores:   combined,
		Intensity:       intensity,
		Confidence:      confidenceOf(combined, lower),
		Indicators:      collectIndicators(lower, primary),
		Recommendations: recommendationsFor(primary, intensity),
	}
}

func emotionScores(text string) map[string]float64 {
	scores := make(map[string]float64, len(emotionPatterns))
	wordCount := len(strings.Fields(text))

	for _, pattern := range emotionPatterns {
		base := 0.3*float64(countMatches(text, pattern.keywords)) +
			0.5*float64(countMatches(text, pattern.phrases)) +
			0.2*float64(countMatches(text, pattern.intensityModifiers))

		score := 0.0
		if wordCount > 0 {
			score = math.Min(1.0, base/(float64(wordCount)/10.0))
		}
		scores[pattern.name] = score
	}

	return scores
}

func applyContextModifiers(scores map[string]float64, context string) {
	contextLower := strings.ToLower(context)

	modifier := 1.0
	for term, multiplier := range medicalContextModifiers {
		if strings.Contains(contextLower, term) {
			modifier *= multiplier
		}
	}

	for emotion := range scores {
		scores[emotion] = math.Min(1.0, scores[emotion]*modifier)
	}
}

func blendWithSentiment(scores map[string]float64, sentiment sentimentScores) map[string]float64 {
	sentimentSignal := map[string]float64{
		"anxiety":     sentiment.negative * 0.7,
		"frustration": sentiment.negative * 0.8,
		"sadness":     sentiment.negative * 0.9,
		"confusion":   sentiment.neutral * 0.5,
		"relief":      sentiment.positive * 0.8,
		"urgency":     sentiment.compound * 0.6,
		"pain":        sentiment.negative * 0.6,
		"hope":        sentiment.positive * 0.9,
	}

	combined := make(map[string]float64, len(scores))
	for emotion, score := range scores {
		combined[emotion] = 0.7*score + 0.3*sentimentSignal[emotion]
	}
	return combined
}

// primaryEmotion picks the highest combined score, breaking ties by
// table declaration order.
func primaryEmotion(scores map[string]float64) string {
	best := emotionPatterns[0].name
	bestScore := scores[best]
	for _, pattern := range emotionPatterns[1:] {
		if scores[pattern.name] > bestScore {
			best = pattern.name
			bestScore = scores[pattern.name]
		}
	}
	return best
}

var intensityWords = []string{"very", "extremely", "really", "so", "quite", "incredibly", "absolutely"}

func intensityOf(scores map[string]float64, lower, original string) float64 {
	maxScore := 0.0
	for _, score := range scores {
		if score > maxScore {
			maxScore = score
		}
	}

	intensityCount := countMatches(lower, intensityWords)
	exclamations := strings.Count(original, "!")

	capsRatio := 0.0
	if len(original) > 0 {
		caps := 0
		for _, r := range original {
			if unicode.IsUpper(r) {
				caps++
			}
		}
		capsRatio = float64(caps) / float64(len(original))
	}

	intensity := maxScore + float64(intensityCount)*0.1 + float64(exclamations)*0.05 + capsRatio*0.2
	return clamp01(intensity)
}

func confidenceOf(scores map[string]float64, text string) float64 {
	top, second := 0.0, 0.0
	for _, score := range scores {
		if score > top {
			second = top
			top = score
		} else if score > second {
			second = score
		}
	}

	confidence := math.Min(1.0, (top-second)*2)

	if len(strings.Fields(text)) > 5 {
		confidence += 0.1
	}

	for _, pattern := range emotionPatterns {
		if countMatches(text, pattern.keywords) > 0 {
			confidence += 0.2
			break
		}
	}

	return clamp01(confidence)
}

func collectIndicators(text, primary string) []string {
	var indicators []string

	for _, pattern := range emotionPatterns {
		if pattern.name != primary {
			continue
		}
		for _, keyword := range pattern.keywords {
			if strings.Contains(text, keyword) {
				indicators = append(indicators, fmt.Sprintf("Keyword: '%s'", keyword))
			}
		}
		for _, phrase := range pattern.phrases {
			if strings.Contains(text, phrase) {
				indicators = append(indicators, fmt.Sprintf("Phrase: '%s'", phrase))
			}
		}
		for _, modifier := range pattern.intensityModifiers {
			if strings.Contains(text, modifier) {
				indicators = append(indicators, fmt.Sprintf("Intensity: '%s'", modifier))
			}
		}
	}

	return indicators
}

func recommendationsFor(primary string, intensity float64) []string {
	var recommendations []string

	switch primary {
	case "anxiety":
		if intensity > 0.7 {
			recommendations = append(recommendations,
				"Consider suggesting relaxation techniques or breathing exercises",
				"Recommend speaking with a mental health professional",
			)
		} else {
			recommendations = append(recommendations,
				"Provide reassurance and clear information",
				"Suggest discussing concerns with a healthcare provider",
			)
		}
	case "frustration":
		recommendations = append(recommendations,
			"Acknowledge the frustration and validate feelings",
			"Provide clear, step-by-step guidance",
		)
		if intensity > 0.6 {
			recommendations = append(recommendations, "Suggest taking a break and returning when calmer")
		}
	case "sadness":
		if intensity > 0.7 {
			recommendations = append(recommendations,
				"Strongly recommend mental health support",
				"Provide crisis resources if needed",
			)
		} else {
			recommendations = append(recommendations,
				"Offer emotional support and understanding",
				"Suggest discussing feelings with a healthcare provider",
			)
		}
	case "confusion":
		recommendations = append(recommendations,
			"Provide clear, simple explanations",
			"Break down complex information into smaller parts",
			"Encourage asking follow-up questions",
		)
	case "urgency":
		if intensity > 0.6 {
			recommendations = append(recommendations,
				"Prioritize immediate medical attention",
				"Provide emergency contact information",
			)
		} else {
			recommendations = append(recommendations, "Schedule prompt medical consultation")
		}
	case "pain":
		if intensity > 0.7 {
			recommendations = append(recommendations,
				"Recommend immediate medical evaluation",
				"Suggest pain management strategies",
			)
		} else {
			recommendations = append(recommendations,
				"Provide pain assessment guidance",
				"Suggest discussing pain with healthcare provider",
			)
		}
	case "hope":
		recommendations = append(recommendations,
			"Encourage maintaining positive outlook",
			"Provide supportive information",
		)
	}

	if intensity > 0.8 {
		recommendations = append(recommendations, "Consider escalating to human healthcare provider")
	}

	return recommendations
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

func clamp01(value float64) float64 {
	return math.Min(1.0, math.Max(0.0, value))
}
