package confidence

import (
	"math"
	"strings"
)

var emergencyKeywords = []string{
	"emergency", "urgent", "immediate", "critical", "severe",
	"chest pain", "heart attack", "stroke", "unconscious",
	"bleeding", "difficulty breathing", "allergic reaction",
}

var responseUrgencyIndicators = []string{"immediately", "urgent", "emergency", "call 911", "seek help"}

var emergencyActionWords = []string{"call", "go to", "visit", "seek", "contact", "immediately"}

var emergencyServices = []string{"911", "emergency room", "ambulance", "paramedic"}

// CalculateEmergency scores an answer in an emergency context. The
// thresholds are stricter than the general scorer: emergencies demand
// more evidence before declaring high confidence.
func (s *Scorer) CalculateEmergency(queryText, responseText string) *Score {
	queryLower := strings.ToLower(queryText)
	responseLower := strings.ToLower(responseText)

	queryCount := countContained(queryLower, emergencyKeywords)
	responseCount := countContained(responseLower, emergencyKeywords)

	factors := map[string]float64{
		"emergency_keyword_match": math.Min(1.0, float64(queryCount+responseCount)/3.0),
		"response_urgency":        math.Min(1.0, float64(countContained(responseLower, responseUrgencyIndicators))/2.0),
		"emergency_clarity":       emergencyClarity(responseText),
	}

	score := 0.4*factors["emergency_keyword_match"] +
		0.3*factors["response_urgency"] +
		0.3*factors["emergency_clarity"]

	level := LevelLow
	if score >= 0.7 {
		level = LevelHigh
	} else if score >= 0.5 {
		level = LevelMedium
	}

	return &Score{
		Score:          score,
		Level:          level,
		Factors:        factors,
		Recommendation: emergencyRecommendation(score),
	}
}

func emergencyClarity(responseText string) float64 {
	score := 0.5
	lower := strings.ToLower(responseText)

	if countContained(lower, emergencyActionWords) > 0 {
		score += 0.3
	}
	if countContained(lower, emergencyServices) > 0 {
		score += 0.2
	}
	if len(strings.Fields(responseText)) > 10 {
		score += 0.1
	}

	return clamp01(score)
}

func emergencyRecommendation(score float64) string {
	if score >= 0.7 {
		return "High confidence emergency response. Follow the provided instructions immediately."
	}
	if score >= 0.5 {
		return "Medium confidence emergency response. Consider seeking additional emergency guidance."
	}
	return "Low confidence emergency response. Please call emergency services immediately for urgent medical situations."
}

func countContained(text string, needles []string) int {
	count := 0
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			count++
		}
	}
	return count
}
