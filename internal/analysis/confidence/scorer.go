package confidence

import (
	"fmt"
	"math"
	"strings"

	"github.com/medq/backend/internal/retrieval"
)

const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// Score is the trust envelope attached to a generated answer. It is
// built once per request and never mutated afterwards.
type Score struct {
	Score          float64            `json:"score"`
	Level          string             `json:"level"`
	Factors        map[string]float64 `json:"factors"`
	Recommendation string             `json:"recommendation"`
}

// Scorer combines six independent sub-scores into one confidence value
// with fixed weights. All inputs are read-only; scoring is a pure
// function.
type Scorer struct {
	weights map[string]float64
}

func NewScorer() *Scorer {
	return &Scorer{
		weights: map[string]float64{
			"retrieval_similarity": 0.3,
			"source_quality":       0.2,
			"response_coherence":   0.2,
			"medical_term_match":   0.15,
			"context_relevance":    0.1,
			"response_length":      0.05,
		},
	}
}

// Calculate scores an answer. Empty retrieval scores, empty sources and
// empty entities are valid "no evidence" states that lower confidence
// rather than fail; non-finite retrieval scores are rejected.
func (s *Scorer) Calculate(retrievalScores []float64, responseText, queryText string,
	sources []retrieval.Document, medicalEntities map[string][]string) (*Score, error) {

	for _, score := range retrievalScores {
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return nil, fmt.Errorf("%w: %v", retrieval.ErrNonFiniteScore, score)
		}
	}

	factors := map[string]float64{
		"retrieval_similarity": retrievalConfidence(retrievalScores),
		"source_quality":       sourceQuality(sources),
		"response_coherence":   responseCoherence(responseText),
		"medical_term_match":   medicalTermMatch(responseText, medicalEntities),
		"context_relevance":    contextRelevance(queryText, responseText, sources),
		"response_length":      lengthFactor(responseText),
	}

	overall := 0.0
	for factor, value := range factors {
		overall += value * s.weights[factor]
	}

	return &Score{
		Score:          overall,
		Level:          levelFor(overall),
		Factors:        factors,
		Recommendation: recommendation(overall, factors),
	}, nil
}

func retrievalConfidence(scores []float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}

	maxScore := scores[0]
	for _, score := range scores[1:] {
		if score > maxScore {
			maxScore = score
		}
	}

	consistency := 1.0
	if len(scores) > 1 {
		consistency = math.Max(0.5, 1.0-stddev(scores))
	}

	return clamp01(maxScore * consistency)
}

func sourceQuality(sources []retrieval.Document) float64 {
	if len(sources) == 0 {
		return 0.0
	}

	total := 0.0
	for _, source := range sources {
		score := 0.5

		switch sourceType(source) {
		case "medical_journal":
			score += 0.3
		case "medical_textbook":
			score += 0.25
		case "medical_website":
			score += 0.2
		case "general_web":
			score += 0.1
		}

		switch metadataString(source, "author_credentials") {
		case "medical_professional":
			score += 0.2
		case "researcher":
			score += 0.15
		}

		if _, ok := source.Metadata["publication_date"]; ok {
			score += 0.1
		}

		switch length := len(source.Content); {
		case length > 500:
			score += 0.1
		case length < 100:
			score -= 0.1
		}

		total += clamp01(score)
	}

	return total / float64(len(sources))
}

var coherenceTerms = []string{
	"symptom", "diagnosis", "treatment", "condition", "patient",
	"medical", "health", "doctor", "physician", "clinical",
}

var uncertaintyWords = []string{"maybe", "possibly", "might", "could", "perhaps", "unclear"}

func responseCoherence(responseText string) float64 {
	if strings.TrimSpace(responseText) == "" {
		return 0.0
	}

	score := 0.5
	wordCount := len(strings.Fields(responseText))

	switch {
	case wordCount >= 20 && wordCount <= 200:
		score += 0.2
	case wordCount < 10:
		score -= 0.3
	case wordCount > 500:
		score -= 0.1
	}

	lower := strings.ToLower(responseText)

	termCount := 0
	for _, term := range coherenceTerms {
		if strings.Contains(lower, term) {
			termCount++
		}
	}
	if termCount > 0 {
		score += math.Min(0.2, float64(termCount)*0.05)
	}

	sentences := strings.Split(responseText, ".")
	if len(sentences) > 1 {
		avgLength := float64(wordCount) / float64(len(sentences))
		if avgLength >= 10 && avgLength <= 25 {
			score += 0.1
		}
	}

	uncertaintyCount := 0
	for _, word := range uncertaintyWords {
		if strings.Contains(lower, word) {
			uncertaintyCount++
		}
	}
	if uncertaintyCount > 2 {
		score -= 0.2
	}

	return clamp01(score)
}

func medicalTermMatch(responseText string, medicalEntities map[string][]string) float64 {
	if len(medicalEntities) == 0 {
		return 0.5
	}

	queryTerms := make(map[string]struct{})
	responseTerms := make(map[string]struct{})
	responseLower := strings.ToLower(responseText)

	for _, terms := range medicalEntities {
		for _, term := range terms {
			lowered := strings.ToLower(term)
			queryTerms[lowered] = struct{}{}
			if strings.Contains(responseLower, lowered) {
				responseTerms[lowered] = struct{}{}
			}
		}
	}

	if len(queryTerms) == 0 {
		return 0.5
	}

	matched := 0
	for term := range responseTerms {
		if _, ok := queryTerms[term]; ok {
			matched++
		}
	}
	ratio := float64(matched) / float64(len(queryTerms))

	if extra := len(responseTerms) - matched; extra > 0 {
		ratio += math.Min(0.2, float64(extra)*0.05)
	}

	return clamp01(ratio)
}

func contextRelevance(queryText, responseText string, sources []retrieval.Document) float64 {
	if len(sources) == 0 {
		return 0.5
	}

	queryWords := wordSet(queryText)
	responseWords := wordSet(responseText)

	wordRelevance := 0.0
	if len(queryWords) > 0 {
		wordRelevance = float64(intersectionSize(queryWords, responseWords)) / float64(len(queryWords))
	}

	var sourceContent strings.Builder
	for _, source := range sources {
		sourceContent.WriteString(source.Content)
		sourceContent.WriteString(" ")
	}
	sourceWords := wordSet(sourceContent.String())

	sourceRelevance := 0.0
	if len(sourceWords) > 0 {
		sourceRelevance = float64(intersectionSize(responseWords, sourceWords)) / float64(len(sourceWords))
	}

	return clamp01(0.6*wordRelevance + 0.4*sourceRelevance)
}

// lengthFactor is a step function over answer word count; 50-150 words
// is the sweet spot for a medical answer.
func lengthFactor(responseText string) float64 {
	wordCount := len(strings.Fields(responseText))

	switch {
	case wordCount >= 50 && wordCount <= 150:
		return 1.0
	case (wordCount >= 30 && wordCount < 50) || (wordCount > 150 && wordCount <= 200):
		return 0.8
	case (wordCount >= 20 && wordCount < 30) || (wordCount > 200 && wordCount <= 300):
		return 0.6
	default:
		return 0.4
	}
}

func levelFor(score float64) string {
	switch {
	case score >= 0.8:
		return LevelHigh
	case score >= 0.6:
		return LevelMedium
	default:
		return LevelLow
	}
}

func recommendation(score float64, factors map[string]float64) string {
	if score >= 0.8 {
		return "High confidence response. Information appears reliable and comprehensive."
	}
	if score >= 0.6 {
		return "Medium confidence response. Consider consulting additional sources for verification."
	}

	var issues []string
	if factors["retrieval_similarity"] < 0.5 {
		issues = append(issues, "limited relevant information found")
	}
	if factors["source_quality"] < 0.5 {
		issues = append(issues, "source quality concerns")
	}
	if factors["response_coherence"] < 0.5 {
		issues = append(issues, "response clarity issues")
	}
	if factors["medical_term_match"] < 0.5 {
		issues = append(issues, "limited medical terminology coverage")
	}

	if len(issues) > 0 {
		return fmt.Sprintf("Low confidence response due to %s. Please consult a healthcare professional for accurate medical advice.",
			strings.Join(issues, ", "))
	}
	return "Low confidence response. Please consult a healthcare professional for accurate medical advice."
}

// Breakdown exposes the per-factor contributions for audit endpoints.
type Breakdown struct {
	OverallScore          float64            `json:"overall_score"`
	ConfidenceLevel       string             `json:"confidence_level"`
	FactorScores          map[string]float64 `json:"factor_scores"`
	FactorWeights         map[string]float64 `json:"factor_weights"`
	WeightedContributions map[string]float64 `json:"weighted_contributions"`
	Recommendation        string             `json:"recommendation"`
	Thresholds            map[string]float64 `json:"thresholds"`
}

func (s *Scorer) Breakdown(score *Score) *Breakdown {
	contributions := make(map[string]float64, len(score.Factors))
	for factor, value := range score.Factors {
		contributions[factor] = value * s.weights[factor]
	}

	weights := make(map[string]float64, len(s.weights))
	for factor, weight := range s.weights {
		weights[factor] = weight
	}

	return &Breakdown{
		OverallScore:          score.Score,
		ConfidenceLevel:       score.Level,
		FactorScores:          score.Factors,
		FactorWeights:         weights,
		WeightedContributions: contributions,
		Recommendation:        score.Recommendation,
		Thresholds:            map[string]float64{"low": 0.0, "medium": 0.6, "high": 0.8},
	}
}

func sourceType(source retrieval.Document) string {
	return metadataString(source, "source_type")
}

func metadataString(source retrieval.Document, key string) string {
	value, _ := source.Metadata[key].(string)
	return value
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(text)) {
		set[word] = struct{}{}
	}
	return set
}

func intersectionSize(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	count := 0
	for word := range a {
		if _, ok := b[word]; ok {
			count++
		}
	}
	return count
}

func stddev(values []float64) float64 {
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))

	return math.Sqrt(variance)
}

func clamp01(value float64) float64 {
	return math.Min(1.0, math.Max(0.0, value))
}
