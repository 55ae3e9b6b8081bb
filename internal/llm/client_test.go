package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEvaluationScoreExtractsJSON(t *testing.T) {
	content := `Here is my evaluation:
{"relevance": 3, "accuracy": 2, "completeness": 2, "safety": 3, "classification": "fully_relevant", "reasoning": "covers the question"}`

	score := parseEvaluationScore(content)

	assert.Equal(t, 3.0, score.Relevance)
	assert.Equal(t, 2.0, score.Accuracy)
	assert.Equal(t, 3.0, score.Safety)
	assert.Equal(t, "fully_relevant", score.Classification)
}

func TestParseEvaluationScoreFallsBackOnGarbage(t *testing.T) {
	score := parseEvaluationScore("no json here")

	assert.Equal(t, 2.0, score.Relevance)
	assert.Equal(t, "moderate", score.Classification)
}

func TestParseEvaluationScoreFallsBackOnMalformedJSON(t *testing.T) {
	score := parseEvaluationScore(`{"relevance": "three"}`)

	assert.Equal(t, "moderate", score.Classification)
}
