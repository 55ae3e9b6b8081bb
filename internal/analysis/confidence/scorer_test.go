package confidence

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medq/backend/internal/retrieval"
)

func TestConsistentHighScoresGiveHighRetrievalConfidence(t *testing.T) {
	value := retrievalConfidence([]float64{0.9, 0.85, 0.88})

	assert.Greater(t, value, 0.8)
}

func TestEmptyRetrievalScoresGiveZeroConfidence(t *testing.T) {
	assert.Equal(t, 0.0, retrievalConfidence(nil))
}

func TestSingleRetrievalScoreSkipsConsistencyPenalty(t *testing.T) {
	assert.InDelta(t, 0.75, retrievalConfidence([]float64{0.75}), 1e-9)
}

func TestScatteredScoresArePenalized(t *testing.T) {
	consistent := retrievalConfidence([]float64{0.9, 0.89, 0.91})
	scattered := retrievalConfidence([]float64{0.9, 0.2, 0.5})

	assert.Greater(t, consistent, scattered)
}

func TestNoEvidenceYieldsLowLevelWithReferral(t *testing.T) {
	scorer := NewScorer()

	score, err := scorer.Calculate(nil, "", "", nil, nil)

	require.NoError(t, err)
	assert.Equal(t, LevelLow, score.Level)
	assert.Equal(t, 0.0, score.Factors["retrieval_similarity"])
	assert.Contains(t, score.Recommendation, "limited relevant information found")
	assert.Contains(t, score.Recommendation, "healthcare professional")
}

func TestNonFiniteScoreRejected(t *testing.T) {
	scorer := NewScorer()

	_, err := scorer.Calculate([]float64{0.5, math.NaN()}, "answer", "query", nil, nil)

	assert.ErrorIs(t, err, retrieval.ErrNonFiniteScore)
}

func TestOverallScoreStaysWithinUnitInterval(t *testing.T) {
	scorer := NewScorer()
	answer := strings.Repeat("The treatment for this condition is well documented by your doctor. ", 10)
	sources := []retrieval.Document{
		{
			Content: strings.Repeat("clinical treatment guidance ", 30),
			Metadata: map[string]interface{}{
				"source_type":        "medical_journal",
				"author_credentials": "medical_professional",
				"publication_date":   "2024-01-01",
			},
		},
	}

	score, err := scorer.Calculate([]float64{0.95, 0.94, 0.96}, answer, "what is the treatment", sources,
		map[string][]string{"conditions": {"treatment"}})

	require.NoError(t, err)
	assert.GreaterOrEqual(t, score.Score, 0.0)
	assert.LessOrEqual(t, score.Score, 1.0)
}

func TestLevelBoundariesAreInclusive(t *testing.T) {
	assert.Equal(t, LevelHigh, levelFor(0.8))
	assert.Equal(t, LevelMedium, levelFor(0.79999))
	assert.Equal(t, LevelMedium, levelFor(0.6))
	assert.Equal(t, LevelLow, levelFor(0.59999))
}

func TestSourceQualityPrefersJournalsOverWeb(t *testing.T) {
	journal := sourceQuality([]retrieval.Document{
		{Content: strings.Repeat("x", 600), Metadata: map[string]interface{}{"source_type": "medical_journal"}},
	})
	web := sourceQuality([]retrieval.Document{
		{Content: strings.Repeat("x", 600), Metadata: map[string]interface{}{"source_type": "general_web"}},
	})

	assert.Greater(t, journal, web)
}

func TestSourceQualityEmptySourcesIsZero(t *testing.T) {
	assert.Equal(t, 0.0, sourceQuality(nil))
}

func TestCoherencePenalizesHedging(t *testing.T) {
	direct := responseCoherence("Rest and fluids are the standard treatment for this condition in most patients today overall.")
	hedged := responseCoherence("It might possibly help, maybe, though it is unclear and could perhaps vary.")

	assert.Greater(t, direct, hedged)
}

func TestMedicalTermMatchNeutralWithoutEntities(t *testing.T) {
	assert.Equal(t, 0.5, medicalTermMatch("any answer", nil))
}

func TestMedicalTermMatchRewardsCoverage(t *testing.T) {
	entities := map[string][]string{"symptoms": {"fever", "cough"}}

	full := medicalTermMatch("Both fever and cough respond to rest.", entities)
	none := medicalTermMatch("Drink plenty of water.", entities)

	assert.Greater(t, full, none)
	assert.GreaterOrEqual(t, full, 1.0)
}

func TestContextRelevanceNeutralWithoutSources(t *testing.T) {
	assert.Equal(t, 0.5, contextRelevance("query", "answer", nil))
}

func TestLengthFactorStepFunction(t *testing.T) {
	words := func(n int) string { return strings.TrimSpace(strings.Repeat("word ", n)) }

	assert.Equal(t, 1.0, lengthFactor(words(100)))
	assert.Equal(t, 0.8, lengthFactor(words(40)))
	assert.Equal(t, 0.6, lengthFactor(words(25)))
	assert.Equal(t, 0.4, lengthFactor(words(5)))
	assert.Equal(t, 0.4, lengthFactor(words(400)))
}

func TestEmergencyVariantUsesStricterThresholds(t *testing.T) {
	scorer := NewScorer()

	score := scorer.CalculateEmergency(
		"I have severe chest pain",
		"Call 911 immediately and go to the emergency room",
	)

	assert.Equal(t, LevelHigh, score.Level)
	assert.GreaterOrEqual(t, score.Score, 0.7)
	assert.Contains(t, score.Recommendation, "immediately")
}

func TestEmergencyVariantLowForVagueResponse(t *testing.T) {
	scorer := NewScorer()

	score := scorer.CalculateEmergency("question about vitamins", "They are fine.")

	assert.Equal(t, LevelLow, score.Level)
	assert.Contains(t, score.Recommendation, "emergency services")
}

func TestBreakdownContributionsMatchWeights(t *testing.T) {
	scorer := NewScorer()
	score, err := scorer.Calculate([]float64{0.9}, "The treatment works.", "treatment", nil, nil)
	require.NoError(t, err)

	breakdown := scorer.Breakdown(score)

	for factor, value := range score.Factors {
		assert.InDelta(t, value*breakdown.FactorWeights[factor], breakdown.WeightedContributions[factor], 1e-9)
	}
	assert.Equal(t, score.Level, breakdown.ConfidenceLevel)
}
