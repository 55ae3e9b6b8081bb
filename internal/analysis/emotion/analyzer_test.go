package emotion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnxiousTextClassifiedAsAnxiety(t *testing.T) {
	a := NewAnalyzer()

	analysis := a.Analyze("I'm so worried and scared about these test results, what if it's serious?", "")

	assert.Equal(t, "anxiety", analysis.PrimaryEmotion)
	assert.NotEmpty(t, analysis.Indicators)
}

func TestPainfulTextClassifiedAsPain(t *testing.T) {
	a := NewAnalyzer()

	analysis := a.Analyze("My back hurts so much, the ache is severe and I am in pain all day", "")

	assert.Equal(t, "pain", analysis.PrimaryEmotion)
}

func TestScoresAndIntensityStayWithinUnitInterval(t *testing.T) {
	a := NewAnalyzer()

	analysis := a.Analyze("I'M EXTREMELY SCARED!!! VERY WORRIED!!! TERRIFIED!!!", "")

	assert.LessOrEqual(t, analysis.Intensity, 1.0)
	assert.GreaterOrEqual(t, analysis.Intensity, 0.0)
	assert.LessOrEqual(t, analysis.Confidence, 1.0)
	for emotion, score := range analysis.EmotionScores {
		assert.LessOrEqual(t, score, 1.0, "emotion %s", emotion)
		assert.GreaterOrEqual(t, score, -1.0, "emotion %s", emotion)
	}
}

func TestShoutingRaisesIntensity(t *testing.T) {
	a := NewAnalyzer()

	calm := a.Analyze("I am worried about my diagnosis", "")
	shouting := a.Analyze("I AM SO WORRIED ABOUT MY DIAGNOSIS!!!", "")

	assert.Greater(t, shouting.Intensity, calm.Intensity)
}

func TestMedicalContextAmplifiesScores(t *testing.T) {
	a := NewAnalyzer()
	text := "I'm worried and scared about what comes next"

	plain := a.Analyze(text, "")
	amplified := a.Analyze(text, "cancer surgery discussion")

	assert.GreaterOrEqual(t,
		amplified.EmotionScores["anxiety"],
		plain.EmotionScores["anxiety"],
	)
}

func TestHighIntensityEscalatesToHumanProvider(t *testing.T) {
	a := NewAnalyzer()

	analysis := a.Analyze("I'M EXTREMELY TERRIFIED AND SO SCARED, PANIC IS TAKING OVER!!! HELP!!!", "")

	require.Greater(t, analysis.Intensity, 0.8)
	assert.Contains(t, analysis.Recommendations, "Consider escalating to human healthcare provider")
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	a := NewAnalyzer()
	text := "I feel hopeless and overwhelmed, I can't cope"

	first := a.Analyze(text, "")
	second := a.Analyze(text, "")

	assert.Equal(t, first.PrimaryEmotion, second.PrimaryEmotion)
	assert.Equal(t, first.Intensity, second.Intensity)
	assert.Equal(t, first.EmotionScores, second.EmotionScores)
}

func TestIndicatorsOnlyFromPrimaryEmotion(t *testing.T) {
	a := NewAnalyzer()

	analysis := a.Analyze("I'm so worried, anxious and scared", "")

	require.Equal(t, "anxiety", analysis.PrimaryEmotion)
	for _, indicator := range analysis.Indicators {
		assert.NotContains(t, indicator, "frustrated")
	}
}

func TestTrendsReportDominantEmotionAndStability(t *testing.T) {
	a := NewAnalyzer()

	report := a.AnalyzeTrends([]string{
		"I'm worried about the surgery",
		"Still anxious and scared today",
		"So nervous I can barely sleep",
	})

	require.NotNil(t, report)
	assert.Equal(t, "anxiety", report.DominantEmotion)
	assert.InDelta(t, 1.0/3.0, report.EmotionStability, 1e-9)
}

func TestTrendsEmptyInputReturnsNil(t *testing.T) {
	a := NewAnalyzer()

	assert.Nil(t, a.AnalyzeTrends(nil))
}

func TestSummarizeFlagsAttentionForPain(t *testing.T) {
	a := NewAnalyzer()
	analysis := a.Analyze("the pain in my chest hurts so much", "")

	summary := a.Summarize(analysis)

	assert.True(t, summary.RequiresAttention)
	assert.LessOrEqual(t, len(summary.KeyIndicators), 3)
}

func TestSentimentProportionsSumToOne(t *testing.T) {
	s := analyzeSentiment("I feel terrible but the doctor had good news")

	assert.InDelta(t, 1.0, s.negative+s.neutral+s.positive, 0.01)
	assert.LessOrEqual(t, s.compound, 1.0)
	assert.GreaterOrEqual(t, s.compound, -1.0)
}

func TestSentimentEmptyTextIsNeutral(t *testing.T) {
	s := analyzeSentiment("")

	assert.Equal(t, 1.0, s.neutral)
	assert.Equal(t, 0.0, s.compound)
}

func TestSentimentPolarityDirection(t *testing.T) {
	negative := analyzeSentiment("I am terrified, the pain is unbearable and getting worse")
	positive := analyzeSentiment("What a relief, the treatment worked and I feel so much better")

	assert.Negative(t, negative.compound)
	assert.Positive(t, positive.compound)
	assert.Greater(t, negative.negative, negative.positive)
	assert.Greater(t, positive.positive, positive.negative)
}
