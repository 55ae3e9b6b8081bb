package emergency

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChestPainWithBreathingTroubleIsHighOrCritical(t *testing.T) {
	d := NewDetector()

	detection := d.Detect("I'm having severe chest pain and can't breathe")

	assert.Contains(t, []string{LevelHigh, LevelCritical}, detection.Level)
	assert.True(t, detection.IsEmergency)

	var hasCardiac, hasRespiratory bool
	for _, indicator := range detection.Indicators {
		if strings.Contains(indicator, "chest pain") {
			hasCardiac = true
		}
		if strings.Contains(indicator, "breathe") {
			hasRespiratory = true
		}
	}
	assert.True(t, hasCardiac, "expected a cardiac indicator")
	assert.True(t, hasRespiratory, "expected a respiratory indicator")

	topTier := false
	for _, action := range detection.RecommendedActions {
		if action == "Call 911 immediately" || action == "Seek immediate medical attention" {
			topTier = true
		}
	}
	assert.True(t, topTier, "expected a top-tier action, got %v", detection.RecommendedActions)
}

func TestBenignQuestionIsNotAnEmergency(t *testing.T) {
	d := NewDetector()

	detection := d.Detect("What is a healthy diet?")

	assert.Equal(t, LevelNone, detection.Level)
	assert.False(t, detection.IsEmergency)
	assert.Empty(t, detection.Indicators)
	assert.Equal(t, "non_urgent", detection.MedicalPriority)
}

func TestIsEmergencyAlwaysDerivedFromLevel(t *testing.T) {
	d := NewDetector()
	inputs := []string{
		"I'm having severe chest pain and can't breathe",
		"What is a healthy diet?",
		"my head hurts a little",
		"severe bleeding after an accident, call 911 now",
		"",
	}

	for _, input := range inputs {
		detection := d.Detect(input)
		assert.Equal(t, detection.Level != LevelNone, detection.IsEmergency, "input %q", input)
	}
}

func TestDetectIsIdempotent(t *testing.T) {
	d := NewDetector()
	text := "sudden weakness and slurred speech, face drooping"

	first := d.Detect(text)
	second := d.Detect(text)

	assert.Equal(t, first, second)
}

func TestScoresStayWithinUnitInterval(t *testing.T) {
	d := NewDetector()
	text := strings.Repeat("severe chest pain can't breathe unconscious bleeding heavily call 911 now ", 5)

	detection := d.Detect(text)

	assert.LessOrEqual(t, detection.Confidence, 1.0)
	assert.GreaterOrEqual(t, detection.Confidence, 0.0)
	assert.LessOrEqual(t, detection.UrgencyScore, 1.0)
	assert.GreaterOrEqual(t, detection.UrgencyScore, 0.0)
}

func TestIndicatorsCappedAtTen(t *testing.T) {
	d := NewDetector()
	text := "chest pain heart attack cardiac arrest heart failure crushing chest pain severe chest pain " +
		"can't breathe heart racing stroke paralysis numbness weakness speech problems can't move " +
		"face drooping slurred speech bleeding blood injury accident"

	detection := d.Detect(text)

	assert.LessOrEqual(t, len(detection.Indicators), 10)
}

func TestLevelThresholdBoundaries(t *testing.T) {
	assert.Equal(t, LevelCritical, levelFor(0.9))
	assert.Equal(t, LevelHigh, levelFor(0.89999))
	assert.Equal(t, LevelHigh, levelFor(0.7))
	assert.Equal(t, LevelMedium, levelFor(0.69999))
	assert.Equal(t, LevelMedium, levelFor(0.5))
	assert.Equal(t, LevelLow, levelFor(0.3))
	assert.Equal(t, LevelNone, levelFor(0.29999))
}

func TestMedicalPriorityMapping(t *testing.T) {
	assert.Equal(t, "immediate", medicalPriority(LevelCritical))
	assert.Equal(t, "urgent", medicalPriority(LevelHigh))
	assert.Equal(t, "priority", medicalPriority(LevelMedium))
	assert.Equal(t, "routine", medicalPriority(LevelLow))
	assert.Equal(t, "non_urgent", medicalPriority(LevelNone))
}

func TestBleedingIndicatorAddsFirstAidActions(t *testing.T) {
	d := NewDetector()

	detection := d.Detect("severe bleeding heavily from a head injury, lots of blood")

	assert.Contains(t, detection.RecommendedActions, "Apply direct pressure to stop bleeding")
}

func TestMentalHealthCrisisIsDetected(t *testing.T) {
	d := NewDetector()

	detection := d.Detect("I feel hopeless and suicidal, I can't cope, please help me")

	assert.True(t, detection.IsEmergency)
	assert.Contains(t, detection.Indicators, "Priority: suicidal")
}

func TestTrendEscalatesAcrossMessages(t *testing.T) {
	d := NewDetector()

	report := d.AnalyzeTrends([]string{
		"my head hurts a little",
		"now my headache is severe and my vision is blurry",
		"severe chest pain and can't breathe, call 911 now",
	})

	require.NotNil(t, report)
	assert.Equal(t, "escalating", report.Trend)
	assert.True(t, report.RequiresImmediateAttention)
}

func TestTrendStableForRepeatedBenignMessages(t *testing.T) {
	d := NewDetector()

	report := d.AnalyzeTrends([]string{
		"what is a healthy diet",
		"how much water should I drink",
		"are vitamins useful",
	})

	require.NotNil(t, report)
	assert.Equal(t, "stable", report.Trend)
	assert.False(t, report.RequiresImmediateAttention)
	assert.Equal(t, 3, report.LevelDistribution[LevelNone])
}

func TestTrendsEmptyInputReturnsNil(t *testing.T) {
	d := NewDetector()

	assert.Nil(t, d.AnalyzeTrends(nil))
}

func TestSummarizeKeepsTopFiveIndicators(t *testing.T) {
	d := NewDetector()
	detection := d.Detect("chest pain heart attack crushing chest pain severe chest pain can't breathe " +
		"heart racing chest pressure arm pain")

	summary := d.Summarize(detection)

	assert.LessOrEqual(t, len(summary.KeyIndicators), 5)
	assert.Equal(t, detection.IsEmergency, summary.IsEmergency)
	assert.Equal(t, detection.Level, summary.EmergencyLevel)
}
