package emotion

// TrendReport summarizes emotional signals across a conversation
// window.
type TrendReport struct {
	EmotionDistribution map[string]int `json:"emotion_distribution"`
	DominantEmotion     string         `json:"dominant_emotion"`
	AverageIntensity    float64        `json:"average_intensity"`
	AverageConfidence   float64        `json:"average_confidence"`
	EmotionStability    float64        `json:"emotion_stability"`
	TrendAnalysis       string         `json:"trend_analysis"`
}

var positiveEmotions = map[string]struct{}{"relief": {}, "hope": {}}
var negativeEmotions = map[string]struct{}{"anxiety": {}, "frustration": {}, "sadness": {}, "pain": {}}

// AnalyzeTrends runs analysis over a message sequence. Stability is
// the ratio of distinct primary emotions to messages; lower means a
// steadier state.
func (a *Analyzer) AnalyzeTrends(texts []string) *TrendReport {
	if len(texts) == 0 {
		return nil
	}

	emotions := make([]string, 0, len(texts))
	intensities := make([]float64, 0, len(texts))
	distribution := make(map[string]int)
	var intensityTotal, confidenceTotal float64

	for _, text := range texts {
		analysis := a.Analyze(text, "")
		emotions = append(emotions, analysis.PrimaryEmotion)
		intensities = append(intensities, analysis.Intensity)
		distribution[analysis.PrimaryEmotion]++
		intensityTotal += analysis.Intensity
		confidenceTotal += analysis.Confidence
	}

	dominant := emotions[0]
	for emotion, count := range distribution {
		if count > distribution[dominant] {
			dominant = emotion
		}
	}

	distinct := make(map[string]struct{})
	for _, emotion := range emotions {
		distinct[emotion] = struct{}{}
	}

	return &TrendReport{
		EmotionDistribution: distribution,
		DominantEmotion:     dominant,
		AverageIntensity:    intensityTotal / float64(len(texts)),
		AverageConfidence:   confidenceTotal / float64(len(texts)),
		EmotionStability:    float64(len(distinct)) / float64(len(emotions)),
		TrendAnalysis:       classifyTrend(emotions, intensities),
	}
}

func classifyTrend(emotions []string, intensities []float64) string {
	if len(emotions) < 2 {
		return "insufficient_data"
	}

	recent := emotions
	recentIntensities := intensities
	if len(emotions) > 3 {
		recent = emotions[len(emotions)-3:]
		recentIntensities = intensities[len(intensities)-3:]
	}

	positiveCount, negativeCount := 0, 0
	for _, emotion := range recent {
		if _, ok := positiveEmotions[emotion]; ok {
			positiveCount++
		}
		if _, ok := negativeEmotions[emotion]; ok {
			negativeCount++
		}
	}

	avgIntensity := 0.0
	for _, intensity := range recentIntensities {
		avgIntensity += intensity
	}
	avgIntensity /= float64(len(recentIntensities))

	switch {
	case positiveCount > negativeCount && avgIntensity < 0.6:
		return "improving"
	case negativeCount > positiveCount && avgIntensity > 0.7:
		return "worsening"
	default:
		return "stable"
	}
}

// Summary is the compact view handed to the response assembly layer.
type Summary struct {
	PrimaryEmotion    string             `json:"primary_emotion"`
	IntensityLevel    string             `json:"intensity_level"`
	ConfidenceLevel   string             `json:"confidence_level"`
	KeyIndicators     []string           `json:"key_indicators"`
	Recommendations   []string           `json:"recommendations"`
	EmotionScores     map[string]float64 `json:"emotion_scores"`
	RequiresAttention bool               `json:"requires_attention"`
}

func (a *Analyzer) Summarize(analysis Analysis) Summary {
	indicators := analysis.Indicators
	if len(indicators) > 3 {
		indicators = indicators[:3]
	}

	attention := analysis.Intensity > 0.7 ||
		analysis.PrimaryEmotion == "anxiety" || analysis.PrimaryEmotion == "sadness" ||
		analysis.PrimaryEmotion == "urgency" || analysis.PrimaryEmotion == "pain"

	return Summary{
		PrimaryEmotion:    analysis.PrimaryEmotion,
		IntensityLevel:    intensityLevel(analysis.Intensity),
		ConfidenceLevel:   confidenceLevel(analysis.Confidence),
		KeyIndicators:     indicators,
		Recommendations:   analysis.Recommendations,
		EmotionScores:     analysis.EmotionScores,
		RequiresAttention: attention,
	}
}

func intensityLevel(intensity float64) string {
	switch {
	case intensity >= 0.8:
		return "very_high"
	case intensity >= 0.6:
		return "high"
	case intensity >= 0.4:
		return "medium"
	case intensity >= 0.2:
		return "low"
	default:
		return "very_low"
	}
}

func confidenceLevel(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return "high"
	case confidence >= 0.6:
		return "medium"
	default:
		return "low"
	}
}
