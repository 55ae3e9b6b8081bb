package emergency

// TrendReport summarizes emergency signals across a conversation
// window.
type TrendReport struct {
	LevelDistribution          map[string]int `json:"level_distribution"`
	AverageUrgency             float64        `json:"average_urgency"`
	AverageConfidence          float64        `json:"average_confidence"`
	Trend                      string         `json:"trend"`
	RequiresImmediateAttention bool           `json:"requires_immediate_attention"`
}

// AnalyzeTrends runs detection over a message sequence and classifies
// the direction of the last three results.
func (d *Detector) AnalyzeTrends(texts []string) *TrendReport {
	if len(texts) == 0 {
		return nil
	}

	levels := make([]string, 0, len(texts))
	distribution := make(map[string]int)
	var urgencyTotal, confidenceTotal float64

	for _, text := range texts {
		detection := d.Detect(text)
		levels = append(levels, detection.Level)
		distribution[detection.Level]++
		urgencyTotal += detection.UrgencyScore
		confidenceTotal += detection.Confidence
	}

	recent := levels
	if len(levels) > 3 {
		recent = levels[len(levels)-3:]
	}

	immediate := false
	for _, level := range recent {
		if level == LevelHigh || level == LevelCritical {
			immediate = true
			break
		}
	}

	return &TrendReport{
		LevelDistribution:          distribution,
		AverageUrgency:             urgencyTotal / float64(len(texts)),
		AverageConfidence:          confidenceTotal / float64(len(texts)),
		Trend:                      classifyTrend(recent),
		RequiresImmediateAttention: immediate,
	}
}

func classifyTrend(levels []string) string {
	if len(levels) < 2 {
		return "insufficient_data"
	}

	first := levelRanks[levels[0]]
	last := levelRanks[levels[len(levels)-1]]

	switch {
	case last > first:
		return "escalating"
	case last < first:
		return "de-escalating"
	default:
		return "stable"
	}
}

// Summary is the compact view handed to the response assembly layer.
type Summary struct {
	IsEmergency             bool     `json:"is_emergency"`
	EmergencyLevel          string   `json:"emergency_level"`
	Confidence              float64  `json:"confidence"`
	UrgencyScore            float64  `json:"urgency_score"`
	MedicalPriority         string   `json:"medical_priority"`
	KeyIndicators           []string `json:"key_indicators"`
	RecommendedActions      []string `json:"recommended_actions"`
	RequiresImmediateAction bool     `json:"requires_immediate_action"`
}

func (d *Detector) Summarize(detection Detection) Summary {
	indicators := detection.Indicators
	if len(indicators) > 5 {
		indicators = indicators[:5]
	}

	return Summary{
		IsEmergency:             detection.IsEmergency,
		EmergencyLevel:          detection.Level,
		Confidence:              detection.Confidence,
		UrgencyScore:            detection.UrgencyScore,
		MedicalPriority:         detection.MedicalPriority,
		KeyIndicators:           indicators,
		RecommendedActions:      detection.RecommendedActions,
		RequiresImmediateAction: detection.Level == LevelCritical || detection.Level == LevelHigh,
	}
}
