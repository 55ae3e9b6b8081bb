package emotion

import (
	"strings"

	"github.com/jonreiter/govader"
)

// sentimentScores is the VADER polarity layout: neg, neu and pos are
// proportions of the text, compound is a normalized aggregate in [-1,1].
type sentimentScores struct {
	negative float64
	neutral  float64
	positive float64
	compound float64
}

// vader is read-only after construction and safe for concurrent use.
var vader = govader.NewSentimentIntensityAnalyzer()

// analyzeSentiment scores text polarity with VADER. The pattern tables
// do the heavy lifting, sentiment only nudges the blend.
func analyzeSentiment(text string) sentimentScores {
	if strings.TrimSpace(text) == "" {
		return sentimentScores{neutral: 1.0}
	}

	scores := vader.PolarityScores(text)

	return sentimentScores{
		negative: scores.Negative,
		neutral:  scores.Neutral,
		positive: scores.Positive,
		compound: scores.Compound,
	}
}
