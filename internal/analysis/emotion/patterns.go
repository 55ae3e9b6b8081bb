package emotion

// emotionPattern describes one emotional-state family. Declaration
// order breaks score ties when picking the primary emotion, so keep it
// stable.
type emotionPattern struct {
	name               string
	keywords           []string
	phrases            []string
	intensityModifiers []string
}

var emotionPatterns = []emotionPattern{
	{
		name:               "anxiety",
		keywords:           []string{"worried", "anxious", "nervous", "scared", "fearful", "panic", "concerned"},
		phrases:            []string{"what if", "afraid", "terrified", "worried about", "scared of"},
		intensityModifiers: []string{"very", "extremely", "really", "so", "quite"},
	},
	{
		name:               "frustration",
		keywords:           []string{"frustrated", "annoyed", "irritated", "angry", "mad", "upset"},
		phrases:            []string{"fed up", "can't stand", "so annoying", "this is ridiculous"},
		intensityModifiers: []string{"very", "extremely", "really", "so", "quite"},
	},
	{
		name:               "sadness",
		keywords:           []string{"sad", "depressed", "down", "blue", "miserable", "hopeless"},
		phrases:            []string{"feeling down", "not myself", "can't cope", "overwhelmed"},
		intensityModifiers: []string{"very", "extremely", "really", "so", "quite"},
	},
	{
		name:               "confusion",
		keywords:           []string{"confused", "unclear", "don't understand", "puzzled", "lost"},
		phrases:            []string{"not sure", "don't know", "unclear about", "can't figure out"},
		intensityModifiers: []string{"very", "extremely", "really", "so", "quite"},
	},
	{
		name:               "relief",
		keywords:           []string{"relieved", "better", "good news", "thankful", "grateful"},
		phrases:            []string{"that's good", "feeling better", "much better", "so relieved"},
		intensityModifiers: []string{"very", "extremely", "really", "so", "quite"},
	},
	{
		name:               "urgency",
		keywords:           []string{"urgent", "immediate", "asap", "quickly", "fast", "emergency"},
		phrases:            []string{"right now", "immediately", "can't wait", "need help now"},
		intensityModifiers: []string{"very", "extremely", "really", "so", "quite"},
	},
	{
		name:               "pain",
		keywords:           []string{"pain", "hurt", "ache", "sore", "uncomfortable", "agony"},
		phrases:            []string{"in pain", "hurts so much", "can't bear", "excruciating"},
		intensityModifiers: []string{"severe", "intense", "sharp", "throbbing", "burning"},
	},
	{
		name:               "hope",
		keywords:           []string{"hopeful", "optimistic", "positive", "encouraged", "confident"},
		phrases:            []string{"feeling hopeful", "good outlook", "positive attitude", "encouraged"},
		intensityModifiers: []string{"very", "extremely", "really", "so", "quite"},
	},
}

// medicalContextModifiers amplify emotion scores when the surrounding
// conversation concerns serious medical topics.
var medicalContextModifiers = map[string]float64{
	"diagnosis":  1.2,
	"treatment":  1.1,
	"symptoms":   1.3,
	"medication": 1.1,
	"surgery":    1.4,
	"cancer":     1.5,
	"chronic":    1.2,
	"acute":      1.3,
}
