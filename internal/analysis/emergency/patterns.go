package emergency

// criticalPattern describes one life-threatening condition family.
// Matching is substring containment on lowercased text; declaration
// order drives indicator order, so keep these tables stable.
type criticalPattern struct {
	name               string
	keywords           []string
	phrases            []string
	symptoms           []string
	severityIndicators []string
}

var criticalPatterns = []criticalPattern{
	{
		name:               "cardiac_emergency",
		keywords:           []string{"chest pain", "heart attack", "cardiac arrest", "heart failure"},
		phrases:            []string{"crushing chest pain", "severe chest pain", "can't breathe", "heart racing"},
		symptoms:           []string{"chest pressure", "chest tightness", "chest discomfort", "arm pain"},
		severityIndicators: []string{"severe", "intense", "crushing", "unbearable", "worst pain ever"},
	},
	{
		name:               "stroke_indicators",
		keywords:           []string{"stroke", "paralysis", "numbness", "weakness", "speech problems"},
		phrases:            []string{"can't move", "face drooping", "slurred speech", "confusion", "severe headache"},
		symptoms:           []string{"sudden weakness", "vision problems", "balance issues", "dizziness"},
		severityIndicators: []string{"sudden", "severe", "can't speak", "can't move"},
	},
	{
		name:               "respiratory_emergency",
		keywords:           []string{"can't breathe", "shortness of breath", "choking", "suffocating"},
		phrases:            []string{"struggling to breathe", "gasping for air", "turning blue", "chest tightness"},
		symptoms:           []string{"wheezing", "coughing blood", "severe cough", "chest pain"},
		severityIndicators: []string{"severe", "extreme", "can't catch breath", "emergency"},
	},
	{
		name:               "trauma_emergency",
		keywords:           []string{"bleeding", "blood", "injury", "accident", "fall", "hit"},
		phrases:            []string{"lots of blood", "bleeding heavily", "severe injury", "head injury"},
		symptoms:           []string{"unconscious", "confusion", "severe pain", "broken bone"},
		severityIndicators: []string{"severe", "heavy", "unconscious", "can't move"},
	},
	{
		name:               "allergic_reaction",
		keywords:           []string{"allergic reaction", "anaphylaxis", "swelling", "hives", "rash"},
		phrases:            []string{"throat swelling", "can't swallow", "difficulty breathing", "severe rash"},
		symptoms:           []string{"face swelling", "tongue swelling", "wheezing", "dizziness"},
		severityIndicators: []string{"severe", "throat closing", "can't breathe", "emergency"},
	},
	{
		name:               "poisoning_overdose",
		keywords:           []string{"overdose", "poisoning", "took too much", "accidental ingestion"},
		phrases:            []string{"unconscious", "not responding", "seizures", "vomiting blood"},
		symptoms:           []string{"confusion", "drowsiness", "difficulty breathing", "irregular heartbeat"},
		severityIndicators: []string{"unconscious", "not breathing", "seizures", "emergency"},
	},
}

// priorityCondition describes a serious but not immediately
// life-threatening condition family. Each carries its own severity
// multiplier.
type priorityCondition struct {
	name       string
	keywords   []string
	indicators []string
	bodyParts  []string
	severity   float64
}

var priorityConditions = []priorityCondition{
	{
		name:      "severe_pain",
		keywords:  []string{"severe pain", "excruciating", "unbearable", "worst pain"},
		bodyParts: []string{"chest", "head", "abdomen", "back"},
		severity:  0.8,
	},
	{
		name:       "high_fever",
		keywords:   []string{"high fever", "very hot", "burning up", "temperature"},
		indicators: []string{"over 103", "104", "105", "severe fever"},
		severity:   0.7,
	},
	{
		name:       "severe_nausea",
		keywords:   []string{"severe nausea", "can't stop vomiting", "vomiting blood"},
		indicators: []string{"dehydrated", "can't keep down", "blood in vomit"},
		severity:   0.6,
	},
	{
		name:       "mental_health_crisis",
		keywords:   []string{"suicidal", "want to die", "self harm", "crisis"},
		indicators: []string{"hopeless", "can't cope", "emergency", "help me"},
		severity:   0.9,
	},
}

var (
	timeIndicators      = []string{"now", "immediately", "asap", "right now", "urgent"}
	intensityIndicators = []string{"severe", "extreme", "worst", "unbearable", "critical"}
	actionIndicators    = []string{"call 911", "emergency room", "ambulance", "help me"}
	symptomCombinations = []string{"chest pain and shortness of breath", "headache and fever"}
)
