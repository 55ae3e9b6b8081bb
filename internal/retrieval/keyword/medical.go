package keyword

import (
	"regexp"
	"strings"
)

// medicalPatterns recognize common symptom and anatomy vocabulary for
// relevance boosting. Matching is on the raw lowercased text, not on
// stems, so "breathing" and "breath" are distinct matches.
var medicalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:pain|ache|hurt|sore)\b`),
	regexp.MustCompile(`\b(?:fever|temperature|hot|cold)\b`),
	regexp.MustCompile(`\b(?:cough|sneeze|breath|breathing)\b`),
	regexp.MustCompile(`\b(?:head|headache|migraine)\b`),
	regexp.MustCompile(`\b(?:chest|heart|cardiac)\b`),
	regexp.MustCompile(`\b(?:stomach|abdominal|belly)\b`),
	regexp.MustCompile(`\b(?:nausea|vomit|dizzy|dizziness)\b`),
	regexp.MustCompile(`\b(?:rash|skin|itch|itching)\b`),
	regexp.MustCompile(`\b(?:muscle|joint|bone|back)\b`),
	regexp.MustCompile(`\b(?:blood|bleeding|bruise)\b`),
}

// ExtractMedicalTerms returns the distinct medical terms found in text,
// in pattern declaration order then first-occurrence order.
func ExtractMedicalTerms(text string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]struct{})
	var terms []string

	for _, pattern := range medicalPatterns {
		for _, match := range pattern.FindAllString(lower, -1) {
			if _, ok := seen[match]; ok {
				continue
			}
			seen[match] = struct{}{}
			terms = append(terms, match)
		}
	}

	return terms
}
