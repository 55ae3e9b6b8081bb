package entities

import (
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"
)

// category vocabularies. Single words are matched against tokens so
// "backpack" never matches "back"; multi-word terms are matched as
// substrings of the lowercased text.
var categoryVocab = map[string][]string{
	"symptoms": {
		"pain", "headache", "fever", "cough", "nausea", "fatigue",
		"dizziness", "rash", "swelling", "vomiting", "chills", "wheezing",
		"sore throat", "shortness of breath", "chest pain", "blurred vision",
	},
	"conditions": {
		"diabetes", "asthma", "hypertension", "cancer", "arthritis",
		"migraine", "influenza", "pneumonia", "anemia", "depression",
		"stroke", "infection", "allergy", "bronchitis", "heart disease",
	},
	"medications": {
		"aspirin", "ibuprofen", "acetaminophen", "paracetamol", "insulin",
		"antibiotic", "antihistamine", "penicillin", "statin", "antacid",
	},
	"body_parts": {
		"head", "chest", "heart", "lung", "stomach", "abdomen", "back",
		"arm", "leg", "throat", "skin", "knee", "liver", "kidney", "eye",
	},
	"procedures": {
		"surgery", "biopsy", "vaccination", "transplant", "dialysis",
		"x-ray", "mri", "ct scan", "blood test", "ultrasound",
	},
}

var categoryOrder = []string{"symptoms", "conditions", "medications", "body_parts", "procedures"}

// Extractor finds medical entities in free text, grouped by category.
// The zero value is not usable; construct with NewExtractor.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract tokenizes the text and returns the matched vocabulary terms
// per category. Categories with no matches are omitted; empty text
// yields an empty map.
func (e *Extractor) Extract(text string) (map[string][]string, error) {
	if strings.TrimSpace(text) == "" {
		return map[string][]string{}, nil
	}

	doc, err := prose.NewDocument(text,
		prose.WithExtraction(false),
		prose.WithTagging(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize text: %w", err)
	}

	tokens := make(map[string]struct{})
	for _, token := range doc.Tokens() {
		tokens[strings.ToLower(token.Text)] = struct{}{}
	}
	lower := strings.ToLower(text)

	result := make(map[string][]string)
	for _, category := range categoryOrder {
		var found []string
		for _, term := range categoryVocab[category] {
			if strings.ContainsAny(term, " -") {
				if strings.Contains(lower, term) {
					found = append(found, term)
				}
				continue
			}
			if _, ok := tokens[term]; ok {
				found = append(found, term)
			}
		}
		if len(found) > 0 {
			result[category] = found
		}
	}

	return result, nil
}

// Flatten returns all entities across categories in category order,
// deduplicated.
func Flatten(entities map[string][]string) []string {
	seen := make(map[string]struct{})
	var flat []string
	for _, category := range categoryOrder {
		for _, term := range entities[category] {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			flat = append(flat, term)
		}
	}
	return flat
}
