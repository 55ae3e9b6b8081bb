package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractGroupsEntitiesByCategory(t *testing.T) {
	extractor := NewExtractor()

	entities, err := extractor.Extract("I have chest pain and a fever, and I take aspirin for my heart.")
	require.NoError(t, err)

	assert.Contains(t, entities["symptoms"], "fever")
	assert.Contains(t, entities["symptoms"], "chest pain")
	assert.Contains(t, entities["medications"], "aspirin")
	assert.Contains(t, entities["body_parts"], "chest")
	assert.Contains(t, entities["body_parts"], "heart")
}

func TestExtractMatchesWholeWordsOnly(t *testing.T) {
	extractor := NewExtractor()

	entities, err := extractor.Extract("My backpack is heavy and my armchair is comfortable.")
	require.NoError(t, err)

	assert.NotContains(t, entities["body_parts"], "back")
	assert.NotContains(t, entities["body_parts"], "arm")
}

func TestExtractMultiWordTerms(t *testing.T) {
	extractor := NewExtractor()

	entities, err := extractor.Extract("The patient reports shortness of breath after a blood test.")
	require.NoError(t, err)

	assert.Contains(t, entities["symptoms"], "shortness of breath")
	assert.Contains(t, entities["procedures"], "blood test")
}

func TestExtractIsCaseInsensitive(t *testing.T) {
	extractor := NewExtractor()

	entities, err := extractor.Extract("DIABETES and Asthma run in my family.")
	require.NoError(t, err)

	assert.Contains(t, entities["conditions"], "diabetes")
	assert.Contains(t, entities["conditions"], "asthma")
}

func TestExtractEmptyText(t *testing.T) {
	extractor := NewExtractor()

	entities, err := extractor.Extract("   ")
	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestExtractOmitsEmptyCategories(t *testing.T) {
	extractor := NewExtractor()

	entities, err := extractor.Extract("I have a headache.")
	require.NoError(t, err)

	assert.Contains(t, entities, "symptoms")
	assert.NotContains(t, entities, "medications")
	assert.NotContains(t, entities, "procedures")
}

func TestFlattenDeduplicatesAcrossCategories(t *testing.T) {
	flat := Flatten(map[string][]string{
		"symptoms":   {"fever", "cough"},
		"conditions": {"asthma"},
	})

	assert.Equal(t, []string{"fever", "cough", "asthma"}, flat)
}

func TestFlattenEmptyInput(t *testing.T) {
	assert.Nil(t, Flatten(map[string][]string{}))
}
