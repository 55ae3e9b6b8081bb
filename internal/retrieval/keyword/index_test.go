package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medq/backend/internal/retrieval"
)

func testDocuments() []retrieval.Document {
	return []retrieval.Document{
		{
			Content:  "Chest pain can signal a cardiac problem and needs prompt evaluation.",
			Metadata: map[string]interface{}{"category": "cardiology"},
			Source:   "textbook",
		},
		{
			Content:  "A balanced diet with vegetables and whole grains supports long term wellness.",
			Metadata: map[string]interface{}{"category": "nutrition"},
			Source:   "website",
		},
		{
			Content:  "Seasonal influenza causes fever, cough and muscle aches in most patients.",
			Metadata: map[string]interface{}{"category": "infectious_disease"},
			Source:   "journal",
		},
	}
}

func TestSearchEmptyIndexReturnsNoResults(t *testing.T) {
	idx := NewIndex()

	results, err := idx.Search("chest pain", 5, true)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchRejectsNonPositiveTopK(t *testing.T) {
	idx := NewIndex()
	idx.Build(testDocuments())

	_, err := idx.Search("chest pain", 0, false)

	assert.ErrorIs(t, err, retrieval.ErrInvalidTopK)
}

func TestSearchRanksRelevantDocumentFirst(t *testing.T) {
	idx := NewIndex()
	idx.Build(testDocuments())

	results, err := idx.Search("chest pain cardiac", 3, false)

	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Content, "Chest pain")
	assert.NotEmpty(t, results[0].MatchedTerms)
}

func TestSearchResultsSortedDescending(t *testing.T) {
	idx := NewIndex()
	idx.Build(testDocuments())

	results, err := idx.Search("fever cough pain", 3, true)

	require.NoError(t, err)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestSearchDropsDocumentsWithoutQueryTerms(t *testing.T) {
	idx := NewIndex()
	idx.Build(testDocuments())

	results, err := idx.Search("influenza fever", 5, false)

	require.NoError(t, err)
	for _, result := range results {
		assert.NotContains(t, result.Content, "balanced diet")
	}
}

func TestSearchMedicalBoostPrefersSymptomDocument(t *testing.T) {
	docs := []retrieval.Document{
		{Content: "Evaluation guidelines discuss scheduling and billing procedures.", Source: "website"},
		{Content: "Sudden chest pain with shortness of breath requires evaluation.", Source: "journal"},
		{Content: "Clinics handle evaluation requests within two business days.", Source: "website"},
	}
	idx := NewIndex()
	idx.Build(docs)

	results, err := idx.Search("chest pain evaluation", 3, true)

	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Content, "chest pain")
}

func TestAddExtendsIndexIncrementally(t *testing.T) {
	idx := NewIndex()
	idx.Build(testDocuments())
	require.Equal(t, 3, idx.Size())

	idx.Add([]retrieval.Document{
		{Content: "Migraine headache episodes often come with nausea and light sensitivity.", Source: "journal"},
	})

	assert.Equal(t, 4, idx.Size())

	results, err := idx.Search("migraine headache nausea", 5, false)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Content, "Migraine")
}

func TestExtractMedicalTermsDeduplicates(t *testing.T) {
	terms := ExtractMedicalTerms("Chest pain, chest tightness and more pain in the chest.")

	assert.Contains(t, terms, "chest")
	assert.Contains(t, terms, "pain")

	seen := make(map[string]int)
	for _, term := range terms {
		seen[term]++
	}
	for term, count := range seen {
		assert.Equal(t, 1, count, "term %q repeated", term)
	}
}

func TestExtractMedicalTermsEmptyForNonMedicalText(t *testing.T) {
	terms := ExtractMedicalTerms("The quarterly budget meeting moved to Thursday.")

	assert.Empty(t, terms)
}

func TestTokenizeDropsStopWordsAndShortTokens(t *testing.T) {
	tokens := Tokenize("What is the best treatment for a cold?")

	assert.NotContains(t, tokens, "the")
	assert.NotContains(t, tokens, "is")
	assert.NotContains(t, tokens, "a")
	assert.Contains(t, tokens, "treatment")
	assert.Contains(t, tokens, "cold")
}

func TestTokenizeStemsPluralsToMatchSingular(t *testing.T) {
	plural := Tokenize("symptoms")
	singular := Tokenize("symptom")

	require.Len(t, plural, 1)
	require.Len(t, singular, 1)
	assert.Equal(t, singular[0], plural[0])
}

func TestTokenizeCollapsesInflections(t *testing.T) {
	coughing := Tokenize("coughing")
	coughed := Tokenize("coughed")
	coughs := Tokenize("coughs")

	require.Len(t, coughing, 1)
	require.Len(t, coughed, 1)
	require.Len(t, coughs, 1)
	assert.Equal(t, coughing[0], coughed[0])
	assert.Equal(t, coughing[0], coughs[0])
}
