package hybrid

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medq/backend/internal/retrieval"
	"github.com/medq/backend/internal/retrieval/semantic"
)

type topicEmbedder struct{}

var topicAxes = [][]string{
	{"heart", "cardiac", "chest"},
	{"diet", "nutrition", "vegetables"},
	{"flu", "influenza", "fever"},
}

func (topicEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = topicVector(text)
	}
	return vectors, nil
}

func (topicEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return topicVector(text), nil
}

func topicVector(text string) []float32 {
	lower := strings.ToLower(text)
	vector := make([]float32, len(topicAxes))
	for axis, words := range topicAxes {
		for _, word := range words {
			vector[axis] += float32(strings.Count(lower, word))
		}
	}
	return vector
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("provider unavailable")
}

func (failingEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, errors.New("provider unavailable")
}

func corpus() []retrieval.Document {
	return []retrieval.Document{
		{
			Content:  "Cardiac care protects the heart against future damage.",
			Metadata: map[string]interface{}{"category": "cardiology", "source_type": "journal"},
			Source:   "journal",
		},
		{
			Content:  "Heart patients benefit from a vegetables focused diet.",
			Metadata: map[string]interface{}{"category": "cardiology", "source_type": "website"},
			Source:   "website",
		},
		{
			Content:  "Nutrition science recommends vegetables for a healthy diet.",
			Metadata: map[string]interface{}{"category": "nutrition", "source_type": "textbook"},
			Source:   "textbook",
		},
		{
			Content:  "Influenza season brings fever and fatigue to clinics.",
			Metadata: map[string]interface{}{"category": "infectious_disease", "source_type": "journal"},
			Source:   "journal",
		},
	}
}

func builtRetriever(t *testing.T) *Retriever {
	t.Helper()
	r := New(topicEmbedder{}, 0.7, 0.3, 1.5)
	require.NoError(t, r.Build(context.Background(), corpus()))
	return r
}

func TestSearchResultsSortedAndBounded(t *testing.T) {
	r := builtRetriever(t)

	results, err := r.Search(context.Background(), "heart cardiac health", 2, DefaultOptions())

	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 2)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestSearchRejectsNonPositiveTopK(t *testing.T) {
	r := builtRetriever(t)

	_, err := r.Search(context.Background(), "heart", 0, DefaultOptions())

	assert.ErrorIs(t, err, retrieval.ErrInvalidTopK)
}

func TestSemanticOnlyWeightsReproduceSemanticOrder(t *testing.T) {
	r := New(topicEmbedder{}, 1.0, 0.0, 1.5)
	require.NoError(t, r.Build(context.Background(), corpus()))

	opts := Options{MedicalBoost: false}
	results, err := r.Search(context.Background(), "cardiac heart", 4, opts)

	require.NoError(t, err)
	require.GreaterOrEqual(t, len(results), 2)
	assert.Contains(t, results[0].Content, "Cardiac care")
	assert.Contains(t, results[1].Content, "Heart patients")
}

func TestNormalizeEqualScoresYieldsOnes(t *testing.T) {
	normalized := normalizeScores([]float64{0.42, 0.42, 0.42})

	assert.Equal(t, []float64{1.0, 1.0, 1.0}, normalized)
}

func TestNormalizeEmptyScores(t *testing.T) {
	assert.Empty(t, normalizeScores(nil))
}

func TestNormalizeSpreadsScoresToUnitRange(t *testing.T) {
	normalized := normalizeScores([]float64{1.0, 3.0, 2.0})

	assert.InDelta(t, 0.0, normalized[0], 1e-9)
	assert.InDelta(t, 1.0, normalized[1], 1e-9)
	assert.InDelta(t, 0.5, normalized[2], 1e-9)
}

func TestEmbeddingFailureSurfacesDistinctErrorKind(t *testing.T) {
	docs := corpus()
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}
	vectors, err := topicEmbedder{}.Embed(context.Background(), texts)
	require.NoError(t, err)

	r := New(failingEmbedder{}, 0.7, 0.3, 1.5)
	r.semanticIndex = semantic.FromSnapshot(failingEmbedder{}, docs, vectors)
	r.keywordIndex.Build(docs)
	r.documents = docs

	_, err = r.Search(context.Background(), "heart", 3, DefaultOptions())

	assert.ErrorIs(t, err, retrieval.ErrEmbedding)
}

func TestKeywordOnlyFallbackStillRetrieves(t *testing.T) {
	r := builtRetriever(t)

	results, err := r.SearchKeywordOnly("influenza fever", 3, true)

	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Content, "Influenza")
}

func TestUpdateWeightsRenormalizesToOne(t *testing.T) {
	r := builtRetriever(t)

	require.NoError(t, r.UpdateWeights(3.0, 1.0))

	semWeight, kwWeight, _ := r.Weights()
	assert.InDelta(t, 0.75, semWeight, 1e-9)
	assert.InDelta(t, 0.25, kwWeight, 1e-9)
}

func TestUpdateWeightsRejectsNonPositiveSum(t *testing.T) {
	r := builtRetriever(t)

	assert.Error(t, r.UpdateWeights(0, 0))
}

func TestSearchByCategoryNarrowsCorpusBeforeRetrieval(t *testing.T) {
	r := builtRetriever(t)

	results, err := r.SearchByCategory(context.Background(), "vegetables diet", "cardiology", 5)

	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, result := range results {
		assert.Equal(t, "cardiology", result.Metadata["category"])
	}
}

func TestSearchByCategoryUnknownCategoryReturnsNothing(t *testing.T) {
	r := builtRetriever(t)

	results, err := r.SearchByCategory(context.Background(), "heart", "dermatology", 5)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchWithFiltersMatchesAllEntries(t *testing.T) {
	r := builtRetriever(t)

	results, err := r.SearchWithFilters(context.Background(), "heart cardiac",
		map[string]interface{}{"category": "cardiology", "source_type": "journal"}, 5)

	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, result := range results {
		assert.Equal(t, "journal", result.Metadata["source_type"])
	}
}

func TestSimilarDocumentsExcludesSelf(t *testing.T) {
	r := builtRetriever(t)

	results, err := r.SimilarDocuments(context.Background(), 0, 3)

	require.NoError(t, err)
	for _, result := range results {
		assert.NotEqual(t, corpus()[0].Content, result.Content)
	}
}

func TestExplainReportsBothSidesAndWeights(t *testing.T) {
	r := builtRetriever(t)

	explanation, err := r.Explain(context.Background(), "chest pain near the heart", 3)

	require.NoError(t, err)
	assert.Contains(t, explanation.MedicalTerms, "chest")
	assert.Contains(t, explanation.MedicalTerms, "pain")
	assert.InDelta(t, 0.7, explanation.SemanticWeight, 1e-9)
	assert.InDelta(t, 0.3, explanation.KeywordWeight, 1e-9)
	assert.NotEmpty(t, explanation.HybridResults)
}

func TestEmptyRetrieverReturnsNoResults(t *testing.T) {
	r := New(topicEmbedder{}, 0.7, 0.3, 1.5)

	results, err := r.Search(context.Background(), "heart", 5, DefaultOptions())

	require.NoError(t, err)
	assert.Empty(t, results)
}
