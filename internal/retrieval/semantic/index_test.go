package semantic

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medq/backend/internal/retrieval"
)

// topicEmbedder produces deterministic three-dimensional vectors from
// topic word counts, enough to exercise ranking without a model.
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

func semanticDocs() []retrieval.Document {
	return []retrieval.Document{
		{Content: "Cardiac health depends on the heart muscle receiving enough oxygen.", Source: "textbook"},
		{Content: "A nutrition plan built on vegetables improves diet quality.", Source: "website"},
		{Content: "Influenza spreads quickly and fever is its most common sign.", Source: "journal"},
	}
}

func TestSearchReturnsMostSimilarFirst(t *testing.T) {
	idx := NewIndex(topicEmbedder{})
	require.NoError(t, idx.Build(context.Background(), semanticDocs()))

	results, err := idx.Search(context.Background(), "chest pain near the heart", 3, 0.0)

	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Content, "Cardiac")
}

func TestSearchEmptyIndexReturnsNoResults(t *testing.T) {
	idx := NewIndex(topicEmbedder{})

	results, err := idx.Search(context.Background(), "heart", 5, 0.0)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchRespectsMinScore(t *testing.T) {
	idx := NewIndex(topicEmbedder{})
	require.NoError(t, idx.Build(context.Background(), semanticDocs()))

	results, err := idx.Search(context.Background(), "heart cardiac", 3, 0.9)

	require.NoError(t, err)
	for _, result := range results {
		assert.GreaterOrEqual(t, result.Score, 0.9)
	}
}

func TestSearchRejectsNonPositiveTopK(t *testing.T) {
	idx := NewIndex(topicEmbedder{})

	_, err := idx.Search(context.Background(), "heart", -1, 0.0)

	assert.ErrorIs(t, err, retrieval.ErrInvalidTopK)
}

func TestSearchSurfacesEmbeddingFailure(t *testing.T) {
	idx := NewIndex(topicEmbedder{})
	require.NoError(t, idx.Build(context.Background(), semanticDocs()))
	idx.embedder = failingEmbedder{}

	_, err := idx.Search(context.Background(), "heart", 3, 0.0)

	assert.ErrorIs(t, err, retrieval.ErrEmbedding)
}

func TestBuildSurfacesEmbeddingFailure(t *testing.T) {
	idx := NewIndex(failingEmbedder{})

	err := idx.Build(context.Background(), semanticDocs())

	assert.ErrorIs(t, err, retrieval.ErrEmbedding)
}

func TestSimilarToExcludesQueriedDocument(t *testing.T) {
	idx := NewIndex(topicEmbedder{})
	require.NoError(t, idx.Build(context.Background(), semanticDocs()))

	results, err := idx.SimilarTo(0, 3)

	require.NoError(t, err)
	for _, result := range results {
		assert.NotContains(t, result.Content, "Cardiac health")
	}
}

func TestAddMakesNewDocumentsSearchable(t *testing.T) {
	idx := NewIndex(topicEmbedder{})
	require.NoError(t, idx.Build(context.Background(), semanticDocs()))

	err := idx.Add(context.Background(), []retrieval.Document{
		{Content: "Chest compressions keep cardiac arrest patients alive.", Source: "journal"},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, idx.Size())
}
