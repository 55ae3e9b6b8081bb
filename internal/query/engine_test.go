package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medq/backend/internal/analysis/emergency"
	"github.com/medq/backend/internal/analysis/emotion"
	"github.com/medq/backend/internal/kg/neo4j"
	"github.com/medq/backend/internal/retrieval"
)

func TestHashQueryNormalizesCaseAndWhitespace(t *testing.T) {
	assert.Equal(t, hashQuery("What causes fever?", ""), hashQuery("  what causes FEVER?  ", ""))
	assert.NotEqual(t, hashQuery("fever", ""), hashQuery("fever", "conditions"))
}

func TestAverageScore(t *testing.T) {
	results := []retrieval.SearchResult{
		{Score: 0.8},
		{Score: 0.4},
	}
	assert.InDelta(t, 0.6, averageScore(results), 1e-9)
	assert.Equal(t, 0.0, averageScore(nil))
}

func TestFormatContextIncludesKGAndDocuments(t *testing.T) {
	results := []retrieval.SearchResult{
		{Content: "Influenza causes fever and aches.", Source: "medlineplus.gov/flu", Score: 0.9},
	}
	kgResults := []neo4j.Triple{
		{
			Subject:    neo4j.Entity{Name: "fever"},
			Predicate:  "INDICATES",
			Object:     neo4j.Entity{Name: "influenza"},
			Confidence: 0.7,
		},
	}

	context := formatContext(results, kgResults)

	assert.Contains(t, context, "fever INDICATES influenza")
	assert.Contains(t, context, "medlineplus.gov/flu")
	assert.Contains(t, context, "Influenza causes fever")
}

func TestFormatContextEmptyResults(t *testing.T) {
	context := formatContext(nil, nil)
	assert.Contains(t, context, "No reference material found")
}

func TestFormatContextTruncatesLongContent(t *testing.T) {
	long := strings.Repeat("a", 2000)
	context := formatContext([]retrieval.SearchResult{{Content: long, Source: "s"}}, nil)
	assert.Less(t, len(context), 1000)
}

func TestCacheableCopyStripsSessionTrends(t *testing.T) {
	resp := &QueryResponse{
		ID:       "q1",
		Query:    "what causes fever",
		Response: "Fever is commonly caused by infection.",
		EmergencyTrend: &emergency.TrendReport{
			LevelDistribution:          map[string]int{"high": 2, "none": 1},
			Trend:                      "escalating",
			RequiresImmediateAttention: true,
		},
		EmotionTrend: &emotion.TrendReport{
			DominantEmotion: "anxiety",
		},
		Cached: true,
	}

	shared := cacheableCopy(resp)

	assert.Nil(t, shared.EmergencyTrend)
	assert.Nil(t, shared.EmotionTrend)
	assert.False(t, shared.Cached)
	assert.Equal(t, resp.ID, shared.ID)
	assert.Equal(t, resp.Response, shared.Response)

	// the original keeps its per-session reports
	assert.NotNil(t, resp.EmergencyTrend)
	assert.NotNil(t, resp.EmotionTrend)
}

func TestCollectSourcesMergesRetrievalAndKG(t *testing.T) {
	results := []retrieval.SearchResult{
		{Source: "medlineplus.gov/flu", Score: 0.9, Metadata: map[string]interface{}{"doc_id": "d1"}},
	}
	kgResults := []neo4j.Triple{
		{Confidence: 0.7, SourceURLs: []string{"medlineplus.gov/fever"}},
	}

	sources := collectSources(results, kgResults)

	assert.Len(t, sources, 2)
	assert.Equal(t, "retrieval", sources[0].Type)
	assert.Equal(t, "d1", sources[0].ChunkID)
	assert.Equal(t, "kg", sources[1].Type)
	assert.Equal(t, "medlineplus.gov/fever", sources[1].URL)
}
