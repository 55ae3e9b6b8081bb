package hybrid

import (
	"context"

	"github.com/medq/backend/internal/retrieval/keyword"
)

// Explanation is a diagnostic view of one query: both raw rankings,
// the fused ranking, the recognized medical terms, and the active
// weights. Audit tooling only, not the hot path.
type Explanation struct {
	Query           string            `json:"query"`
	MedicalTerms    []string          `json:"medical_terms_found"`
	SemanticResults []ExplainedResult `json:"semantic_results"`
	KeywordResults  []ExplainedResult `json:"keyword_results"`
	HybridResults   []ExplainedResult `json:"hybrid_results"`
	SemanticWeight  float64           `json:"semantic_weight"`
	KeywordWeight   float64           `json:"keyword_weight"`
	MedicalBoost    float64           `json:"medical_boost"`
}

type ExplainedResult struct {
	Content      string   `json:"content"`
	Score        float64  `json:"score"`
	Source       string   `json:"source,omitempty"`
	MatchedTerms []string `json:"matched_terms,omitempty"`
}

// Explain runs the two sides and the fusion separately for one query
// and reports all three rankings.
func (r *Retriever) Explain(ctx context.Context, query string, topK int) (*Explanation, error) {
	if topK <= 0 {
		topK = 3
	}

	semanticResults, err := r.semanticIndex.Search(ctx, query, topK, 0.0)
	if err != nil {
		return nil, err
	}

	keywordResults, err := r.keywordIndex.Search(query, topK, true)
	if err != nil {
		return nil, err
	}

	hybridResults, err := r.Search(ctx, query, topK, DefaultOptions())
	if err != nil {
		return nil, err
	}

	semWeight, kwWeight, boostFactor := r.Weights()

	explanation := &Explanation{
		Query:          query,
		MedicalTerms:   keyword.ExtractMedicalTerms(query),
		SemanticWeight: semWeight,
		KeywordWeight:  kwWeight,
		MedicalBoost:   boostFactor,
	}

	for _, result := range semanticResults {
		explanation.SemanticResults = append(explanation.SemanticResults, ExplainedResult{
			Content: truncate(result.Content, 100),
			Score:   result.Score,
			Source:  result.Source,
		})
	}
	for _, result := range keywordResults {
		explanation.KeywordResults = append(explanation.KeywordResults, ExplainedResult{
			Content:      truncate(result.Content, 100),
			Score:        result.Score,
			MatchedTerms: result.MatchedTerms,
		})
	}
	for _, result := range hybridResults {
		explanation.HybridResults = append(explanation.HybridResults, ExplainedResult{
			Content: truncate(result.Content, 100),
			Score:   result.Score,
			Source:  result.Source,
		})
	}

	return explanation, nil
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
