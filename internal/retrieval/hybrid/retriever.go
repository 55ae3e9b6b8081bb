package hybrid

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/medq/backend/internal/retrieval"
	"github.com/medq/backend/internal/retrieval/keyword"
	"github.com/medq/backend/internal/retrieval/semantic"
	"github.com/medq/backend/pkg/logger"
)

// Options tune a single hybrid search call.
type Options struct {
	MedicalBoost bool
	SemanticMin  float64
	KeywordMin   float64
}

// DefaultOptions enable medical boosting with no score floors.
func DefaultOptions() Options {
	return Options{MedicalBoost: true}
}

// Retriever fuses keyword and semantic rankings into one result list.
// Weights are adjustable at runtime without rebuilding either index.
type Retriever struct {
	mu             sync.RWMutex
	embedder       semantic.Embedder
	keywordIndex   *keyword.Index
	semanticIndex  *semantic.Index
	documents      []retrieval.Document
	semanticWeight float64
	keywordWeight  float64
	medicalBoost   float64
}

func New(embedder semantic.Embedder, semanticWeight, keywordWeight, medicalBoost float64) *Retriever {
	return &Retriever{
		embedder:       embedder,
		keywordIndex:   keyword.NewIndex(),
		semanticIndex:  semantic.NewIndex(embedder),
		semanticWeight: semanticWeight,
		keywordWeight:  keywordWeight,
		medicalBoost:   medicalBoost,
	}
}

// Build indexes the documents on both sides. The semantic side goes
// first so an embedding failure leaves the retriever unchanged.
func (r *Retriever) Build(ctx context.Context, documents []retrieval.Document) error {
	if err := r.semanticIndex.Build(ctx, documents); err != nil {
		return err
	}
	r.keywordIndex.Build(documents)

	r.mu.Lock()
	r.documents = append([]retrieval.Document(nil), documents...)
	r.mu.Unlock()

	logger.Info("Hybrid indices built", zap.Int("documents", len(documents)))
	return nil
}

// Add extends both indexes.
func (r *Retriever) Add(ctx context.Context, documents []retrieval.Document) error {
	if len(documents) == 0 {
		return nil
	}

	if err := r.semanticIndex.Add(ctx, documents); err != nil {
		return err
	}
	r.keywordIndex.Add(documents)

	r.mu.Lock()
	r.documents = append(r.documents, documents...)
	r.mu.Unlock()
	return nil
}

func (r *Retriever) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.documents)
}

// Search runs both sides with 2x over-fetch, min-max normalizes each
// side independently, joins by content string, fuses with the active
// weights plus the matched-term bonus, and amplifies boosted entries.
func (r *Retriever) Search(ctx context.Context, query string, topK int, opts Options) ([]retrieval.SearchResult, error) {
	if topK <= 0 {
		return nil, retrieval.ErrInvalidTopK
	}

	semanticResults, err := r.semanticIndex.Search(ctx, query, topK*2, opts.SemanticMin)
	if err != nil {
		return nil, fmt.Errorf("semantic side: %w", err)
	}

	keywordResults, err := r.keywordIndex.Search(query, topK*2, opts.MedicalBoost)
	if err != nil {
		return nil, fmt.Errorf("keyword side: %w", err)
	}
	if opts.KeywordMin > 0 {
		filtered := keywordResults[:0]
		for _, result := range keywordResults {
			if result.Score >= opts.KeywordMin {
				filtered = append(filtered, result)
			}
		}
		keywordResults = filtered
	}

	semWeight, kwWeight, boostFactor := r.Weights()
	fused := fuse(semanticResults, keywordResults, semWeight, kwWeight, boostFactor, opts.MedicalBoost)

	if len(fused) > topK {
		fused = fused[:topK]
	}
	return fused, nil
}

// SearchKeywordOnly serves the degraded path when the embedding
// provider is down.
func (r *Retriever) SearchKeywordOnly(query string, topK int, medicalBoost bool) ([]retrieval.SearchResult, error) {
	keywordResults, err := r.keywordIndex.Search(query, topK, medicalBoost)
	if err != nil {
		return nil, err
	}

	results := make([]retrieval.SearchResult, len(keywordResults))
	for i, kr := range keywordResults {
		results[i] = retrieval.SearchResult{
			Content:  kr.Content,
			Score:    kr.Score,
			Metadata: kr.Metadata,
			Source:   kr.Source,
		}
	}
	return results, nil
}

// SearchByCategory narrows the corpus to one metadata category before
// either index runs, then searches the scoped subset.
func (r *Retriever) SearchByCategory(ctx context.Context, query, category string, topK int) ([]retrieval.SearchResult, error) {
	return r.searchScoped(ctx, query, topK, func(doc retrieval.Document) bool {
		value, _ := doc.Metadata["category"].(string)
		return strings.EqualFold(value, category)
	})
}

// SearchWithFilters narrows the corpus to documents whose metadata
// matches every filter entry, then searches the scoped subset.
func (r *Retriever) SearchWithFilters(ctx context.Context, query string, filters map[string]interface{}, topK int) ([]retrieval.SearchResult, error) {
	return r.searchScoped(ctx, query, topK, func(doc retrieval.Document) bool {
		for key, want := range filters {
			got, ok := doc.Metadata[key]
			if !ok || got != want {
				return false
			}
		}
		return true
	})
}

// searchScoped builds a temporary retriever over the matching subset,
// reusing already-computed document vectors so no embedding calls are
// repeated for documents.
func (r *Retriever) searchScoped(ctx context.Context, query string, topK int, match func(retrieval.Document) bool) ([]retrieval.SearchResult, error) {
	if topK <= 0 {
		return nil, retrieval.ErrInvalidTopK
	}

	docs, vectors := r.semanticIndex.Snapshot()

	var scopedDocs []retrieval.Document
	var scopedVectors [][]float32
	for i, doc := range docs {
		if match(doc) {
			scopedDocs = append(scopedDocs, doc)
			scopedVectors = append(scopedVectors, vectors[i])
		}
	}

	if len(scopedDocs) == 0 {
		return nil, nil
	}

	semWeight, kwWeight, boostFactor := r.Weights()
	scoped := &Retriever{
		embedder:       r.embedder,
		keywordIndex:   keyword.NewIndex(),
		semanticIndex:  semantic.FromSnapshot(r.embedder, scopedDocs, scopedVectors),
		documents:      scopedDocs,
		semanticWeight: semWeight,
		keywordWeight:  kwWeight,
		medicalBoost:   boostFactor,
	}
	scoped.keywordIndex.Build(scopedDocs)

	return scoped.Search(ctx, query, topK, DefaultOptions())
}

// SimilarDocuments uses an indexed document's own content as the query
// and drops the leading self match.
func (r *Retriever) SimilarDocuments(ctx context.Context, docID, topK int) ([]retrieval.SearchResult, error) {
	r.mu.RLock()
	if docID < 0 || docID >= len(r.documents) {
		r.mu.RUnlock()
		return nil, nil
	}
	content := r.documents[docID].Content
	r.mu.RUnlock()

	results, err := r.Search(ctx, content, topK+1, DefaultOptions())
	if err != nil {
		return nil, err
	}

	filtered := make([]retrieval.SearchResult, 0, topK)
	for _, result := range results {
		if result.Content == content {
			continue
		}
		filtered = append(filtered, result)
		if len(filtered) >= topK {
			break
		}
	}
	return filtered, nil
}

// UpdateWeights replaces the fusion weights, renormalizing them to sum
// to one. Indexes are untouched.
func (r *Retriever) UpdateWeights(semanticWeight, keywordWeight float64) error {
	total := semanticWeight + keywordWeight
	if total <= 0 {
		return fmt.Errorf("weights must sum to a positive value, got %.3f", total)
	}

	r.mu.Lock()
	r.semanticWeight = semanticWeight / total
	r.keywordWeight = keywordWeight / total
	r.mu.Unlock()
	return nil
}

func (r *Retriever) SetMedicalBoost(boost float64) {
	r.mu.Lock()
	r.medicalBoost = boost
	r.mu.Unlock()
}

func (r *Retriever) Weights() (semanticWeight, keywordWeight, medicalBoost float64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.semanticWeight, r.keywordWeight, r.medicalBoost
}

type scoreSet struct {
	content       string
	metadata      map[string]interface{}
	source        string
	semanticScore float64
	keywordScore  float64
	medicalBoost  float64
}

func fuse(semanticResults []retrieval.SearchResult, keywordResults []keyword.Result,
	semWeight, kwWeight, boostFactor float64, medicalBoost bool) []retrieval.SearchResult {

	semanticScores := normalizeScores(scoresOf(semanticResults))
	rawKeyword := make([]float64, len(keywordResults))
	for i, result := range keywordResults {
		rawKeyword[i] = result.Score
	}
	keywordScores := normalizeScores(rawKeyword)

	merged := make(map[string]*scoreSet)
	var order []string

	entry := func(content string, metadata map[string]interface{}, source string) *scoreSet {
		if existing, ok := merged[content]; ok {
			return existing
		}
		set := &scoreSet{content: content, metadata: metadata, source: source}
		merged[content] = set
		order = append(order, content)
		return set
	}

	for i, result := range semanticResults {
		set := entry(result.Content, result.Metadata, result.Source)
		set.semanticScore = semanticScores[i]
	}

	for i, result := range keywordResults {
		set := entry(result.Content, result.Metadata, result.Source)
		set.keywordScore = keywordScores[i]
		if medicalBoost && len(result.MatchedTerms) > 0 {
			set.medicalBoost = float64(len(result.MatchedTerms)) * 0.1
		}
	}

	fused := make([]retrieval.SearchResult, 0, len(order))
	for _, content := range order {
		set := merged[content]
		score := semWeight*set.semanticScore + kwWeight*set.keywordScore + set.medicalBoost
		if medicalBoost && set.medicalBoost > 0 {
			score *= boostFactor
		}
		fused = append(fused, retrieval.SearchResult{
			Content:  set.content,
			Score:    score,
			Metadata: set.metadata,
			Source:   set.source,
		})
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})
	return fused
}

// normalizeScores min-max normalizes into [0,1]. An all-equal list maps
// to constant 1.0 rather than dividing by zero.
func normalizeScores(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}

	minScore, maxScore := scores[0], scores[0]
	for _, score := range scores[1:] {
		if score < minScore {
			minScore = score
		}
		if score > maxScore {
			maxScore = score
		}
	}

	normalized := make([]float64, len(scores))
	if maxScore == minScore {
		for i := range normalized {
			normalized[i] = 1.0
		}
		return normalized
	}

	for i, score := range scores {
		normalized[i] = (score - minScore) / (maxScore - minScore)
	}
	return normalized
}

func scoresOf(results []retrieval.SearchResult) []float64 {
	scores := make([]float64, len(results))
	for i, result := range results {
		scores[i] = result.Score
	}
	return scores
}
