package semantic

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/medq/backend/internal/retrieval"
)

// Embedder turns text into fixed-dimension vectors. The embedding call
// is the only suspension point in the retrieval core, so it carries a
// context.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Index stores L2-normalized document vectors and answers exact
// nearest-neighbor queries by inner product, which equals cosine
// similarity under normalization.
type Index struct {
	mu        sync.RWMutex
	embedder  Embedder
	documents []retrieval.Document
	vectors   [][]float32
}

func NewIndex(embedder Embedder) *Index {
	return &Index{embedder: embedder}
}

// Build replaces the index contents with the given documents.
func (idx *Index) Build(ctx context.Context, documents []retrieval.Document) error {
	vectors, err := idx.embedDocuments(ctx, documents)
	if err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.documents = append([]retrieval.Document(nil), documents...)
	idx.vectors = vectors
	return nil
}

// Add extends the index with new documents.
func (idx *Index) Add(ctx context.Context, documents []retrieval.Document) error {
	if len(documents) == 0 {
		return nil
	}

	vectors, err := idx.embedDocuments(ctx, documents)
	if err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.documents = append(idx.documents, documents...)
	idx.vectors = append(idx.vectors, vectors...)
	return nil
}

func (idx *Index) embedDocuments(ctx context.Context, documents []retrieval.Document) ([][]float32, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	texts := make([]string, len(documents))
	for i, doc := range documents {
		texts[i] = doc.Content
	}

	vectors, err := idx.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", retrieval.ErrEmbedding, err)
	}
	if len(vectors) != len(documents) {
		return nil, fmt.Errorf("%w: got %d vectors for %d documents", retrieval.ErrEmbedding, len(vectors), len(documents))
	}

	for i := range vectors {
		normalize(vectors[i])
	}
	return vectors, nil
}

func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.documents)
}

// Search returns the topK documents by inner product with the query
// embedding, dropping results below minScore.
func (idx *Index) Search(ctx context.Context, query string, topK int, minScore float64) ([]retrieval.SearchResult, error) {
	if topK <= 0 {
		return nil, retrieval.ErrInvalidTopK
	}

	idx.mu.RLock()
	empty := len(idx.documents) == 0
	idx.mu.RUnlock()
	if empty {
		return nil, nil
	}

	queryVector, err := idx.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", retrieval.ErrEmbedding, err)
	}
	normalize(queryVector)

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.nearest(queryVector, topK, minScore, -1), nil
}

// SimilarTo finds the topK nearest neighbors of an indexed document,
// excluding the document itself.
func (idx *Index) SimilarTo(docID int, topK int) ([]retrieval.SearchResult, error) {
	if topK <= 0 {
		return nil, retrieval.ErrInvalidTopK
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if docID < 0 || docID >= len(idx.documents) {
		return nil, nil
	}

	return idx.nearest(idx.vectors[docID], topK, math.Inf(-1), docID), nil
}

// nearest is called with the read lock held. excludeID of -1 disables
// self-exclusion.
func (idx *Index) nearest(queryVector []float32, topK int, minScore float64, excludeID int) []retrieval.SearchResult {
	type scored struct {
		docIdx int
		score  float64
	}

	scores := make([]scored, 0, len(idx.vectors))
	for i, vector := range idx.vectors {
		if i == excludeID {
			continue
		}
		scores = append(scores, scored{docIdx: i, score: dot(queryVector, vector)})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	results := make([]retrieval.SearchResult, 0, topK)
	for _, s := range scores {
		if len(results) >= topK {
			break
		}
		if s.score < minScore {
			continue
		}
		doc := idx.documents[s.docIdx]
		results = append(results, retrieval.SearchResult{
			Content:  doc.Content,
			Score:    s.score,
			Metadata: doc.Metadata,
			Source:   doc.Source,
		})
	}

	return results
}

// Snapshot returns copies of the indexed documents and their vectors,
// letting a caller build a scoped index over a subset without repeating
// embedding calls.
func (idx *Index) Snapshot() ([]retrieval.Document, [][]float32) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	docs := append([]retrieval.Document(nil), idx.documents...)
	vectors := append([][]float32(nil), idx.vectors...)
	return docs, vectors
}

// FromSnapshot builds an index directly from previously embedded
// vectors.
func FromSnapshot(embedder Embedder, documents []retrieval.Document, vectors [][]float32) *Index {
	return &Index{
		embedder:  embedder,
		documents: documents,
		vectors:   vectors,
	}
}

func normalize(vector []float32) {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vector {
		vector[i] /= norm
	}
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
