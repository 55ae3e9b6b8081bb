package keyword

import (
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/medq/backend/internal/retrieval"
)

// Result is a keyword search hit. MatchedTerms carries the stemmed
// query terms found in the document, which the fusion layer uses for
// explanations.
type Result struct {
	Content      string
	Score        float64
	Metadata     map[string]interface{}
	Source       string
	MatchedTerms []string
}

// Index is an in-memory inverted index with TF-IDF scoring. Build and
// Add take the write lock; Search takes the read lock, so concurrent
// searches never observe a partially updated index.
type Index struct {
	mu        sync.RWMutex
	documents []retrieval.Document
	termFreqs []map[string]int
	docFreqs  map[string]int
}

func NewIndex() *Index {
	return &Index{
		docFreqs: make(map[string]int),
	}
}

// Build replaces the index contents with the given documents.
func (idx *Index) Build(documents []retrieval.Document) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.documents = nil
	idx.termFreqs = nil
	idx.docFreqs = make(map[string]int)
	idx.index(documents)
}

// Add extends the index. Document frequencies are updated, not just
// appended, so IDF values stay correct.
func (idx *Index) Add(documents []retrieval.Document) {
	if len(documents) == 0 {
		return
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.index(documents)
}

func (idx *Index) index(documents []retrieval.Document) {
	for _, doc := range documents {
		tokens := Tokenize(doc.Content)

		termFreq := make(map[string]int, len(tokens))
		for _, token := range tokens {
			termFreq[token]++
		}

		idx.documents = append(idx.documents, doc)
		idx.termFreqs = append(idx.termFreqs, termFreq)

		for term := range termFreq {
			idx.docFreqs[term]++
		}
	}
}

func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.documents)
}

// Search ranks documents by summed TF-IDF over the query terms,
// normalized by the document's distinct-term count. With medicalBoost
// set, every medical term from the query found verbatim in the raw
// document text adds a flat bonus before normalization.
func (idx *Index) Search(query string, topK int, medicalBoost bool) ([]Result, error) {
	if topK <= 0 {
		return nil, retrieval.ErrInvalidTopK
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.documents) == 0 {
		return nil, nil
	}

	queryTokens := Tokenize(query)

	var medicalTerms []string
	if medicalBoost {
		medicalTerms = ExtractMedicalTerms(query)
	}

	type scored struct {
		docIdx int
		score  float64
	}
	scores := make([]scored, 0, len(idx.documents))

	for docIdx := range idx.documents {
		score := 0.0
		for _, term := range queryTokens {
			score += idx.tfIDF(term, docIdx)
		}

		if medicalBoost {
			content := strings.ToLower(idx.documents[docIdx].Content)
			for _, term := range medicalTerms {
				if strings.Contains(content, term) {
					score += 2.0
				}
			}
		}

		if distinct := len(idx.termFreqs[docIdx]); distinct > 0 {
			score /= float64(distinct)
		}

		scores = append(scores, scored{docIdx: docIdx, score: score})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	results := make([]Result, 0, topK)
	for _, s := range scores {
		if len(results) >= topK {
			break
		}
		if s.score <= 0 {
			continue
		}
		doc := idx.documents[s.docIdx]
		results = append(results, Result{
			Content:      doc.Content,
			Score:        s.score,
			Metadata:     doc.Metadata,
			Source:       doc.Source,
			MatchedTerms: idx.matchedTerms(queryTokens, s.docIdx),
		})
	}

	return results, nil
}

func (idx *Index) tfIDF(term string, docIdx int) float64 {
	termFreq := idx.termFreqs[docIdx][term]
	if termFreq == 0 {
		return 0.0
	}

	docFreq := idx.docFreqs[term]
	if docFreq == 0 {
		return 0.0
	}

	tf := 1 + math.Log(float64(termFreq))
	idf := math.Log(float64(len(idx.documents)) / float64(docFreq))

	return tf * idf
}

func (idx *Index) matchedTerms(queryTokens []string, docIdx int) []string {
	var matched []string
	for _, term := range queryTokens {
		if idx.termFreqs[docIdx][term] > 0 {
			matched = append(matched, term)
		}
	}
	return matched
}
