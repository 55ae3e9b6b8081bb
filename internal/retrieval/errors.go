package retrieval

import "errors"

var (
	// ErrEmbedding marks failures of the embedding provider. Callers
	// check for it with errors.Is and fall back to keyword-only search.
	ErrEmbedding = errors.New("embedding request failed")

	// ErrInvalidTopK is returned when a caller asks for a non-positive
	// number of results.
	ErrInvalidTopK = errors.New("top_k must be positive")

	// ErrNonFiniteScore is returned when NaN or Inf shows up in a score
	// list handed across the public contract.
	ErrNonFiniteScore = errors.New("score list contains non-finite value")
)
