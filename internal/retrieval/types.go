package retrieval

// Document is a unit of indexed medical knowledge. Once handed to an
// index it is copied, never shared, so the lexical and semantic sides
// stay independent.
type Document struct {
	Content  string
	Metadata map[string]interface{}
	Source   string
}

// SearchResult is produced per query and never persisted.
type SearchResult struct {
	Content  string
	Score    float64
	Metadata map[string]interface{}
	Source   string
}
