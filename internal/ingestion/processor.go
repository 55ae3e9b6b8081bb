package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/medq/backend/internal/kg/builder"
	"github.com/medq/backend/internal/llm"
	"github.com/medq/backend/internal/retrieval"
	"github.com/medq/backend/internal/retrieval/hybrid"
	"github.com/medq/backend/internal/storage/models"
	"github.com/medq/backend/internal/storage/sqlite"
	"github.com/medq/backend/internal/vector/milvus"
	"github.com/medq/backend/pkg/logger"
	"github.com/medq/backend/pkg/utils"
)

type Processor struct {
	db           *sqlite.Client
	vectorDB     *milvus.Client
	llmClient    *llm.Client
	retriever    *hybrid.Retriever
	kgBuilder    *builder.Builder
	chunkSize    int
	chunkOverlap int
}

func NewProcessor(db *sqlite.Client, vectorDB *milvus.Client, llmClient *llm.Client, retriever *hybrid.Retriever, kgBuilder *builder.Builder) *Processor {
	return &Processor{
		db:           db,
		vectorDB:     vectorDB,
		llmClient:    llmClient,
		retriever:    retriever,
		kgBuilder:    kgBuilder,
		chunkSize:    1000,
		chunkOverlap: 100,
	}
}

// corpusEntry is the shape of one record in a JSON corpus file.
type corpusEntry struct {
	Content  string                 `json:"content"`
	Source   string                 `json:"source"`
	Metadata map[string]interface{} `json:"metadata"`
}

// LoadCorpus reads a JSON array of documents and indexes them into the
// in-memory retriever. Used at startup to warm the hybrid indexes.
func (p *Processor) LoadCorpus(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read corpus file: %w", err)
	}

	var entries []corpusEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return 0, fmt.Errorf("failed to parse corpus file: %w", err)
	}

	docs := make([]retrieval.Document, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Content) == "" {
			continue
		}
		source := e.Source
		if source == "" {
			source = "unknown"
		}
		docs = append(docs, retrieval.Document{
			Content:  e.Content,
			Metadata: e.Metadata,
			Source:   source,
		})
	}

	if err := p.retriever.Build(ctx, docs); err != nil {
		return 0, fmt.Errorf("failed to build retrieval indexes: %w", err)
	}

	logger.Info("Corpus loaded",
		zap.String("path", path),
		zap.Int("documents", len(docs)),
	)

	return len(docs), nil
}

func (p *Processor) ProcessDocument(ctx context.Context, source, htmlContent string) error {
	logger.Info("Processing document", zap.String("source", source))

	cleanedText := p.cleanHTML(htmlContent)
	if cleanedText == "" {
		return fmt.Errorf("no content extracted from HTML")
	}

	category := p.extractCategory(source, cleanedText)
	sourceType := p.extractSourceType(source)

	summary, err := p.llmClient.SummarizeDocument(ctx, cleanedText[:min(len(cleanedText), 4000)])
	if err != nil {
		logger.Warn("Failed to summarize document", zap.Error(err))
		summary = "Summary unavailable"
	}

	docID := generateID(source)
	doc := &models.Document{
		ID:         docID,
		Source:     source,
		Title:      p.extractTitle(htmlContent),
		Category:   category,
		SourceType: sourceType,
		Summary:    summary,
		RawContent: cleanedText,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	err = p.db.InsertDocument(doc)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	chunks := p.chunkText(cleanedText)
	logger.Info("Document chunked", zap.Int("chunks", len(chunks)))

	embeddings, err := p.llmClient.GenerateBatchEmbeddings(ctx, chunks)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}

	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: got %d, expected %d", len(embeddings), len(chunks))
	}

	vectorChunks := make([]milvus.DocumentChunk, 0, len(chunks))
	retrievalDocs := make([]retrieval.Document, 0, len(chunks))
	for i, chunkText := range chunks {
		chunkID := fmt.Sprintf("%s_chunk_%d", docID, i)
		vectorChunk := milvus.DocumentChunk{
			ID:         chunkID,
			Embedding:  embeddings[i],
			Content:    chunkText,
			Source:     source,
			Category:   category,
			SourceType: sourceType,
			Summary:    summary,
			Timestamp:  time.Now(),
		}
		vectorChunks = append(vectorChunks, vectorChunk)

		dbChunk := &models.DocumentChunk{
			ID:          chunkID,
			DocID:       docID,
			ChunkIndex:  i,
			Text:        chunkText,
			EmbeddingID: chunkID,
			CreatedAt:   time.Now(),
		}
		p.db.InsertChunk(dbChunk)

		retrievalDocs = append(retrievalDocs, retrieval.Document{
			Content: chunkText,
			Metadata: map[string]interface{}{
				"category":    category,
				"source_type": sourceType,
				"doc_id":      docID,
			},
			Source: source,
		})
	}

	if len(vectorChunks) > 0 {
		err = p.vectorDB.Insert(ctx, vectorChunks)
		if err != nil {
			return fmt.Errorf("failed to insert into vector DB: %w", err)
		}
	}

	if err := p.retriever.Add(ctx, retrievalDocs); err != nil {
		return fmt.Errorf("failed to index chunks: %w", err)
	}

	if p.kgBuilder != nil {
		if err := p.kgBuilder.BuildFromDocument(ctx, doc); err != nil {
			logger.Warn("Failed to build KG from document", zap.Error(err))
		}
	}

	logger.Info("Document processed successfully",
		zap.String("doc_id", docID),
		zap.Int("chunks", len(vectorChunks)),
	)

	return nil
}

func (p *Processor) cleanHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style, nav, footer, header, aside").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := doc.Find("body").Text()

	text = regexp.MustCompile(`\s+`).ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	return text
}

func (p *Processor) extractTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "Untitled"
	}

	title := doc.Find("title").First().Text()
	if title == "" {
		title = doc.Find("h1").First().Text()
	}

	if title == "" {
		title = "Untitled"
	}

	return strings.TrimSpace(title)
}

// extractCategory looks at both the source path and the text because
// corpus sources rarely carry a usable path.
func (p *Processor) extractCategory(source, text string) string {
	categoryMarkers := []struct {
		category string
		markers  []string
	}{
		{"medications", []string{"medication", "drug", "dosage", "prescription"}},
		{"procedures", []string{"surgery", "procedure", "operation", "biopsy"}},
		{"nutrition", []string{"diet", "nutrition", "vitamin", "nutrient"}},
		{"mental_health", []string{"mental", "anxiety", "depression", "therapy"}},
		{"conditions", []string{"disease", "condition", "syndrome", "disorder", "infection"}},
		{"symptoms", []string{"symptom", "pain", "fever", "cough"}},
	}

	haystack := strings.ToLower(source) + " " + strings.ToLower(text[:min(len(text), 500)])
	for _, cm := range categoryMarkers {
		for _, marker := range cm.markers {
			if strings.Contains(haystack, marker) {
				return cm.category
			}
		}
	}

	return "general"
}

func (p *Processor) extractSourceType(source string) string {
	lowerSource := strings.ToLower(source)

	if strings.Contains(lowerSource, ".gov") || strings.Contains(lowerSource, "medlineplus") || strings.Contains(lowerSource, "cdc") || strings.Contains(lowerSource, "nih") {
		return "government"
	}
	if strings.Contains(lowerSource, "journal") || strings.Contains(lowerSource, "pubmed") {
		return "medical_journal"
	}
	if strings.Contains(lowerSource, "mayoclinic") || strings.Contains(lowerSource, "clinic") || strings.Contains(lowerSource, "hospital") {
		return "health_website"
	}

	return "website"
}

func (p *Processor) chunkText(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var currentChunk strings.Builder
	currentSize := 0

	for _, word := range words {
		wordLen := len(word) + 1

		if currentSize+wordLen > p.chunkSize && currentChunk.Len() > 0 {
			chunks = append(chunks, currentChunk.String())

			overlapWords := strings.Fields(currentChunk.String())
			overlapStart := max(0, len(overlapWords)-p.chunkOverlap/10)
			currentChunk.Reset()
			currentChunk.WriteString(strings.Join(overlapWords[overlapStart:], " ") + " ")
			currentSize = currentChunk.Len()
		}

		currentChunk.WriteString(word + " ")
		currentSize += wordLen
	}

	if currentChunk.Len() > 0 {
		chunks = append(chunks, currentChunk.String())
	}

	return chunks
}

func generateID(input string) string {
	return utils.HashString(input)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
