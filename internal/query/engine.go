package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medq/backend/internal/analysis/confidence"
	"github.com/medq/backend/internal/analysis/emergency"
	"github.com/medq/backend/internal/analysis/emotion"
	"github.com/medq/backend/internal/cache/redis"
	"github.com/medq/backend/internal/entities"
	"github.com/medq/backend/internal/kg/neo4j"
	"github.com/medq/backend/internal/llm"
	"github.com/medq/backend/internal/metrics"
	"github.com/medq/backend/internal/retrieval"
	"github.com/medq/backend/internal/retrieval/hybrid"
	"github.com/medq/backend/internal/search/web"
	"github.com/medq/backend/internal/storage/models"
	"github.com/medq/backend/internal/storage/sqlite"
	"github.com/medq/backend/pkg/logger"
	"github.com/medq/backend/pkg/utils"
)

type Engine struct {
	db              *sqlite.Client
	cache           *redis.Client
	kgClient        *neo4j.Client
	retriever       *hybrid.Retriever
	llmClient       *llm.Client
	webClient       *web.Client
	extractor       *entities.Extractor
	confScorer      *confidence.Scorer
	detector        *emergency.Detector
	emotionAnalyzer *emotion.Analyzer

	topK        int
	trendWindow int
	cacheTTL    time.Duration
	sessionTTL  time.Duration
}

type QueryRequest struct {
	Query     string
	SessionID string
	Category  string
	TopK      int
}

type Source struct {
	Type       string  `json:"type"`
	URL        string  `json:"url"`
	ChunkID    string  `json:"chunk_id,omitempty"`
	Confidence float64 `json:"confidence"`
}

type QueryResponse struct {
	ID             string                 `json:"id"`
	Query          string                 `json:"query"`
	Response       string                 `json:"response"`
	Sources        []Source               `json:"sources"`
	Entities       map[string][]string    `json:"entities"`
	Confidence     *confidence.Score      `json:"confidence"`
	Emergency      emergency.Detection    `json:"emergency"`
	Emotion        emotion.Analysis       `json:"emotion"`
	EmergencyTrend *emergency.TrendReport `json:"emergency_trend,omitempty"`
	EmotionTrend   *emotion.TrendReport   `json:"emotion_trend,omitempty"`
	WebSearchUsed  bool                   `json:"web_search_used"`
	Cached         bool                   `json:"cached"`
	LatencyMS      int                    `json:"latency_ms"`
}

// sessionEntry is the per-turn snapshot stored in the session history.
type sessionEntry struct {
	Query          string    `json:"query"`
	EmergencyLevel string    `json:"emergency_level"`
	PrimaryEmotion string    `json:"primary_emotion"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewEngine(db *sqlite.Client, cache *redis.Client, kgClient *neo4j.Client,
	retriever *hybrid.Retriever, llmClient *llm.Client, webClient *web.Client,
	extractor *entities.Extractor, topK, trendWindow int) *Engine {
	return &Engine{
		db:              db,
		cache:           cache,
		kgClient:        kgClient,
		retriever:       retriever,
		llmClient:       llmClient,
		webClient:       webClient,
		extractor:       extractor,
		confScorer:      confidence.NewScorer(),
		detector:        emergency.NewDetector(),
		emotionAnalyzer: emotion.NewAnalyzer(),
		topK:            topK,
		trendWindow:     trendWindow,
		cacheTTL:        time.Hour,
		sessionTTL:      24 * time.Hour,
	}
}

func (e *Engine) ProcessQuery(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	startTime := time.Now()
	queryID := uuid.New().String()

	topK := req.TopK
	if topK <= 0 {
		topK = e.topK
	}

	logger.Info("Processing query",
		zap.String("query_id", queryID),
		zap.String("session_id", req.SessionID),
		zap.String("query", req.Query),
	)

	detection := e.detector.Detect(req.Query)
	emotionAnalysis := e.emotionAnalyzer.Analyze(req.Query, "")

	// only benign queries are served from cache; emergencies always
	// run the full pipeline so trends and actions stay current
	if e.cache != nil && !detection.IsEmergency {
		cacheKey := hashQuery(req.Query, req.Category)
		var cached QueryResponse
		hit, err := e.cache.GetQuery(ctx, cacheKey, &cached)
		if err != nil {
			logger.Warn("Cache lookup failed", zap.Error(err))
		}
		if hit {
			metrics.CacheHits.WithLabelValues("query").Inc()
			cached.Cached = true
			cached.LatencyMS = int(time.Since(startTime).Milliseconds())
			e.recordSessionTurn(ctx, req, detection, emotionAnalysis)
			cached.EmergencyTrend, cached.EmotionTrend = e.sessionTrends(ctx, req.SessionID)
			return &cached, nil
		}
		metrics.CacheMisses.WithLabelValues("query").Inc()
	}

	medicalEntities, err := e.extractor.Extract(req.Query)
	if err != nil {
		logger.Warn("Entity extraction failed", zap.Error(err))
		medicalEntities = map[string][]string{}
	}

	results, degraded := e.retrieve(ctx, req, topK)

	kgResults := e.retrieveFromKG(ctx, medicalEntities)
	metrics.KGResultsCount.Observe(float64(len(kgResults)))

	webUsed := false
	avgScore := averageScore(results)
	if e.webClient != nil && e.webClient.ShouldTriggerWebSearch(len(kgResults), len(results), avgScore) {
		webResults, err := e.webClient.Search(ctx, req.Query, 3)
		if err != nil {
			logger.Warn("Web search failed", zap.Error(err))
		} else if len(webResults) > 0 {
			webUsed = true
			metrics.WebSearchTriggered.Inc()
			for _, wr := range webResults {
				results = append(results, retrieval.SearchResult{
					Content: wr.Content,
					Score:   0.5,
					Metadata: map[string]interface{}{
						"title":       wr.Title,
						"source_type": "website",
					},
					Source: wr.URL,
				})
			}
		}
	}

	retrievedContext := formatContext(results, kgResults)

	response, err := e.llmClient.GenerateResponse(ctx, req.Query, retrievedContext, medicalEntities)
	if err != nil {
		metrics.QueryTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to generate response: %w", err)
	}

	confScore := e.scoreConfidence(req.Query, response, results, medicalEntities, detection)

	latency := int(time.Since(startTime).Milliseconds())

	resp := &QueryResponse{
		ID:            queryID,
		Query:         req.Query,
		Response:      response,
		Sources:       collectSources(results, kgResults),
		Entities:      medicalEntities,
		Confidence:    confScore,
		Emergency:     detection,
		Emotion:       emotionAnalysis,
		WebSearchUsed: webUsed,
		LatencyMS:     latency,
	}

	e.recordSessionTurn(ctx, req, detection, emotionAnalysis)
	resp.EmergencyTrend, resp.EmotionTrend = e.sessionTrends(ctx, req.SessionID)

	e.persist(resp, req.SessionID, len(results))
	e.observe(resp, degraded, startTime)

	if e.cache != nil && !detection.IsEmergency {
		cacheKey := hashQuery(req.Query, req.Category)
		if err := e.cache.SetQuery(ctx, cacheKey, cacheableCopy(resp), e.cacheTTL); err != nil {
			logger.Warn("Failed to cache response", zap.Error(err))
		}
	}

	logger.Info("Query processed successfully",
		zap.String("query_id", queryID),
		zap.Float64("confidence", confScore.Score),
		zap.String("emergency_level", detection.Level),
		zap.Int("latency_ms", latency),
	)

	return resp, nil
}

// retrieve runs the hybrid search, degrading to the keyword index when
// the embedding backend is unavailable.
func (e *Engine) retrieve(ctx context.Context, req QueryRequest, topK int) ([]retrieval.SearchResult, bool) {
	var results []retrieval.SearchResult
	var err error

	if req.Category != "" {
		results, err = e.retriever.SearchByCategory(ctx, req.Query, req.Category, topK)
	} else {
		results, err = e.retriever.Search(ctx, req.Query, topK, hybrid.DefaultOptions())
	}

	if err == nil {
		return results, false
	}

	if errors.Is(err, retrieval.ErrEmbedding) {
		logger.Warn("Embedding unavailable, falling back to keyword search", zap.Error(err))
		results, kwErr := e.retriever.SearchKeywordOnly(req.Query, topK, true)
		if kwErr != nil {
			logger.Error("Keyword fallback failed", zap.Error(kwErr))
			return nil, true
		}
		return results, true
	}

	logger.Error("Retrieval failed", zap.Error(err))
	return nil, false
}

func (e *Engine) retrieveFromKG(ctx context.Context, medicalEntities map[string][]string) []neo4j.Triple {
	if e.kgClient == nil {
		return nil
	}

	names := entities.Flatten(medicalEntities)
	if len(names) == 0 {
		return nil
	}

	triples, err := e.kgClient.SearchByEntities(ctx, names, 0.6)
	if err != nil {
		logger.Warn("KG retrieval failed", zap.Error(err))
		return nil
	}

	return triples
}

func (e *Engine) scoreConfidence(queryText, responseText string, results []retrieval.SearchResult,
	medicalEntities map[string][]string, detection emergency.Detection) *confidence.Score {

	if detection.IsEmergency {
		return e.confScorer.CalculateEmergency(queryText, responseText)
	}

	scores := make([]float64, len(results))
	sources := make([]retrieval.Document, len(results))
	for i, r := range results {
		scores[i] = r.Score
		sources[i] = retrieval.Document{
			Content:  r.Content,
			Metadata: r.Metadata,
			Source:   r.Source,
		}
	}

	score, err := e.confScorer.Calculate(scores, responseText, queryText, sources, medicalEntities)
	if err != nil {
		logger.Warn("Confidence scoring failed", zap.Error(err))
		return &confidence.Score{Score: 0, Level: "low", Factors: map[string]float64{}}
	}
	return score
}

func (e *Engine) recordSessionTurn(ctx context.Context, req QueryRequest,
	detection emergency.Detection, emotionAnalysis emotion.Analysis) {

	if e.cache == nil || req.SessionID == "" {
		return
	}

	entry := sessionEntry{
		Query:          req.Query,
		EmergencyLevel: detection.Level,
		PrimaryEmotion: emotionAnalysis.PrimaryEmotion,
		Timestamp:      time.Now(),
	}
	if err := e.cache.AppendSessionEntry(ctx, req.SessionID, entry, e.trendWindow, e.sessionTTL); err != nil {
		logger.Warn("Failed to record session turn", zap.Error(err))
	}
}

// sessionTrends replays the session's recent queries through the
// analyzers to classify escalation and emotional direction.
func (e *Engine) sessionTrends(ctx context.Context, sessionID string) (*emergency.TrendReport, *emotion.TrendReport) {
	if e.cache == nil || sessionID == "" {
		return nil, nil
	}

	var entries []sessionEntry
	if err := e.cache.GetSessionHistory(ctx, sessionID, &entries); err != nil {
		logger.Warn("Failed to load session history", zap.Error(err))
		return nil, nil
	}

	texts := make([]string, len(entries))
	for i, entry := range entries {
		texts[i] = entry.Query
	}

	return e.detector.AnalyzeTrends(texts), e.emotionAnalyzer.AnalyzeTrends(texts)
}

func (e *Engine) persist(resp *QueryResponse, sessionID string, retrievalCount int) {
	record := &models.QueryRecord{
		ID:                 resp.ID,
		SessionID:          sessionID,
		QueryText:          resp.Query,
		Response:           resp.Response,
		Confidence:         resp.Confidence.Score,
		ConfidenceLevel:    resp.Confidence.Level,
		EmergencyLevel:     resp.Emergency.Level,
		UrgencyScore:       resp.Emergency.UrgencyScore,
		PrimaryEmotion:     resp.Emotion.PrimaryEmotion,
		EmotionalIntensity: resp.Emotion.Intensity,
		RetrievalCount:     retrievalCount,
		WebSearchUsed:      resp.WebSearchUsed,
		LatencyMS:          resp.LatencyMS,
		CreatedAt:          time.Now(),
	}

	if err := e.db.InsertQueryRecord(record); err != nil {
		logger.Error("Failed to persist query record", zap.Error(err))
		return
	}

	for _, source := range resp.Sources {
		e.db.InsertQuerySource(&models.QuerySource{
			QueryID:    resp.ID,
			SourceType: source.Type,
			SourceURL:  source.URL,
			ChunkID:    source.ChunkID,
			Confidence: source.Confidence,
		})
	}
}

func (e *Engine) observe(resp *QueryResponse, degraded bool, startTime time.Time) {
	queryType := "hybrid"
	if degraded {
		queryType = "keyword_fallback"
	}
	if resp.Emergency.IsEmergency {
		queryType = "emergency"
	}

	metrics.QueryDuration.WithLabelValues(queryType).Observe(time.Since(startTime).Seconds())
	metrics.QueryTotal.WithLabelValues("success").Inc()
	metrics.ConfidenceScore.WithLabelValues().Observe(resp.Confidence.Score)
	metrics.EmergencyDetections.WithLabelValues(resp.Emergency.Level).Inc()
	metrics.EmotionDetections.WithLabelValues(resp.Emotion.PrimaryEmotion).Inc()
	metrics.RetrievalResultsCount.Observe(float64(len(resp.Sources)))
}

func formatContext(results []retrieval.SearchResult, kgResults []neo4j.Triple) string {
	var b strings.Builder

	if len(kgResults) > 0 {
		b.WriteString("Known medical relationships:\n")
		for i, triple := range kgResults {
			if i >= 5 {
				break
			}
			b.WriteString(fmt.Sprintf("- %s %s %s (confidence: %.2f)\n",
				triple.Subject.Name,
				triple.Predicate,
				triple.Object.Name,
				triple.Confidence,
			))
		}
	}

	if len(results) == 0 {
		b.WriteString("\nNo reference material found.\n")
		return b.String()
	}

	b.WriteString("\nReference material:\n")
	for i, result := range results {
		if i >= 5 {
			break
		}
		b.WriteString(fmt.Sprintf("\n[%s]\n%s\n",
			result.Source,
			result.Content[:min(len(result.Content), 500)],
		))
	}

	return b.String()
}

func collectSources(results []retrieval.SearchResult, kgResults []neo4j.Triple) []Source {
	sources := make([]Source, 0, len(results))

	for _, result := range results {
		chunkID, _ := result.Metadata["doc_id"].(string)
		sources = append(sources, Source{
			Type:       "retrieval",
			URL:        result.Source,
			ChunkID:    chunkID,
			Confidence: result.Score,
		})
	}

	for _, triple := range kgResults {
		for _, url := range triple.SourceURLs {
			sources = append(sources, Source{
				Type:       "kg",
				URL:        url,
				Confidence: triple.Confidence,
			})
		}
	}

	return sources
}

func averageScore(results []retrieval.SearchResult) float64 {
	if len(results) == 0 {
		return 0
	}
	total := 0.0
	for _, r := range results {
		total += r.Score
	}
	return total / float64(len(results))
}

// cacheableCopy strips session-scoped state so a cached response can be
// shared across sessions. Trend reports are recomputed per session on a
// cache hit.
func cacheableCopy(resp *QueryResponse) *QueryResponse {
	shared := *resp
	shared.EmergencyTrend = nil
	shared.EmotionTrend = nil
	shared.Cached = false
	return &shared
}

func hashQuery(query, category string) string {
	return utils.HashString(strings.ToLower(strings.TrimSpace(query)) + "|" + category)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
