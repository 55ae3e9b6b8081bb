package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medq_query_duration_seconds",
			Help:    "Query processing duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"query_type"},
	)

	QueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medq_query_total",
			Help: "Total number of queries processed",
		},
		[]string{"status"},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medq_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	UserSatisfaction = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "medq_satisfaction_score",
			Help: "User feedback satisfaction score",
		},
		[]string{"helpful"},
	)

	ConfidenceScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medq_confidence_score",
			Help:    "Response confidence scores",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
		[]string{},
	)

	EmergencyDetections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medq_emergency_detections_total",
			Help: "Queries flagged by emergency level",
		},
		[]string{"level"},
	)

	EmotionDetections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medq_emotion_detections_total",
			Help: "Queries by detected primary emotion",
		},
		[]string{"emotion"},
	)

	KGResultsCount = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "medq_kg_results_count",
			Help:    "Number of KG results per query",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	RetrievalResultsCount = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "medq_retrieval_results_count",
			Help:    "Number of retrieval results per query",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	WebSearchTriggered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "medq_web_search_triggered_total",
			Help: "Total number of web searches triggered",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medq_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medq_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	DocumentsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "medq_documents_processed_total",
			Help: "Total documents processed",
		},
	)

	KGEntitiesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "medq_kg_entities_total",
			Help: "Total entities in knowledge graph",
		},
	)

	KGRelationsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "medq_kg_relations_total",
			Help: "Total relations in knowledge graph",
		},
	)
)

func Init() {
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueryTotal)
	prometheus.MustRegister(LLMTokensUsed)
	prometheus.MustRegister(UserSatisfaction)
	prometheus.MustRegister(ConfidenceScore)
	prometheus.MustRegister(EmergencyDetections)
	prometheus.MustRegister(EmotionDetections)
	prometheus.MustRegister(KGResultsCount)
	prometheus.MustRegister(RetrievalResultsCount)
	prometheus.MustRegister(WebSearchTriggered)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(DocumentsProcessed)
	prometheus.MustRegister(KGEntitiesTotal)
	prometheus.MustRegister(KGRelationsTotal)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
