package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/medq/backend/internal/api/handlers"
	"github.com/medq/backend/internal/cache/redis"
	"github.com/medq/backend/internal/entities"
	"github.com/medq/backend/internal/ingestion"
	"github.com/medq/backend/internal/kg/builder"
	"github.com/medq/backend/internal/kg/neo4j"
	"github.com/medq/backend/internal/llm"
	"github.com/medq/backend/internal/metrics"
	"github.com/medq/backend/internal/middleware/ratelimit"
	"github.com/medq/backend/internal/middleware/security"
	"github.com/medq/backend/internal/middleware/validation"
	"github.com/medq/backend/internal/query"
	"github.com/medq/backend/internal/retrieval/hybrid"
	"github.com/medq/backend/internal/search/web"
	"github.com/medq/backend/internal/storage/sqlite"
	"github.com/medq/backend/internal/vector/milvus"
	"github.com/medq/backend/pkg/config"
	appLogger "github.com/medq/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting medical Q&A API server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	redisClient, err := redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		appLogger.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()

	neo4jClient, err := neo4j.NewClient(
		cfg.Neo4j.URI,
		cfg.Neo4j.Username,
		cfg.Neo4j.Password,
		cfg.Neo4j.Database,
	)
	if err != nil {
		appLogger.Fatal("Failed to create Neo4j client", zap.Error(err))
	}
	defer neo4jClient.Close(context.Background())

	milvusClient, err := milvus.NewClient(
		cfg.Milvus.Endpoint,
		cfg.Milvus.APIKey,
		cfg.Milvus.CollectionName,
		cfg.Milvus.VectorDim,
	)
	if err != nil {
		appLogger.Fatal("Failed to create Milvus client", zap.Error(err))
	}
	defer milvusClient.Close()

	err = milvusClient.CreateCollection(context.Background())
	if err != nil {
		appLogger.Fatal("Failed to create collection", zap.Error(err))
	}

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.EmbeddingModel,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
	)

	retriever := hybrid.New(
		llmClient,
		cfg.Retrieval.SemanticWeight,
		cfg.Retrieval.KeywordWeight,
		cfg.Retrieval.MedicalBoost,
	)

	extractor := entities.NewExtractor()

	kgBuilder := builder.NewBuilder(sqliteClient, neo4jClient, extractor)
	err = kgBuilder.InitializeSeedConcepts()
	if err != nil {
		appLogger.Warn("Failed to initialize seed concepts", zap.Error(err))
	}

	processor := ingestion.NewProcessor(sqliteClient, milvusClient, llmClient, retriever, kgBuilder)

	if cfg.Ingestion.CorpusPath != "" {
		count, err := processor.LoadCorpus(context.Background(), cfg.Ingestion.CorpusPath)
		if err != nil {
			appLogger.Warn("Failed to load corpus", zap.Error(err))
		} else {
			appLogger.Info("Corpus loaded", zap.Int("documents", count))
		}
	}

	var webClient *web.Client
	if cfg.Search.Enabled {
		webClient = web.NewClient(cfg.Search.APIKey, llmClient)
	}

	queryEngine := query.NewEngine(
		sqliteClient,
		redisClient,
		neo4jClient,
		retriever,
		llmClient,
		webClient,
		extractor,
		cfg.Retrieval.TopK,
		cfg.Analysis.SessionTrendWindow,
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	rateLimiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: 60,
		Logger:               appLogger.GetLogger(),
	})
	defer rateLimiter.Stop()

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		IsDevelopment: cfg.Logging.Level == "debug",
	}))
	app.Use(rateLimiter.Middleware())
	app.Use(validation.Middleware(validation.Config{
		Logger: appLogger.GetLogger(),
	}))

	queryHandler := handlers.NewQueryHandler(queryEngine, sqliteClient)
	documentHandler := handlers.NewDocumentHandler(processor, sqliteClient)
	searchHandler := handlers.NewSearchHandler(retriever)
	analysisHandler := handlers.NewAnalysisHandler()
	wsHandler := handlers.NewWebSocketHandler(queryEngine)

	api := app.Group("/api/v1")

	api.Post("/query", queryHandler.HandleQuery)
	api.Get("/query/history", queryHandler.GetQueryHistory)
	api.Post("/feedback", queryHandler.SubmitFeedback)

	api.Post("/documents", documentHandler.UploadDocument)
	api.Get("/documents", documentHandler.ListDocuments)

	api.Post("/search", searchHandler.HandleSearch)
	api.Post("/search/explain", searchHandler.HandleExplain)
	api.Put("/search/weights", searchHandler.UpdateWeights)

	api.Post("/analysis/emergency", analysisHandler.HandleEmergencyCheck)
	api.Post("/analysis/emotion", analysisHandler.HandleEmotionAnalysis)
	api.Post("/analysis/emergency/trends", analysisHandler.HandleEmergencyTrends)
	api.Post("/analysis/emotion/trends", analysisHandler.HandleEmotionTrends)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/query", websocket.New(wsHandler.HandleConnection))

	app.Get("/metrics", metrics.MetricsHandler())

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
