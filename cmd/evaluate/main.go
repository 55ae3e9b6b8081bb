package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/medq/backend/internal/evaluation"
	"github.com/medq/backend/internal/llm"
	"github.com/medq/backend/internal/storage/sqlite"
	"github.com/medq/backend/pkg/config"
	appLogger "github.com/medq/backend/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: evaluate <dataset.json>")
		os.Exit(1)
	}

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

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.EmbeddingModel,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
	)

	evaluator := evaluation.NewEvaluator(sqliteClient, llmClient)

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		appLogger.Fatal("Failed to read dataset file", zap.Error(err))
	}

	dataset, err := evaluator.LoadDatasetFromJSON(string(data))
	if err != nil {
		appLogger.Fatal("Failed to parse dataset", zap.Error(err))
	}

	report, err := evaluator.RunDatasetEvaluation(context.Background(), dataset)
	if err != nil {
		appLogger.Fatal("Evaluation failed", zap.Error(err))
	}

	fmt.Println(evaluator.GenerateReport(report))
}
