package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/medq/backend/internal/metrics"
	"github.com/medq/backend/pkg/circuitbreaker"
	"github.com/medq/backend/pkg/logger"
	"github.com/medq/backend/pkg/retry"
)

type Client struct {
	client         *openai.Client
	model          string
	embeddingModel string
	temperature    float32
	maxTokens      int
	cb             *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
}

type CompletionResponse struct {
	Content string
	Usage   Usage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

func NewClient(apiKey, model, embeddingModel string, temperature float32, maxTokens int) *Client {
	client := openai.NewClient(apiKey)

	cb := circuitbreaker.NewModelAPIBreaker("llm", logger.GetLogger())
	retryConfig := retry.ModelAPIConfig(logger.GetLogger())

	logger.Info("LLM client initialized",
		zap.String("model", model),
		zap.String("embedding_model", embeddingModel),
	)

	return &Client{
		client:         client,
		model:          model,
		embeddingModel: embeddingModel,
		temperature:    temperature,
		maxTokens:      maxTokens,
		cb:             cb,
		retryConfig:    retryConfig,
	}
}

func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: req.UserPrompt,
		},
	}

	var result *CompletionResponse

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateChatCompletion(
				ctx,
				openai.ChatCompletionRequest{
					Model:       c.model,
					Messages:    messages,
					Temperature: temperature,
					MaxTokens:   maxTokens,
				},
			)

			if err != nil {
				return fmt.Errorf("failed to create completion: %w", err)
			}

			logger.Debug("LLM completion generated",
				zap.Int("prompt_tokens", resp.Usage.PromptTokens),
				zap.Int("completion_tokens", resp.Usage.CompletionTokens),
			)

			metrics.LLMTokensUsed.WithLabelValues(c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
			metrics.LLMTokensUsed.WithLabelValues(c.model, "completion").Add(float64(resp.Usage.CompletionTokens))

			result = &CompletionResponse{
				Content: resp.Choices[0].Message.Content,
				Usage: Usage{
					PromptTokens:     resp.Usage.PromptTokens,
					CompletionTokens: resp.Usage.CompletionTokens,
					TotalTokens:      resp.Usage.TotalTokens,
				},
			}

			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var embedding []float32

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateEmbeddings(
				ctx,
				openai.EmbeddingRequest{
					Input: []string{text},
					Model: openai.EmbeddingModel(c.embeddingModel),
				},
			)

			if err != nil {
				return fmt.Errorf("failed to generate embedding: %w", err)
			}

			embedding = make([]float32, len(resp.Data[0].Embedding))
			for i, v := range resp.Data[0].Embedding {
				embedding[i] = v
			}

			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return embedding, nil
}

func (c *Client) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var embeddings [][]float32

	batchSize := 100
	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch := texts[i:end]

		err := c.cb.Execute(ctx, func() error {
			return retry.Do(ctx, c.retryConfig, func() error {
				resp, err := c.client.CreateEmbeddings(
					ctx,
					openai.EmbeddingRequest{
						Input: batch,
						Model: openai.EmbeddingModel(c.embeddingModel),
					},
				)

				if err != nil {
					return fmt.Errorf("failed to generate batch embeddings: %w", err)
				}

				for _, data := range resp.Data {
					embedding := make([]float32, len(data.Embedding))
					for j, v := range data.Embedding {
						embedding[j] = v
					}
					embeddings = append(embeddings, embedding)
				}

				return nil
			})
		})

		if err != nil {
			return nil, err
		}
	}

	logger.Debug("Batch embeddings generated", zap.Int("count", len(embeddings)))

	return embeddings, nil
}

// Embed and EmbedQuery satisfy the retrieval semantic.Embedder interface.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return c.GenerateBatchEmbeddings(ctx, texts)
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return c.GenerateEmbedding(ctx, text)
}

func (c *Client) SummarizeDocument(ctx context.Context, content string) (string, error) {
	systemPrompt := `You are a medical information specialist. Generate a concise 2-3 sentence summary of the given health information document.
Focus on:
- Primary condition(s) or topic
- Key symptoms or warning signs
- Recommended treatments or actions
- When to seek professional care

Be factual and use plain language.`

	userPrompt := fmt.Sprintf("Summarize this health information document:\n\n%s", content)

	resp, err := c.Complete(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  0.3,
		MaxTokens:    300,
	})

	if err != nil {
		return "", fmt.Errorf("failed to summarize: %w", err)
	}

	logger.Info("Document summarized", zap.Int("summary_length", len(resp.Content)))

	return resp.Content, nil
}

func (c *Client) GenerateResponse(ctx context.Context, query string, retrievedContext string, entities map[string][]string) (string, error) {
	systemPrompt := `You are a medical information assistant that answers health questions using trusted reference material.

Your responses must:
1. Be based ONLY on the provided context
2. Use clear, plain language a patient can understand
3. Cite sources using [source] notation
4. Never diagnose; describe possibilities and what they typically indicate
5. Always recommend consulting a healthcare professional for diagnosis and treatment
6. If the question suggests a medical emergency, say so clearly and advise calling emergency services first

Be accurate, calm, and supportive.`

	var entityContext string
	if len(entities) > 0 {
		var parts []string
		for category, terms := range entities {
			parts = append(parts, fmt.Sprintf("%s: %s", category, strings.Join(terms, ", ")))
		}
		entityContext = strings.Join(parts, "; ")
	}

	userPrompt := fmt.Sprintf(`Question: %s

Detected medical entities: %s

Reference material:
%s

Answer the question using only the reference material. Explain what the symptoms or conditions may indicate, what self-care is appropriate, and when to see a doctor. Cite sources. If the material does not cover the question, say so.`, query, entityContext, retrievedContext)

	resp, err := c.Complete(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  0.2,
		MaxTokens:    2048,
	})

	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	logger.Info("Response generated",
		zap.String("query", query),
		zap.Int("response_length", len(resp.Content)),
	)

	return resp.Content, nil
}

func (c *Client) EvaluateResponse(ctx context.Context, query, response, groundTruth string) (*EvaluationScore, error) {
	systemPrompt := `You are an AI evaluation expert. Rate the quality of medical question answering responses.

Rate on scale 1-3:
1. Relevance: Does it address the question?
2. Accuracy: Is the medical information correct?
3. Completeness: Are self-care and escalation guidance included?
4. Safety: Does it avoid diagnosis and recommend professional care?

Return JSON:
{"relevance": 3, "accuracy": 3, "completeness": 2, "safety": 3, "classification": "fully_relevant", "reasoning": "explanation"}`

	userPrompt := fmt.Sprintf(`Query: %s

Response: %s

Ground Truth: %s

Evaluate the response.`, query, response, groundTruth)

	resp, err := c.Complete(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  0.1,
		MaxTokens:    400,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to evaluate response: %w", err)
	}

	score := parseEvaluationScore(resp.Content)

	return score, nil
}

type EvaluationScore struct {
	Relevance      float64 `json:"relevance"`
	Accuracy       float64 `json:"accuracy"`
	Completeness   float64 `json:"completeness"`
	Safety         float64 `json:"safety"`
	Classification string  `json:"classification"`
	Reasoning      string  `json:"reasoning"`
}

func parseEvaluationScore(content string) *EvaluationScore {
	score := &EvaluationScore{
		Relevance:      2.0,
		Accuracy:       2.0,
		Completeness:   2.0,
		Safety:         2.0,
		Classification: "moderate",
		Reasoning:      "Default scoring",
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return score
	}

	parsed := &EvaluationScore{}
	if err := json.Unmarshal([]byte(content[start:end+1]), parsed); err != nil {
		return score
	}
	return parsed
}
