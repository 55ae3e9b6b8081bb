package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/medq/backend/internal/retrieval/hybrid"
	"github.com/medq/backend/pkg/logger"
)

// SearchHandler exposes the retrieval layer directly, without LLM
// generation. Used by the console and for relevance debugging.
type SearchHandler struct {
	retriever *hybrid.Retriever
}

func NewSearchHandler(retriever *hybrid.Retriever) *SearchHandler {
	return &SearchHandler{
		retriever: retriever,
	}
}

func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	var req struct {
		Query    string                 `json:"query"`
		Category string                 `json:"category"`
		Filters  map[string]interface{} `json:"filters"`
		TopK     int                    `json:"top_k"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query is required",
		})
	}

	topK := req.TopK
	if topK <= 0 {
		topK = 5
	}

	var err error
	results := []interface{}{}
	switch {
	case req.Category != "":
		res, searchErr := h.retriever.SearchByCategory(c.Context(), req.Query, req.Category, topK)
		err = searchErr
		for _, r := range res {
			results = append(results, r)
		}
	case len(req.Filters) > 0:
		res, searchErr := h.retriever.SearchWithFilters(c.Context(), req.Query, req.Filters, topK)
		err = searchErr
		for _, r := range res {
			results = append(results, r)
		}
	default:
		res, searchErr := h.retriever.Search(c.Context(), req.Query, topK, hybrid.DefaultOptions())
		err = searchErr
		for _, r := range res {
			results = append(results, r)
		}
	}

	if err != nil {
		logger.Error("Search failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Search failed",
		})
	}

	return c.JSON(fiber.Map{
		"query":   req.Query,
		"results": results,
	})
}

func (h *SearchHandler) HandleExplain(c *fiber.Ctx) error {
	var req struct {
		Query string `json:"query"`
		TopK  int    `json:"top_k"`
	}

	if err := c.BodyParser(&req); err != nil || req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query is required",
		})
	}

	topK := req.TopK
	if topK <= 0 {
		topK = 5
	}

	explanation, err := h.retriever.Explain(c.Context(), req.Query, topK)
	if err != nil {
		logger.Error("Explain failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Explain failed",
		})
	}

	return c.JSON(explanation)
}

func (h *SearchHandler) UpdateWeights(c *fiber.Ctx) error {
	var req struct {
		SemanticWeight float64 `json:"semantic_weight"`
		KeywordWeight  float64 `json:"keyword_weight"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.retriever.UpdateWeights(req.SemanticWeight, req.KeywordWeight); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	semantic, keyword, boost := h.retriever.Weights()
	return c.JSON(fiber.Map{
		"semantic_weight": semantic,
		"keyword_weight":  keyword,
		"medical_boost":   boost,
	})
}
