package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/medq/backend/internal/metrics"
	"github.com/medq/backend/internal/query"
	"github.com/medq/backend/internal/storage/models"
	"github.com/medq/backend/internal/storage/sqlite"
	"github.com/medq/backend/pkg/logger"
)

type QueryHandler struct {
	queryEngine *query.Engine
	db          *sqlite.Client
}

func NewQueryHandler(queryEngine *query.Engine, db *sqlite.Client) *QueryHandler {
	return &QueryHandler{
		queryEngine: queryEngine,
		db:          db,
	}
}

func (h *QueryHandler) HandleQuery(c *fiber.Ctx) error {
	var req struct {
		Query     string `json:"query"`
		SessionID string `json:"session_id"`
		Category  string `json:"category"`
		TopK      int    `json:"top_k"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query is required",
		})
	}

	queryReq := query.QueryRequest{
		Query:     req.Query,
		SessionID: req.SessionID,
		Category:  req.Category,
		TopK:      req.TopK,
	}

	response, err := h.queryEngine.ProcessQuery(c.Context(), queryReq)
	if err != nil {
		logger.Error("Failed to process query", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process query",
		})
	}

	return c.JSON(response)
}

func (h *QueryHandler) GetQueryHistory(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "session_id is required",
		})
	}

	limit := c.QueryInt("limit", 20)

	records, err := h.db.GetQueryHistory(sessionID, limit)
	if err != nil {
		logger.Error("Failed to get query history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get query history",
		})
	}

	history := make([]fiber.Map, 0, len(records))
	for _, r := range records {
		history = append(history, fiber.Map{
			"id":                  r.ID,
			"query":               r.QueryText,
			"response":            r.Response,
			"confidence":          r.Confidence,
			"confidence_level":    r.ConfidenceLevel,
			"emergency_level":     r.EmergencyLevel,
			"primary_emotion":     r.PrimaryEmotion,
			"emotional_intensity": r.EmotionalIntensity,
			"created_at":          r.CreatedAt,
		})
	}

	return c.JSON(fiber.Map{
		"session_id": sessionID,
		"history":    history,
	})
}

func (h *QueryHandler) SubmitFeedback(c *fiber.Ctx) error {
	var req struct {
		QueryID       string `json:"query_id"`
		Helpful       bool   `json:"helpful"`
		IssueCategory string `json:"issue_category"`
		Comment       string `json:"comment"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.QueryID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "query_id is required",
		})
	}

	err := h.db.StoreFeedback(&models.Feedback{
		QueryID:       req.QueryID,
		Helpful:       req.Helpful,
		IssueCategory: req.IssueCategory,
		Comment:       req.Comment,
	})
	if err != nil {
		logger.Error("Failed to store feedback", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store feedback",
		})
	}

	helpfulLabel := "no"
	if req.Helpful {
		helpfulLabel = "yes"
	}
	metrics.UserSatisfaction.WithLabelValues(helpfulLabel).Inc()

	return c.JSON(fiber.Map{
		"message": "Feedback recorded",
	})
}
