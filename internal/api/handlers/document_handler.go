package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/medq/backend/internal/ingestion"
	"github.com/medq/backend/internal/metrics"
	"github.com/medq/backend/internal/storage/sqlite"
	"github.com/medq/backend/pkg/logger"
)

type DocumentHandler struct {
	processor *ingestion.Processor
	db        *sqlite.Client
}

func NewDocumentHandler(processor *ingestion.Processor, db *sqlite.Client) *DocumentHandler {
	return &DocumentHandler{
		processor: processor,
		db:        db,
	}
}

func (h *DocumentHandler) UploadDocument(c *fiber.Ctx) error {
	var req struct {
		Source      string `json:"source"`
		HTMLContent string `json:"html_content"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Source == "" || req.HTMLContent == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Source and HTML content are required",
		})
	}

	err := h.processor.ProcessDocument(c.Context(), req.Source, req.HTMLContent)
	if err != nil {
		logger.Error("Failed to process document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process document",
		})
	}

	metrics.DocumentsProcessed.Inc()

	return c.JSON(fiber.Map{
		"message": "Document processed successfully",
		"source":  req.Source,
	})
}

func (h *DocumentHandler) ListDocuments(c *fiber.Ctx) error {
	category := c.Query("category")
	limit := c.QueryInt("limit", 50)

	docs, err := h.db.ListDocuments(category, limit)
	if err != nil {
		logger.Error("Failed to list documents", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list documents",
		})
	}

	out := make([]fiber.Map, 0, len(docs))
	for _, d := range docs {
		out = append(out, fiber.Map{
			"id":          d.ID,
			"source":      d.Source,
			"title":       d.Title,
			"category":    d.Category,
			"source_type": d.SourceType,
			"summary":     d.Summary,
			"updated_at":  d.UpdatedAt,
		})
	}

	return c.JSON(fiber.Map{
		"documents": out,
	})
}
