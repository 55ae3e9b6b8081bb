package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/medq/backend/internal/analysis/emergency"
	"github.com/medq/backend/internal/analysis/emotion"
)

// AnalysisHandler exposes the emergency and emotion analyzers directly
// for triage tooling, without running the full answer pipeline.
type AnalysisHandler struct {
	detector *emergency.Detector
	analyzer *emotion.Analyzer
}

func NewAnalysisHandler() *AnalysisHandler {
	return &AnalysisHandler{
		detector: emergency.NewDetector(),
		analyzer: emotion.NewAnalyzer(),
	}
}

func (h *AnalysisHandler) HandleEmergencyCheck(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}

	if err := c.BodyParser(&req); err != nil || req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Text is required",
		})
	}

	detection := h.detector.Detect(req.Text)
	return c.JSON(h.detector.Summarize(detection))
}

func (h *AnalysisHandler) HandleEmotionAnalysis(c *fiber.Ctx) error {
	var req struct {
		Text    string `json:"text"`
		Context string `json:"context"`
	}

	if err := c.BodyParser(&req); err != nil || req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Text is required",
		})
	}

	analysis := h.analyzer.Analyze(req.Text, req.Context)
	return c.JSON(h.analyzer.Summarize(analysis))
}

func (h *AnalysisHandler) HandleEmergencyTrends(c *fiber.Ctx) error {
	var req struct {
		Texts []string `json:"texts"`
	}

	if err := c.BodyParser(&req); err != nil || len(req.Texts) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Texts are required",
		})
	}

	report := h.detector.AnalyzeTrends(req.Texts)
	return c.JSON(report)
}

func (h *AnalysisHandler) HandleEmotionTrends(c *fiber.Ctx) error {
	var req struct {
		Texts []string `json:"texts"`
	}

	if err := c.BodyParser(&req); err != nil || len(req.Texts) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Texts are required",
		})
	}

	report := h.analyzer.AnalyzeTrends(req.Texts)
	return c.JSON(report)
}
