package handlers

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/medq/backend/internal/query"
	"github.com/medq/backend/pkg/logger"
)

type WebSocketHandler struct {
	queryEngine *query.Engine
}

func NewWebSocketHandler(queryEngine *query.Engine) *WebSocketHandler {
	return &WebSocketHandler{
		queryEngine: queryEngine,
	}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Type      string `json:"type"`
			Content   string `json:"content"`
			SessionID string `json:"session_id"`
			Category  string `json:"category"`
		}

		err := c.ReadJSON(&msg)
		if err != nil {
			logger.Error("Failed to read WebSocket message", zap.Error(err))
			break
		}

		if msg.Type != "query" {
			continue
		}

		logger.Info("Processing WebSocket query",
			zap.String("session_id", msg.SessionID),
			zap.String("query", msg.Content),
		)

		err = h.streamResponse(c, msg.Content, msg.SessionID, msg.Category)
		if err != nil {
			logger.Error("Failed to stream response", zap.Error(err))
			h.sendError(c, "Failed to process query")
		}
	}
}

func (h *WebSocketHandler) streamResponse(c *websocket.Conn, queryText, sessionID, category string) error {
	ctx := context.Background()

	req := query.QueryRequest{
		Query:     queryText,
		SessionID: sessionID,
		Category:  category,
	}

	h.sendChunk(c, "status", "Processing query...")

	response, err := h.queryEngine.ProcessQuery(ctx, req)
	if err != nil {
		return err
	}

	// emergencies are pushed before the streamed answer so the client
	// can surface the banner immediately
	if response.Emergency.IsEmergency {
		err = c.WriteJSON(map[string]interface{}{
			"type":                "emergency",
			"level":               response.Emergency.Level,
			"recommended_actions": response.Emergency.RecommendedActions,
			"urgency_score":       response.Emergency.UrgencyScore,
		})
		if err != nil {
			return err
		}
	}

	words := splitIntoWords(response.Response)
	for i, word := range words {
		chunk := word
		if i < len(words)-1 {
			chunk += " "
		}

		err := h.sendChunk(c, "chunk", chunk)
		if err != nil {
			return err
		}
	}

	err = h.sendComplete(c, response)
	if err != nil {
		return err
	}

	return nil
}

func (h *WebSocketHandler) sendChunk(c *websocket.Conn, msgType, content string) error {
	msg := map[string]interface{}{
		"type":    msgType,
		"content": content,
	}

	return c.WriteJSON(msg)
}

func (h *WebSocketHandler) sendComplete(c *websocket.Conn, response *query.QueryResponse) error {
	msg := map[string]interface{}{
		"type":            "complete",
		"message_id":      response.ID,
		"sources":         response.Sources,
		"confidence":      response.Confidence,
		"emergency":       response.Emergency,
		"emotion":         response.Emotion,
		"emergency_trend": response.EmergencyTrend,
		"emotion_trend":   response.EmotionTrend,
		"latency_ms":      response.LatencyMS,
	}

	return c.WriteJSON(msg)
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	msg := map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	}

	c.WriteJSON(msg)
}

func splitIntoWords(text string) []string {
	words := []string{}
	currentWord := ""

	for _, char := range text {
		if char == ' ' || char == '\n' {
			if currentWord != "" {
				words = append(words, currentWord)
				currentWord = ""
			}
			if char == '\n' {
				words = append(words, "\n")
			}
		} else {
			currentWord += string(char)
		}
	}

	if currentWord != "" {
		words = append(words, currentWord)
	}

	return words
}
