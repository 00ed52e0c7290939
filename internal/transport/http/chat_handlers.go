package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/recipechat-server/internal/core"
)

// ChatHandlers provides REST access to chat history.
type ChatHandlers struct {
	bridge   *core.Bridge
	registry *core.Registry
	log      *zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance.
func NewChatHandlers(bridge *core.Bridge, registry *core.Registry, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{
		bridge:   bridge,
		registry: registry,
		log:      logger,
	}
}

// StatsResponse reports live chat counters.
type StatsResponse struct {
	Connections int `json:"connections"`
}

// History returns the most recent messages, oldest first.
// GET /api/chat/messages?limit=N
func (h *ChatHandlers) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	messages, err := h.bridge.History(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Int("limit", limit).Msg("failed to load history")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, chatMessagesFromCore(messages))
}

// Stats reports how many chat connections are open.
// GET /api/chat/stats
func (h *ChatHandlers) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, StatsResponse{Connections: h.registry.Len()})
}
