package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"match-service/internal/services"
	"match-service/internal/telemetry"
)

// MatchHandler serves matches and their conversations.
type MatchHandler struct {
	registry     *services.MatchRegistry
	conversation *services.ConversationService
	audit        *telemetry.AuditEmitter
}

// NewMatchHandler constructs a MatchHandler.
func NewMatchHandler(registry *services.MatchRegistry, conversation *services.ConversationService, audit *telemetry.AuditEmitter) *MatchHandler {
	return &MatchHandler{registry: registry, conversation: conversation, audit: audit}
}

// ListMatches handles GET /api/matches.
func (h *MatchHandler) ListMatches(c *gin.Context) {
	matches, err := h.registry.ListMatches(c.Request.Context(), groupIDFromContext(c))
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

// ListMessages handles GET /api/matches/:match_id/messages.
func (h *MatchHandler) ListMessages(c *gin.Context) {
	matchID := c.Param("match_id")
	msgs, err := h.conversation.ListMessages(c.Request.Context(), matchID, groupIDFromContext(c))
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostMessage handles POST /api/matches/:match_id/messages.
func (h *MatchHandler) PostMessage(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		emitAudit(c, h.audit, telemetry.AuditError, "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.conversation.PostMessage(c.Request.Context(), c.Param("match_id"), groupIDFromContext(c), req.Text)
	if err != nil {
		writeError(c, h.audit, err)
		return
	}

	emitAudit(c, h.audit, telemetry.AuditInfo, "Match message sent")
	c.JSON(http.StatusCreated, msg)
}
