package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"match-service/internal/services"
	"match-service/internal/telemetry"
)

// FeedHandler serves the candidate feed and swipe actions.
type FeedHandler struct {
	feed  *services.FeedService
	swipe *services.SwipeService
	audit *telemetry.AuditEmitter
}

// NewFeedHandler constructs a FeedHandler.
func NewFeedHandler(feed *services.FeedService, swipe *services.SwipeService, audit *telemetry.AuditEmitter) *FeedHandler {
	return &FeedHandler{feed: feed, swipe: swipe, audit: audit}
}

type swipeRequest struct {
	CandidateID string `json:"candidate_id" binding:"required"`
}

// GetFeed handles GET /api/feed?cursor=.
func (h *FeedHandler) GetFeed(c *gin.Context) {
	page, err := h.feed.Page(c.Request.Context(), groupIDFromContext(c), c.Query("cursor"))
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListCandidates handles GET /api/feed/candidates.
func (h *FeedHandler) ListCandidates(c *gin.Context) {
	candidates, err := h.feed.ListCandidates(c.Request.Context(), groupIDFromContext(c))
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": candidates})
}

// Like handles POST /api/feed/like.
func (h *FeedHandler) Like(c *gin.Context) {
	var req swipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		emitAudit(c, h.audit, telemetry.AuditError, "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.swipe.Like(c.Request.Context(), groupIDFromContext(c), req.CandidateID)
	if err != nil {
		writeError(c, h.audit, err)
		return
	}

	if result.Match != nil {
		emitAudit(c, h.audit, telemetry.AuditInfo, "Match confirmed")
	} else {
		emitAudit(c, h.audit, telemetry.AuditInfo, "Like recorded")
	}
	c.JSON(http.StatusOK, result)
}

// Pass handles POST /api/feed/pass.
func (h *FeedHandler) Pass(c *gin.Context) {
	var req swipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cursor, err := h.swipe.Pass(c.Request.Context(), groupIDFromContext(c), req.CandidateID)
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cursor": cursor})
}
