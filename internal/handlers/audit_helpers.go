package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"match-service/internal/middleware"
	"match-service/internal/observability"
	"match-service/internal/telemetry"
)

const requestIDContextKey = "request_id"

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := observability.RequestIDFromContext(c.Request.Context())
	if requestID == "" {
		requestID = c.GetHeader("X-Request-ID")
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

// auditEntry describes the caller and the match being acted on, when there is one.
func auditEntry(c *gin.Context, level, text string) telemetry.AuditEntry {
	return telemetry.AuditEntry{
		Level:     level,
		Text:      text,
		RequestID: requestIDFromContext(c),
		UserID:    c.GetString(middleware.UserIDKey),
		GroupID:   groupIDFromContext(c),
		MatchID:   c.Param("match_id"),
	}
}

func groupIDFromContext(c *gin.Context) string {
	return c.GetString(middleware.GroupIDKey)
}
