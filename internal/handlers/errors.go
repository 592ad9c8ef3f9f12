package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"match-service/internal/services"
	"match-service/internal/telemetry"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrStorage):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError maps a service error onto the response and records it in the audit trail.
func writeError(c *gin.Context, audit *telemetry.AuditEmitter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("request failed method=%s path=%s status=%d err=%v", c.Request.Method, c.FullPath(), status, err)
	}
	emitAudit(c, audit, telemetry.AuditError, services.PublicMessage(err))
	c.JSON(status, gin.H{"error": services.PublicMessage(err)})
}

func emitAudit(c *gin.Context, audit *telemetry.AuditEmitter, level, text string) {
	if audit == nil {
		return
	}
	audit.Emit(c.Request.Context(), auditEntry(c, level, text))
}
