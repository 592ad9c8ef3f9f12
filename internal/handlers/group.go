package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"match-service/internal/middleware"
	"match-service/internal/services"
	"match-service/internal/telemetry"
)

// GroupHandler manages the caller's group profile.
type GroupHandler struct {
	groups *services.GroupService
	audit  *telemetry.AuditEmitter
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(groups *services.GroupService, audit *telemetry.AuditEmitter) *GroupHandler {
	return &GroupHandler{groups: groups, audit: audit}
}

// CreateGroup handles POST /api/groups.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Bio      string `json:"bio"`
		PhotoURL string `json:"photo_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		emitAudit(c, h.audit, telemetry.AuditError, "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.groups.CreateGroup(c.Request.Context(), c.GetString(middleware.UserIDKey), req.Name, req.Bio, req.PhotoURL)
	if err != nil {
		writeError(c, h.audit, err)
		return
	}

	c.Set(middleware.GroupIDKey, group.ID)
	emitAudit(c, h.audit, telemetry.AuditInfo, "Group created")
	c.JSON(http.StatusCreated, group)
}

// GetMyGroup handles GET /api/groups/me.
func (h *GroupHandler) GetMyGroup(c *gin.Context) {
	group, err := h.groups.GetGroup(c.Request.Context(), groupIDFromContext(c))
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, group)
}
