package ws

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"match-service/internal/idgen"
	"match-service/internal/middleware"
	"match-service/internal/observability"
	"match-service/internal/services"
)

// MatchWebSocketHandler streams new messages of a match to its parties.
type MatchWebSocketHandler struct {
	hub      *Hub
	registry *services.MatchRegistry
	tokens   middleware.TokenValidator
	users    middleware.UserResolver
	upgrader websocket.Upgrader
}

// NewMatchWebSocketHandler constructs a MatchWebSocketHandler. checkOrigin may be nil
// to accept every origin.
func NewMatchWebSocketHandler(hub *Hub, registry *services.MatchRegistry, tokens middleware.TokenValidator, users middleware.UserResolver, checkOrigin func(*http.Request) bool) *MatchWebSocketHandler {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &MatchWebSocketHandler{
		hub:      hub,
		registry: registry,
		tokens:   tokens,
		users:    users,
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
	}
}

// Handle authenticates the caller, checks match membership, then upgrades.
func (h *MatchWebSocketHandler) Handle(c *gin.Context) {
	matchID := c.Param("match_id")
	if matchID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match id"})
		return
	}

	ctx, span := otel.Tracer("match-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token, ok := middleware.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		token = c.Query("token")
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
		return
	}
	userID, err := h.tokens.ValidateToken(ctx, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	user, err := h.users.EnsureUser(ctx, userID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
		return
	}
	if !user.HasGroup() {
		c.JSON(http.StatusConflict, gin.H{"error": "group required"})
		return
	}
	groupID := *user.GroupID

	if _, err := h.registry.Authorize(ctx, matchID, groupID); err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": services.PublicMessage(err)})
		case errors.Is(err, services.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for match"})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": services.PublicMessage(err)})
		}
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed match_id=%s err=%v", matchID, err)
		return
	}

	info := ConnInfo{
		ConnID:      idgen.NewID(),
		UserID:      userID,
		GroupID:     groupID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(matchID, conn, info)
	observability.IncWSActive(wsKind)
	h.hub.publishWSEvent(ctx, "ws_connect", matchID, info, "")

	// Messages are posted over HTTP; the read loop only detects disconnects.
	// The request context ends with this handler, the connection does not.
	connCtx := context.WithoutCancel(ctx)
	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveClient(matchID, conn)
			observability.DecWSActive(wsKind)
			h.hub.publishWSEvent(connCtx, "ws_disconnect", matchID, info, closeReason)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					h.hub.publishWSEvent(connCtx, "ws_error", matchID, info, closeReason)
				}
				return
			}
		}
	}()
}
