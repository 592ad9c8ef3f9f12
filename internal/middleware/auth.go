package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"match-service/internal/models"
)

const (
	UserIDKey  = "userID"
	GroupIDKey = "groupID"
)

// TokenValidator verifies a bearer token and returns the user id it was issued to.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (string, error)
}

// UserResolver loads the caller's local record, creating it on first sight.
type UserResolver interface {
	EnsureUser(ctx context.Context, userID string) (models.User, error)
}

// AuthMiddleware validates the Authorization header and resolves the caller's group.
func AuthMiddleware(tokens TokenValidator, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		userID, err := tokens.ValidateToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		user, err := users.EnsureUser(c.Request.Context(), userID)
		if err != nil {
			log.Printf("resolve user failed user_id=%s err=%v", userID, err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
			return
		}

		c.Set(UserIDKey, userID)
		if user.HasGroup() {
			c.Set(GroupIDKey, *user.GroupID)
		}
		c.Next()
	}
}

// RequireGroup rejects callers that do not administer a group yet.
func RequireGroup() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(GroupIDKey) == "" {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "group required"})
			return
		}
		c.Next()
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
