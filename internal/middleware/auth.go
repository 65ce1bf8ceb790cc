package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"profile-service/internal/auth"
	"profile-service/internal/models"
)

const UserIDKey = "userID"

// Resolver maps a verified subject to the local user, creating it on first
// sight.
type Resolver interface {
	Resolve(ctx context.Context, subject string, picture *string) (*models.User, error)
}

// Auth verifies the bearer token and stores the caller's user id under
// UserIDKey.
func Auth(verifier auth.Verifier, resolver Resolver, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization header"})
			return
		}
		tokenString := strings.TrimSpace(header[7:])
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization header"})
			return
		}

		ctx := c.Request.Context()
		identity, err := verifier.Verify(ctx, tokenString)
		if err != nil {
			logger.Debug("token rejected", zap.String("request_id", GetRequestID(c)), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		user, err := resolver.Resolve(ctx, identity.Subject, identity.Picture)
		if err != nil {
			logger.Error("failed to resolve principal", zap.String("request_id", GetRequestID(c)), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(UserIDKey, user.ID)
		c.Next()
	}
}

// GetUserID returns the authenticated caller, false if Auth did not run.
func GetUserID(c *gin.Context) (int64, bool) {
	if v, ok := c.Get(UserIDKey); ok {
		id, ok := v.(int64)
		return id, ok
	}
	return 0, false
}
