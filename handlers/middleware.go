package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"venue-manager/db"
	"venue-manager/models"
)

const userKey = "user"

// RequestLogger logs every request once it has been served.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if u, ok := c.Get(userKey); ok {
			fields = append(fields, zap.Int64("user_id", u.(*models.User).ID))
		}

		switch {
		case status >= 500:
			logger.Error("request", fields...)
		case status >= 400:
			logger.Warn("request", fields...)
		default:
			logger.Debug("request", fields...)
		}
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// authenticate resolves a token to an active user.
func (a *API) authenticate(c *gin.Context, token string) (*models.User, bool) {
	claims, err := a.tokens.Verify(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return nil, false
	}
	user, err := a.store.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found or inactive"})
		} else {
			a.fail(c, "User", err)
			c.Abort()
		}
		return nil, false
	}
	if !user.IsActive {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found or inactive"})
		return nil, false
	}
	return user, true
}

func (a *API) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		user, ok := a.authenticate(c, token)
		if !ok {
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// requireRole lets through users whose role is at least min.
func requireRole(min models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentUser(c).Role.AtLeast(min) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	return c.MustGet(userKey).(*models.User)
}
