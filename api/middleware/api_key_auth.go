// api/middleware/api_key_auth.go
package middleware

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/schemaforge/schemaforge/config"
	"github.com/schemaforge/schemaforge/internal/storage"
)

const personalKeyPrefix = "sf_"

// APIKeyAuth authenticates generated /api/{collection} requests with the
// owner's personal API key from the X-API-Key header. This is a separate
// credential plane from the dashboard session token.
func APIKeyAuth(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			_ = c.Error(storage.ErrAPIKeyNotFound)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "X-API-Key header required"})
			return
		}
		if !strings.HasPrefix(apiKey, personalKeyPrefix) {
			_ = c.Error(storage.ErrAPIKeyNotFound)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			return
		}

		user, err := storage.FindUserByAPIKey(c.Request.Context(), db, apiKey)
		if err != nil {
			customLog.Warnf("APIKeyAuth: Lookup failed: %v", err)
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			return
		}
		if !user.IsActive {
			_ = c.Error(storage.ErrAccountDisabled)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": storage.ErrAccountDisabled.Error()})
			return
		}

		c.Set(ContextUserID, user.UserID)
		c.Set(ContextRole, user.Role)
		c.Next()
	}
}

// QuotaGuard counts the request against the key owner's monthly quota and
// rejects with 429 once the quota is exhausted. Must run after APIKeyAuth.
func QuotaGuard(db *sql.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.MustGet(ContextUserID).(string)

		if err := storage.IncrementUsage(c.Request.Context(), db, userID, cfg.MonthlyQuota); err != nil {
			_ = c.Error(err)
			if err == storage.ErrQuotaExceeded {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
			} else {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to record API usage."})
			}
			return
		}
		c.Next()
	}
}
