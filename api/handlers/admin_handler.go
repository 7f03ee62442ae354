// api/handlers/admin_handler.go
package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schemaforge/schemaforge/config"
	"github.com/schemaforge/schemaforge/internal/storage"
)

// AdminHandler serves the admin console endpoints. All routes are behind
// SessionAuth plus AdminRequired.
type AdminHandler struct {
	DB  *sql.DB
	Cfg *config.Config
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(db *sql.DB, cfg *config.Config) *AdminHandler {
	return &AdminHandler{DB: db, Cfg: cfg}
}

// Stats handles GET /admin/stats: platform-wide totals for the dashboard
// header cards.
func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	totalUsers, activeUsers, err := storage.CountUsers(ctx, h.DB)
	if err != nil {
		_ = c.Error(err)
		return
	}
	totalSchemas, err := storage.CountSchemas(ctx, h.DB)
	if err != nil {
		_ = c.Error(err)
		return
	}
	requestsThisMonth, err := storage.SumUsage(ctx, h.DB)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_users":         totalUsers,
		"active_users":        activeUsers,
		"total_schemas":       totalSchemas,
		"requests_this_month": requestsThisMonth,
	})
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := storage.ListUsers(c.Request.Context(), h.DB)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GetUser handles GET /admin/users/:id, including the user's current
// monthly usage.
func (h *AdminHandler) GetUser(c *gin.Context) {
	userID := c.Param("id")

	user, err := storage.FindUserByID(c.Request.Context(), h.DB, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	usage, err := storage.GetUsage(c.Request.Context(), h.DB, userID, h.Cfg.MonthlyQuota)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "usage": usage, "remaining": usage.Remaining()})
}

// ToggleStatus handles PATCH /admin/users/:id/status: flips the account
// between active and disabled. Disabled accounts cannot sign in and their
// API key stops working.
func (h *AdminHandler) ToggleStatus(c *gin.Context) {
	userID := c.Param("id")

	active, err := storage.ToggleUserStatus(c.Request.Context(), h.DB, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if active {
		notifyQuietly(c, h.DB, userID, "Account reactivated",
			"An administrator reactivated your account.", "success")
	} else {
		notifyQuietly(c, h.DB, userID, "Account disabled",
			"An administrator disabled your account. Contact support for details.", "warning")
	}

	customLog.Printf("Admin: Toggled status of user %s, active=%t", userID, active)
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "is_active": active})
}

// RevokeAPIKey handles POST /admin/users/:id/revoke-key: invalidates the
// user's personal API key. Generated endpoints reject requests until the
// user rotates a new key.
func (h *AdminHandler) RevokeAPIKey(c *gin.Context) {
	userID := c.Param("id")

	if err := storage.RevokeAPIKey(c.Request.Context(), h.DB, userID); err != nil {
		_ = c.Error(err)
		return
	}

	notifyQuietly(c, h.DB, userID, "API key revoked",
		"An administrator revoked your API key. Generate a new one to keep using your endpoints.", "warning")

	customLog.Printf("Admin: Revoked API key of user %s", userID)
	c.JSON(http.StatusOK, gin.H{"message": "API key revoked"})
}

// ResetQuota handles POST /admin/users/:id/reset-quota: clears the user's
// current monthly usage bucket.
func (h *AdminHandler) ResetQuota(c *gin.Context) {
	userID := c.Param("id")

	// Validate the target exists so a typo'd id reports 404 rather than
	// silently deleting nothing.
	if _, err := storage.FindUserByID(c.Request.Context(), h.DB, userID); err != nil {
		_ = c.Error(err)
		return
	}
	if err := storage.ResetUsage(c.Request.Context(), h.DB, userID); err != nil {
		_ = c.Error(err)
		return
	}

	notifyQuietly(c, h.DB, userID, "Quota reset",
		"An administrator reset your monthly API usage.", "info")

	customLog.Printf("Admin: Reset usage quota of user %s", userID)
	c.JSON(http.StatusOK, gin.H{"message": "Usage quota reset"})
}

// APIUsage handles GET /admin/usage: current-month usage for every user
// with recorded traffic.
func (h *AdminHandler) APIUsage(c *gin.Context) {
	usage, err := storage.ListUsage(c.Request.Context(), h.DB, h.Cfg.MonthlyQuota)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": storage.CurrentPeriod(), "usage": usage})
}
