// api/handlers/notification_handler.go
package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/schemaforge/schemaforge/api/middleware"
	"github.com/schemaforge/schemaforge/api/models"
	"github.com/schemaforge/schemaforge/internal/core"
	"github.com/schemaforge/schemaforge/internal/domain"
	"github.com/schemaforge/schemaforge/internal/storage"
)

// notifyQuietly records a notification for the user without failing the
// surrounding request. Notifications are a courtesy; the operation that
// triggered one has already succeeded.
func notifyQuietly(c *gin.Context, db *sql.DB, userID, title, message, notifType string) {
	n := &domain.Notification{
		ID:      uuid.New().String(),
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    notifType,
	}
	if err := storage.CreateNotification(c.Request.Context(), db, n); err != nil {
		customLog.Warnf("Failed to create notification for user %s: %v", userID, err)
	}
}

// NotificationHandler holds dependencies for notification handlers.
type NotificationHandler struct {
	DB *sql.DB
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(db *sql.DB) *NotificationHandler {
	return &NotificationHandler{DB: db}
}

// List handles GET /notifications. Newest first, paginated, with the
// unread count alongside so the client needs a single round trip.
func (h *NotificationHandler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(string)
	opts, err := core.ParsePageOptions(c.Request.URL.Query())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	notifications, total, err := storage.ListNotifications(c.Request.Context(), h.DB, userID, opts)
	if err != nil {
		_ = c.Error(err)
		return
	}
	unread, err := storage.CountUnread(c.Request.Context(), h.DB, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.NotificationListResponse{
		Notifications: notifications,
		Total:         total,
		UnreadCount:   unread,
		Page:          opts.Page,
		Limit:         opts.Limit,
	})
}

// UnreadCount handles GET /notifications/unread-count.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(string)

	unread, err := storage.CountUnread(c.Request.Context(), h.DB, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.UnreadCountResponse{UnreadCount: unread})
}

// MarkRead handles PATCH /notifications/:id/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(string)

	if err := storage.MarkNotificationRead(c.Request.Context(), h.DB, userID, c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllRead handles PATCH /notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(string)

	if err := storage.MarkAllNotificationsRead(c.Request.Context(), h.DB, userID); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}

// Delete handles DELETE /notifications/:id.
func (h *NotificationHandler) Delete(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(string)

	if err := storage.DeleteNotification(c.Request.Context(), h.DB, userID, c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
