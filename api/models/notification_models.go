// api/models/notification_models.go
package models

import "github.com/schemaforge/schemaforge/internal/domain"

// NotificationListResponse is one page of the feed plus the unread count
// the dropdown badge renders.
type NotificationListResponse struct {
	Notifications []domain.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	UnreadCount   int64                 `json:"unread_count"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
}

// UnreadCountResponse carries just the badge number for the polling call.
type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}
