// client/notifications.go
package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/schemaforge/schemaforge/internal/domain"
)

// DefaultPollInterval matches the dashboard bell, which re-checks the
// unread count every 30 seconds while mounted.
const DefaultPollInterval = 30 * time.Second

// NotificationCenter is a local projection of the user's server-side feed.
// Mutations are optimistic: local state changes immediately and the remote
// call is best effort. A failed remote call is logged, never rolled back;
// Refresh (or the next poll) re-syncs with the server's truth.
type NotificationCenter struct {
	mu     sync.Mutex
	client *Client

	notifications []domain.Notification
	total         int64
	unreadCount   int64
}

// NewNotificationCenter creates a center over the given client. Call
// Refresh to populate it.
func NewNotificationCenter(c *Client) *NotificationCenter {
	return &NotificationCenter{client: c}
}

// Notifications returns a copy of the current local list.
func (nc *NotificationCenter) Notifications() []domain.Notification {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	out := make([]domain.Notification, len(nc.notifications))
	copy(out, nc.notifications)
	return out
}

// UnreadCount returns the local unread count.
func (nc *NotificationCenter) UnreadCount() int64 {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	return nc.unreadCount
}

// Total returns the server-reported total from the last refresh.
func (nc *NotificationCenter) Total() int64 {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	return nc.total
}

type notificationListResponse struct {
	Notifications []domain.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	UnreadCount   int64                 `json:"unread_count"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
}

// Refresh replaces local state with one page of the server list.
func (nc *NotificationCenter) Refresh(ctx context.Context, page, limit int) error {
	path := fmt.Sprintf("/notifications?page=%d&limit=%d", page, limit)
	var resp notificationListResponse
	if err := nc.client.do(ctx, "GET", path, nil, &resp); err != nil {
		return err
	}

	nc.mu.Lock()
	nc.notifications = resp.Notifications
	nc.total = resp.Total
	nc.unreadCount = resp.UnreadCount
	nc.mu.Unlock()
	return nil
}

// MarkRead marks one notification read locally, then tells the server.
func (nc *NotificationCenter) MarkRead(ctx context.Context, id string) {
	nc.mu.Lock()
	for i := range nc.notifications {
		if nc.notifications[i].ID == id && !nc.notifications[i].IsRead {
			nc.notifications[i].IsRead = true
			if nc.unreadCount > 0 {
				nc.unreadCount--
			}
			break
		}
	}
	nc.mu.Unlock()

	if err := nc.client.do(ctx, "PUT", "/notifications/"+id+"/read", nil, nil); err != nil {
		customLog.Warnf("NotificationCenter: mark-read sync failed for %s: %v", id, err)
	}
}

// MarkAllRead marks everything read locally, then tells the server.
func (nc *NotificationCenter) MarkAllRead(ctx context.Context) {
	nc.mu.Lock()
	for i := range nc.notifications {
		nc.notifications[i].IsRead = true
	}
	nc.unreadCount = 0
	nc.mu.Unlock()

	if err := nc.client.do(ctx, "PUT", "/notifications/read-all", nil, nil); err != nil {
		customLog.Warnf("NotificationCenter: mark-all-read sync failed: %v", err)
	}
}

// Delete removes one notification locally, then tells the server.
func (nc *NotificationCenter) Delete(ctx context.Context, id string) {
	nc.mu.Lock()
	for i := range nc.notifications {
		if nc.notifications[i].ID == id {
			if !nc.notifications[i].IsRead && nc.unreadCount > 0 {
				nc.unreadCount--
			}
			nc.notifications = append(nc.notifications[:i], nc.notifications[i+1:]...)
			if nc.total > 0 {
				nc.total--
			}
			break
		}
	}
	nc.mu.Unlock()

	if err := nc.client.do(ctx, "DELETE", "/notifications/"+id, nil, nil); err != nil {
		customLog.Warnf("NotificationCenter: delete sync failed for %s: %v", id, err)
	}
}

type unreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

// Poll refreshes the unread count on the given interval until the context
// is cancelled. Zero or negative interval uses DefaultPollInterval.
func (nc *NotificationCenter) Poll(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var resp unreadCountResponse
			if err := nc.client.do(ctx, "GET", "/notifications/unread-count", nil, &resp); err != nil {
				customLog.Warnf("NotificationCenter: poll failed: %v", err)
				continue
			}
			nc.mu.Lock()
			nc.unreadCount = resp.UnreadCount
			nc.mu.Unlock()
		}
	}
}
