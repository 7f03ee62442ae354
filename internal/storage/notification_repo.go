// internal/storage/notification_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/schemaforge/schemaforge/internal/core"
	"github.com/schemaforge/schemaforge/internal/domain"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
)

// CreateNotification appends an entry to a user's feed.
func CreateNotification(ctx context.Context, db *sql.DB, n *domain.Notification) error {
	insertSQL := `INSERT INTO notifications (id, user_id, title, message, type) VALUES (?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, insertSQL, n.ID, n.UserID, n.Title, n.Message, n.Type)
	if err != nil {
		customLog.Warnf("Storage: Failed to insert notification for user %s: %v", n.UserID, err)
		return fmt.Errorf("database error creating notification: %w", err)
	}
	return nil
}

// ListNotifications returns one page of a user's feed, newest first, plus
// the total entry count.
func ListNotifications(ctx context.Context, db *sql.DB, userID string, opts *core.PageOptions) ([]domain.Notification, int64, error) {
	var total int64
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("database error counting notifications: %w", err)
	}

	query := `SELECT id, user_id, title, message, type, is_read, created_at
		FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := db.QueryContext(ctx, query, userID, opts.Limit, opts.Offset())
	if err != nil {
		customLog.Warnf("Storage: Error listing notifications for user %s: %v", userID, err)
		return nil, 0, fmt.Errorf("database error listing notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]domain.Notification, 0)
	for rows.Next() {
		var n domain.Notification
		var isRead int
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &isRead, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed processing notification list: %w", err)
		}
		n.IsRead = isRead != 0
		notifications = append(notifications, n)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed reading notification list: %w", err)
	}
	return notifications, total, nil
}

// CountUnread returns the number of unread notifications for a user.
func CountUnread(ctx context.Context, db *sql.DB, userID string) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("database error counting unread notifications: %w", err)
	}
	return count, nil
}

// MarkNotificationRead marks a single notification as read.
func MarkNotificationRead(ctx context.Context, db *sql.DB, userID, notificationID string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`, notificationID, userID)
	if err != nil {
		customLog.Warnf("Storage: Failed to mark notification %s read: %v", notificationID, err)
		return fmt.Errorf("database error marking notification read: %w", err)
	}
	return requireRowsAffected(result, ErrNotificationNotFound)
}

// MarkAllNotificationsRead marks every notification of a user as read.
// Marking an already-clean feed is not an error.
func MarkAllNotificationsRead(ctx context.Context, db *sql.DB, userID string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID)
	if err != nil {
		customLog.Warnf("Storage: Failed to mark all notifications read for user %s: %v", userID, err)
		return fmt.Errorf("database error marking notifications read: %w", err)
	}
	return nil
}

// DeleteNotification removes a single entry from the feed.
func DeleteNotification(ctx context.Context, db *sql.DB, userID, notificationID string) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = ? AND user_id = ?`, notificationID, userID)
	if err != nil {
		customLog.Warnf("Storage: Failed to delete notification %s: %v", notificationID, err)
		return fmt.Errorf("database error deleting notification: %w", err)
	}
	return requireRowsAffected(result, ErrNotificationNotFound)
}
