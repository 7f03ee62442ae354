// internal/storage/usage_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/schemaforge/schemaforge/internal/domain"
)

var (
	ErrQuotaExceeded = errors.New("monthly request quota exceeded")
)

// CurrentPeriod returns the usage bucket key for the current month.
func CurrentPeriod() string {
	return time.Now().UTC().Format("2006-01")
}

// IncrementUsage counts one API request against the user's current monthly
// bucket, returning ErrQuotaExceeded once the quota is used up. The counted
// request itself is the one that crosses the line, so the quota is a hard
// ceiling.
func IncrementUsage(ctx context.Context, db *sql.DB, userID string, quota int64) error {
	period := CurrentPeriod()
	upsertSQL := `INSERT INTO api_usage (user_id, period, count) VALUES (?, ?, 1)
		ON CONFLICT(user_id, period) DO UPDATE SET count = count + 1`
	if _, err := db.ExecContext(ctx, upsertSQL, userID, period); err != nil {
		customLog.Warnf("Storage: Failed to increment usage for user %s: %v", userID, err)
		return fmt.Errorf("database error recording usage: %w", err)
	}

	var count int64
	err := db.QueryRowContext(ctx,
		`SELECT count FROM api_usage WHERE user_id = ? AND period = ?`, userID, period).Scan(&count)
	if err != nil {
		return fmt.Errorf("database error reading usage: %w", err)
	}
	if count > quota {
		return ErrQuotaExceeded
	}
	return nil
}

// GetUsage returns the user's usage for the current month. A user with no
// recorded requests gets a zero-count period, not an error.
func GetUsage(ctx context.Context, db *sql.DB, userID string, quota int64) (*domain.UsagePeriod, error) {
	usage := &domain.UsagePeriod{
		UserID: userID,
		Period: CurrentPeriod(),
		Quota:  quota,
	}
	err := db.QueryRowContext(ctx,
		`SELECT count FROM api_usage WHERE user_id = ? AND period = ?`, userID, usage.Period).Scan(&usage.Count)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		customLog.Warnf("Storage: Failed to read usage for user %s: %v", userID, err)
		return nil, fmt.Errorf("database error reading usage: %w", err)
	}
	return usage, nil
}

// ListUsage returns the current month's usage for every user with recorded
// requests. Admin dashboards only.
func ListUsage(ctx context.Context, db *sql.DB, quota int64) ([]domain.UsagePeriod, error) {
	period := CurrentPeriod()
	rows, err := db.QueryContext(ctx,
		`SELECT user_id, count FROM api_usage WHERE period = ? ORDER BY count DESC`, period)
	if err != nil {
		customLog.Warnf("Storage: Error listing usage: %v", err)
		return nil, fmt.Errorf("database error listing usage: %w", err)
	}
	defer rows.Close()

	periods := make([]domain.UsagePeriod, 0)
	for rows.Next() {
		usage := domain.UsagePeriod{Period: period, Quota: quota}
		if err := rows.Scan(&usage.UserID, &usage.Count); err != nil {
			return nil, fmt.Errorf("failed processing usage list: %w", err)
		}
		periods = append(periods, usage)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading usage list: %w", err)
	}
	return periods, nil
}

// ResetUsage zeroes the user's current monthly bucket.
func ResetUsage(ctx context.Context, db *sql.DB, userID string) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM api_usage WHERE user_id = ? AND period = ?`, userID, CurrentPeriod())
	if err != nil {
		customLog.Warnf("Storage: Failed to reset usage for user %s: %v", userID, err)
		return fmt.Errorf("database error resetting usage: %w", err)
	}
	return nil
}

// SumUsage returns the total request count across all users for the current
// month. Admin stats.
func SumUsage(ctx context.Context, db *sql.DB) (int64, error) {
	var total sql.NullInt64
	err := db.QueryRowContext(ctx,
		`SELECT SUM(count) FROM api_usage WHERE period = ?`, CurrentPeriod()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("database error summing usage: %w", err)
	}
	return total.Int64, nil
}

// CountUsers returns total and active user counts. Admin stats.
func CountUsers(ctx context.Context, db *sql.DB) (total, active int64, err error) {
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_active), 0) FROM users`).Scan(&total, &active)
	if err != nil {
		return 0, 0, fmt.Errorf("database error counting users: %w", err)
	}
	return total, active, nil
}
