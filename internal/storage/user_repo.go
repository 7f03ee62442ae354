// internal/storage/user_repo.go
package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/schemaforge/schemaforge/internal/domain"
)

// Specific errors for user/metadata operations
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrAPIKeyNotFound     = errors.New("api key not found")
	ErrAPIKeyGeneration   = errors.New("failed to generate api key components")
)

const apiKeyPrefix = "sf_" // nolint:gosec // API key prefix identifier, not a secret
const apiKeySecretLength = 32

// GenerateAPIKey produces a fresh personal API key (prefix + random secret).
func GenerateAPIKey() (string, error) {
	randomBytes := make([]byte, apiKeySecretLength)
	if _, err := rand.Read(randomBytes); err != nil {
		customLog.Warnf("Storage: Failed to generate random bytes for API key: %v", err)
		return "", ErrAPIKeyGeneration
	}
	return apiKeyPrefix + base64.RawURLEncoding.EncodeToString(randomBytes), nil
}

// CreateUser inserts a new user into the metadata database. The personal
// API key is issued at creation time.
func CreateUser(ctx context.Context, db *sql.DB, userID, username, email, passwordHash, role string) (string, error) {
	apiKey, err := GenerateAPIKey()
	if err != nil {
		return "", err
	}

	sqlStatement := `INSERT INTO users (user_id, username, email, password_hash, role, api_key) VALUES (?, ?, ?, ?, ?, ?)`
	_, err = db.ExecContext(ctx, sqlStatement, userID, username, email, passwordHash, role, apiKey)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			if strings.Contains(sqliteErr.Error(), "users.email") {
				return "", ErrEmailExists
			}
		}
		customLog.Warnf("Storage: Failed to insert user %s: %v", email, err)
		return "", fmt.Errorf("database error during user creation: %w", err)
	}
	return userID, nil
}

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var user domain.User
	var isActive int
	var apiKey sql.NullString
	err := row.Scan(&user.UserID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Role, &isActive, &apiKey, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	user.IsActive = isActive != 0
	user.APIKey = apiKey.String
	return &user, nil
}

const userColumns = `user_id, username, email, password_hash, role, is_active, api_key, created_at`

// FindUserByEmail retrieves a user by their email address.
func FindUserByEmail(ctx context.Context, db *sql.DB, email string) (*domain.User, error) {
	row := db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`, email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		customLog.Warnf("Storage: Failed to find user by email %s: %v", email, err)
		return nil, fmt.Errorf("database error finding user: %w", err)
	}
	return user, nil
}

// FindUserByID retrieves a user by id.
func FindUserByID(ctx context.Context, db *sql.DB, userID string) (*domain.User, error) {
	row := db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = ? LIMIT 1`, userID)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		customLog.Warnf("Storage: Failed to find user by user_id %s: %v", userID, err)
		return nil, fmt.Errorf("database error finding user: %w", err)
	}
	return user, nil
}

// FindUserByAPIKey resolves a personal API key to its owner.
func FindUserByAPIKey(ctx context.Context, db *sql.DB, apiKey string) (*domain.User, error) {
	row := db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE api_key = ? LIMIT 1`, apiKey)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAPIKeyNotFound
		}
		customLog.Warnf("Storage: Failed to find user by api key: %v", err)
		return nil, fmt.Errorf("database error finding user: %w", err)
	}
	return user, nil
}

// ListUsers retrieves every user account, newest first. Admin dashboards only.
func ListUsers(ctx context.Context, db *sql.DB) ([]domain.User, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		customLog.Warnf("Storage: Error listing users: %v", err)
		return nil, fmt.Errorf("database error listing users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			customLog.Warnf("Storage: Error scanning user row: %v", err)
			return nil, fmt.Errorf("failed processing user list: %w", err)
		}
		users = append(users, *user)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading user list: %w", err)
	}
	return users, nil
}

// SetUserPassword stores a new bcrypt hash for the user.
func SetUserPassword(ctx context.Context, db *sql.DB, userID, passwordHash string) error {
	result, err := db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE user_id = ?`, passwordHash, userID)
	if err != nil {
		customLog.Warnf("Storage: Failed to set password for user %s: %v", userID, err)
		return fmt.Errorf("database error setting password: %w", err)
	}
	return requireRowsAffected(result, ErrUserNotFound)
}

// ToggleUserStatus flips is_active and returns the new value.
func ToggleUserStatus(ctx context.Context, db *sql.DB, userID string) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET is_active = CASE is_active WHEN 0 THEN 1 ELSE 0 END WHERE user_id = ?`, userID)
	if err != nil {
		customLog.Warnf("Storage: Failed to toggle status for user %s: %v", userID, err)
		return false, fmt.Errorf("database error toggling user status: %w", err)
	}
	if err := requireRowsAffected(result, ErrUserNotFound); err != nil {
		return false, err
	}

	var isActive int
	if err := db.QueryRowContext(ctx, `SELECT is_active FROM users WHERE user_id = ?`, userID).Scan(&isActive); err != nil {
		return false, fmt.Errorf("failed confirming user status: %w", err)
	}
	return isActive != 0, nil
}

// RevokeAPIKey clears the user's personal API key. Generated endpoints stop
// accepting it immediately; a new key is not issued automatically.
func RevokeAPIKey(ctx context.Context, db *sql.DB, userID string) error {
	result, err := db.ExecContext(ctx, `UPDATE users SET api_key = NULL WHERE user_id = ?`, userID)
	if err != nil {
		customLog.Warnf("Storage: Failed to revoke API key for user %s: %v", userID, err)
		return fmt.Errorf("database error revoking api key: %w", err)
	}
	return requireRowsAffected(result, ErrUserNotFound)
}

// RotateAPIKey issues and stores a fresh personal API key, returning it.
func RotateAPIKey(ctx context.Context, db *sql.DB, userID string) (string, error) {
	apiKey, err := GenerateAPIKey()
	if err != nil {
		return "", err
	}
	result, err := db.ExecContext(ctx, `UPDATE users SET api_key = ? WHERE user_id = ?`, apiKey, userID)
	if err != nil {
		customLog.Warnf("Storage: Failed to rotate API key for user %s: %v", userID, err)
		return "", fmt.Errorf("database error rotating api key: %w", err)
	}
	if err := requireRowsAffected(result, ErrUserNotFound); err != nil {
		return "", err
	}
	return apiKey, nil
}

func requireRowsAffected(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to confirm update: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
