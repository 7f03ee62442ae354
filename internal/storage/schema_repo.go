// internal/storage/schema_repo.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/schemaforge/schemaforge/internal/schema"
)

// Specific errors for schema record operations
var (
	ErrSchemaNotFound = errors.New("schema not found")
	ErrSchemaExists   = errors.New("a schema with this collection name already exists")
)

const schemaColumns = `id, user_id, collection_name, fields, endpoint_protection, auth_config, auth_system_id, is_active, created_at, updated_at`

// CreateSchema persists a new schema record. Fields, protection flags and
// auth config are serialized as JSON columns.
func CreateSchema(ctx context.Context, db *sql.DB, rec *schema.Record) error {
	fieldsJSON, protectionJSON, authJSON, err := marshalSchemaColumns(rec)
	if err != nil {
		return err
	}

	insertSQL := `INSERT INTO schemas (id, user_id, collection_name, fields, endpoint_protection, auth_config, auth_system_id, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1)`
	_, err = db.ExecContext(ctx, insertSQL, rec.ID, rec.UserID, rec.CollectionName,
		fieldsJSON, protectionJSON, authJSON, nullIfEmpty(rec.AuthSystemID))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			customLog.Warnf("Storage: Constraint violation creating schema '%s' for user %s: %v",
				rec.CollectionName, rec.UserID, err)
			return ErrSchemaExists
		}
		customLog.Warnf("Storage: Failed to insert schema '%s' for user %s: %v", rec.CollectionName, rec.UserID, err)
		return fmt.Errorf("database error creating schema: %w", err)
	}
	return nil
}

// UpdateSchema replaces the mutable parts of a schema record in place.
// Collection name is immutable once created; renames would orphan the
// backing table.
func UpdateSchema(ctx context.Context, db *sql.DB, rec *schema.Record) error {
	fieldsJSON, protectionJSON, authJSON, err := marshalSchemaColumns(rec)
	if err != nil {
		return err
	}

	updateSQL := `UPDATE schemas SET fields = ?, endpoint_protection = ?, auth_config = ?, auth_system_id = ?,
		is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`
	result, err := db.ExecContext(ctx, updateSQL, fieldsJSON, protectionJSON, authJSON,
		nullIfEmpty(rec.AuthSystemID), boolToInt(rec.IsActive), rec.ID, rec.UserID)
	if err != nil {
		customLog.Warnf("Storage: Failed to update schema %s: %v", rec.ID, err)
		return fmt.Errorf("database error updating schema: %w", err)
	}
	return requireRowsAffected(result, ErrSchemaNotFound)
}

// GetSchema retrieves one schema record by id, scoped to its owner.
func GetSchema(ctx context.Context, db *sql.DB, userID, schemaID string) (*schema.Record, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+schemaColumns+` FROM schemas WHERE id = ? AND user_id = ? LIMIT 1`, schemaID, userID)
	return scanSchema(row)
}

// GetSchemaByCollection resolves a user's schema by collection name, the
// lookup every /api/{collection} request performs.
func GetSchemaByCollection(ctx context.Context, db *sql.DB, userID, collectionName string) (*schema.Record, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+schemaColumns+` FROM schemas WHERE user_id = ? AND collection_name = ? LIMIT 1`,
		userID, collectionName)
	return scanSchema(row)
}

// ListSchemas retrieves all schema records of one user, newest first.
func ListSchemas(ctx context.Context, db *sql.DB, userID string) ([]schema.Record, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+schemaColumns+` FROM schemas WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		customLog.Warnf("Storage: Error listing schemas for user %s: %v", userID, err)
		return nil, fmt.Errorf("database error listing schemas: %w", err)
	}
	defer rows.Close()

	records := make([]schema.Record, 0)
	for rows.Next() {
		rec, err := scanSchema(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading schema list: %w", err)
	}
	return records, nil
}

// DeleteSchema removes the schema record. The caller is responsible for
// dropping the backing collection table first.
func DeleteSchema(ctx context.Context, db *sql.DB, userID, schemaID string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM schemas WHERE id = ? AND user_id = ?`, schemaID, userID)
	if err != nil {
		customLog.Warnf("Storage: Error deleting schema %s: %v", schemaID, err)
		return fmt.Errorf("database error deleting schema: %w", err)
	}
	return requireRowsAffected(result, ErrSchemaNotFound)
}

// CountSchemas returns the total number of schema records. Admin stats.
func CountSchemas(ctx context.Context, db *sql.DB) (int64, error) {
	var count int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schemas`).Scan(&count); err != nil {
		return 0, fmt.Errorf("database error counting schemas: %w", err)
	}
	return count, nil
}

// CountProtectionReferences reports how many other schemas reference the
// given schema as their auth system. Deleting a referenced auth system is
// rejected at the handler level.
func CountProtectionReferences(ctx context.Context, db *sql.DB, schemaID string) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM schemas WHERE auth_system_id = ? AND id != ?`, schemaID, schemaID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("database error counting auth references: %w", err)
	}
	return count, nil
}

func marshalSchemaColumns(rec *schema.Record) (string, string, any, error) {
	fieldsJSON, err := json.Marshal(rec.Fields)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to serialize schema fields: %w", err)
	}
	protectionJSON, err := json.Marshal(rec.Protection)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to serialize endpoint protection: %w", err)
	}
	var authJSON any // NULL when no auth config is attached
	if rec.AuthConfig != nil {
		out, err := json.Marshal(rec.AuthConfig)
		if err != nil {
			return "", "", nil, fmt.Errorf("failed to serialize auth config: %w", err)
		}
		authJSON = string(out)
	}
	return string(fieldsJSON), string(protectionJSON), authJSON, nil
}

func scanSchema(row interface{ Scan(...any) error }) (*schema.Record, error) {
	var rec schema.Record
	var fieldsJSON, protectionJSON string
	var authJSON, authSystemID sql.NullString
	var isActive int

	err := row.Scan(&rec.ID, &rec.UserID, &rec.CollectionName, &fieldsJSON, &protectionJSON,
		&authJSON, &authSystemID, &isActive, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSchemaNotFound
		}
		customLog.Warnf("Storage: Failed to scan schema row: %v", err)
		return nil, fmt.Errorf("database error reading schema: %w", err)
	}

	if err := json.Unmarshal([]byte(fieldsJSON), &rec.Fields); err != nil {
		return nil, fmt.Errorf("failed to parse stored schema fields: %w", err)
	}
	if err := json.Unmarshal([]byte(protectionJSON), &rec.Protection); err != nil {
		return nil, fmt.Errorf("failed to parse stored endpoint protection: %w", err)
	}
	if authJSON.Valid && authJSON.String != "" {
		var cfg schema.AuthConfig
		if err := json.Unmarshal([]byte(authJSON.String), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse stored auth config: %w", err)
		}
		rec.AuthConfig = &cfg
	}
	rec.AuthSystemID = authSystemID.String
	rec.IsActive = isActive != 0
	return &rec, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
