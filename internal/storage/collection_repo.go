// internal/storage/collection_repo.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/schemaforge/schemaforge/internal/core"
	"github.com/schemaforge/schemaforge/internal/schema"
)

// Specific errors for collection record operations
var (
	ErrRecordNotFound      = errors.New("record not found")
	ErrTableNotFound       = errors.New("collection table not found")
	ErrColumnNotFound      = errors.New("column not found")
	ErrTypeMismatch        = errors.New("datatype mismatch")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrMissingRequired     = errors.New("missing required field")
	ErrUnknownField        = errors.New("unknown field")
)

// CollectionDBPath returns the sqlite file holding all of one user's
// collection tables.
func CollectionDBPath(dataDir, userID string) string {
	return filepath.Join(dataDir, userID, "collections.db")
}

// ConnectCollectionDB opens and pings the user's collection database,
// creating the per-user directory on first use. The caller closes it.
func ConnectCollectionDB(ctx context.Context, dataDir, userID string) (*sql.DB, error) {
	userDir := filepath.Join(dataDir, userID)
	if err := os.MkdirAll(userDir, 0o750); err != nil {
		customLog.Warnf("Storage: Error creating user data directory '%s': %v", userDir, err)
		return nil, fmt.Errorf("failed to create collection storage location: %w", err)
	}

	dbPath := CollectionDBPath(dataDir, userID)
	userDB, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		customLog.Warnf("Storage: Failed to open collection db '%s': %v", dbPath, err)
		return nil, fmt.Errorf("failed to access collection storage: %w", err)
	}
	if err = userDB.PingContext(ctx); err != nil {
		userDB.Close()
		customLog.Warnf("Storage: Failed to ping collection db '%s': %v", dbPath, err)
		return nil, fmt.Errorf("failed to connect to collection storage: %w", err)
	}
	return userDB, nil
}

// EnsureCollectionTable creates the backing table for a schema record:
// an autoincrement id plus one typed column per field.
func EnsureCollectionTable(ctx context.Context, userDB *sql.DB, rec *schema.Record) error {
	columnDefs := make([]string, 0, len(rec.Fields))
	for _, f := range rec.Fields {
		columnDefs = append(columnDefs, fmt.Sprintf("%s %s", f.Name, core.ColumnTypeFor[string(f.Type)]))
	}

	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY AUTOINCREMENT, %s);",
		rec.CollectionName, // validated identifier
		strings.Join(columnDefs, ", "),
	)
	if _, err := userDB.ExecContext(ctx, createSQL); err != nil {
		customLog.Warnf("Storage: Failed to create collection table '%s': %v", rec.CollectionName, err)
		return fmt.Errorf("failed to create collection table: %w", err)
	}
	return nil
}

// MigrateCollectionTable adds columns for fields the table does not have
// yet. SQLite cannot drop columns in place, so columns of removed fields
// stay behind and are simply no longer projected.
func MigrateCollectionTable(ctx context.Context, userDB *sql.DB, rec *schema.Record) error {
	existing, err := tableColumns(ctx, userDB, rec.CollectionName)
	if err != nil {
		if errors.Is(err, ErrTableNotFound) {
			return EnsureCollectionTable(ctx, userDB, rec)
		}
		return err
	}

	for _, f := range rec.Fields {
		if existing[strings.ToLower(f.Name)] {
			continue
		}
		alterSQL := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s;",
			rec.CollectionName, f.Name, core.ColumnTypeFor[string(f.Type)])
		if _, err := userDB.ExecContext(ctx, alterSQL); err != nil {
			customLog.Warnf("Storage: Failed to add column '%s' to '%s': %v", f.Name, rec.CollectionName, err)
			return fmt.Errorf("failed to migrate collection table: %w", err)
		}
	}
	return nil
}

// DropCollectionTable removes the backing table of a deleted schema.
func DropCollectionTable(ctx context.Context, userDB *sql.DB, collectionName string) error {
	dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s;", collectionName) // validated identifier
	if _, err := userDB.ExecContext(ctx, dropSQL); err != nil {
		customLog.Warnf("Storage: Failed to drop collection table '%s': %v", collectionName, err)
		return fmt.Errorf("failed to drop collection table: %w", err)
	}
	return nil
}

// tableColumns reads the current column set of a table (lowercased names).
func tableColumns(ctx context.Context, userDB *sql.DB, tableName string) (map[string]bool, error) {
	rows, err := userDB.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s);", tableName))
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("failed to retrieve table schema: %w", err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var cid, notnull, pk int
		var name, sqlType string
		var dfltValue sql.NullString
		if err := rows.Scan(&cid, &name, &sqlType, &notnull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to parse table schema: %w", err)
		}
		columns[strings.ToLower(name)] = true
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table schema: %w", err)
	}
	if len(columns) == 0 {
		return nil, ErrTableNotFound
	}
	return columns, nil
}

// encodeFieldValue validates a JSON value against the field's declared type
// and converts it to its storage representation. Arrays and objects are
// stored as JSON text.
func encodeFieldValue(f schema.FieldSpec, val any) (any, error) {
	if val == nil {
		return nil, nil
	}
	switch f.Type {
	case schema.FieldString, schema.FieldDate:
		if s, ok := val.(string); ok {
			return s, nil
		}
	case schema.FieldNumber:
		switch v := val.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		}
	case schema.FieldBoolean:
		switch v := val.(type) {
		case bool:
			return v, nil
		case float64:
			if v == 0 || v == 1 {
				return v == 1, nil
			}
		}
	case schema.FieldArray:
		if _, ok := val.([]any); ok {
			out, err := json.Marshal(val)
			if err != nil {
				return nil, fmt.Errorf("failed to encode array field '%s': %w", f.Name, err)
			}
			return string(out), nil
		}
	case schema.FieldObject:
		if _, ok := val.(map[string]any); ok {
			out, err := json.Marshal(val)
			if err != nil {
				return nil, fmt.Errorf("failed to encode object field '%s': %w", f.Name, err)
			}
			return string(out), nil
		}
	default:
		return val, nil // Lenient for legacy/unknown types
	}
	return nil, fmt.Errorf("%w: field '%s' expects %s", ErrTypeMismatch, f.Name, f.Type)
}

// decodeFieldValue converts a scanned storage value back to its JSON shape.
func decodeFieldValue(f schema.FieldSpec, raw any) any {
	if raw == nil {
		return nil
	}
	if b, ok := raw.([]byte); ok {
		raw = string(b)
	}
	switch f.Type {
	case schema.FieldArray, schema.FieldObject:
		if s, ok := raw.(string); ok {
			var decoded any
			if err := json.Unmarshal([]byte(s), &decoded); err == nil {
				return decoded
			}
		}
	case schema.FieldBoolean:
		switch v := raw.(type) {
		case int64:
			return v != 0
		case float64:
			return v != 0
		}
	}
	return raw
}

// prepareRecordValues validates a record payload against the schema and
// returns parallel column/value slices ready for SQL. Unknown keys are
// rejected; the implicit id is never writable. When enforceRequired is set
// (inserts), every required field must be present and non-nil.
func prepareRecordValues(rec *schema.Record, data map[string]any, enforceRequired bool) ([]string, []any, error) {
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("%w: request body cannot be empty", ErrTypeMismatch)
	}

	fieldByName := make(map[string]schema.FieldSpec, len(rec.Fields))
	for _, f := range rec.Fields {
		fieldByName[strings.ToLower(f.Name)] = f
	}

	var columns []string
	var values []any
	for key, val := range data {
		lowerKey := strings.ToLower(key)
		if lowerKey == schema.ReservedFieldName {
			continue // id is never writable
		}
		f, exists := fieldByName[lowerKey]
		if !exists {
			return nil, nil, fmt.Errorf("%w: '%s' is not defined in the schema", ErrUnknownField, key)
		}
		encoded, err := encodeFieldValue(f, val)
		if err != nil {
			return nil, nil, err
		}
		columns = append(columns, f.Name)
		values = append(values, encoded)
	}

	if enforceRequired {
		for _, f := range rec.Fields {
			if !f.Required {
				continue
			}
			val, present := data[f.Name]
			if !present || val == nil {
				return nil, nil, fmt.Errorf("%w: '%s'", ErrMissingRequired, f.Name)
			}
		}
	}

	if len(columns) == 0 {
		return nil, nil, fmt.Errorf("%w: no writable fields in request body", ErrUnknownField)
	}
	return columns, values, nil
}

// InsertCollectionRecord validates and inserts a record, returning its id.
func InsertCollectionRecord(ctx context.Context, userDB *sql.DB, rec *schema.Record, data map[string]any) (int64, error) {
	columns, values, err := prepareRecordValues(rec, data, true)
	if err != nil {
		return 0, err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		rec.CollectionName, strings.Join(columns, ", "), placeholders)

	result, err := userDB.ExecContext(ctx, insertSQL, values...)
	if err != nil {
		return 0, mapRecordError(err, "insert")
	}
	lastID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to retrieve id after insert: %w", err)
	}
	return lastID, nil
}

// ListCollectionRecords returns one page of records plus the total count.
// When publicOnly is set, private fields are projected out of the result.
func ListCollectionRecords(ctx context.Context, userDB *sql.DB, rec *schema.Record, opts *core.PageOptions, publicOnly bool) ([]map[string]any, int64, error) {
	var total int64
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s;", rec.CollectionName)
	if err := userDB.QueryRowContext(ctx, countSQL).Scan(&total); err != nil {
		return nil, 0, mapRecordError(err, "count")
	}

	selectSQL := fmt.Sprintf("SELECT * FROM %s ORDER BY id LIMIT ? OFFSET ?;", rec.CollectionName)
	rows, err := userDB.QueryContext(ctx, selectSQL, opts.Limit, opts.Offset())
	if err != nil {
		return nil, 0, mapRecordError(err, "list")
	}
	defer rows.Close()

	results := make([]map[string]any, 0)
	for rows.Next() {
		record, err := scanRecordRow(rows, rec)
		if err != nil {
			return nil, 0, err
		}
		if publicOnly {
			record = projectPublic(rec, record)
		}
		results = append(results, record)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed reading record list: %w", err)
	}
	return results, total, nil
}

// GetCollectionRecord retrieves a single record by id with all fields.
func GetCollectionRecord(ctx context.Context, userDB *sql.DB, rec *schema.Record, recordID int64) (map[string]any, error) {
	selectSQL := fmt.Sprintf("SELECT * FROM %s WHERE id = ? LIMIT 1;", rec.CollectionName)
	rows, err := userDB.QueryContext(ctx, selectSQL, recordID)
	if err != nil {
		return nil, mapRecordError(err, "get")
	}
	defer rows.Close()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return nil, fmt.Errorf("failed reading record: %w", err)
		}
		return nil, ErrRecordNotFound
	}
	return scanRecordRow(rows, rec)
}

// UpdateCollectionRecord validates and applies a partial update by id.
func UpdateCollectionRecord(ctx context.Context, userDB *sql.DB, rec *schema.Record, recordID int64, data map[string]any) error {
	columns, values, err := prepareRecordValues(rec, data, false)
	if err != nil {
		return err
	}

	setClauses := make([]string, len(columns))
	for i, col := range columns {
		setClauses[i] = col + " = ?"
	}
	values = append(values, recordID)

	updateSQL := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?",
		rec.CollectionName, strings.Join(setClauses, ", "))
	result, err := userDB.ExecContext(ctx, updateSQL, values...)
	if err != nil {
		return mapRecordError(err, "update")
	}
	return requireRowsAffected(result, ErrRecordNotFound)
}

// DeleteCollectionRecord removes a record by id.
func DeleteCollectionRecord(ctx context.Context, userDB *sql.DB, rec *schema.Record, recordID int64) error {
	deleteSQL := fmt.Sprintf("DELETE FROM %s WHERE id = ?", rec.CollectionName)
	result, err := userDB.ExecContext(ctx, deleteSQL, recordID)
	if err != nil {
		return mapRecordError(err, "delete")
	}
	return requireRowsAffected(result, ErrRecordNotFound)
}

// FindRecordByField retrieves the first record where the given field equals
// the value. Used by generated signin endpoints to look up credentials.
func FindRecordByField(ctx context.Context, userDB *sql.DB, rec *schema.Record, fieldName, value string) (map[string]any, error) {
	selectSQL := fmt.Sprintf("SELECT * FROM %s WHERE %s = ? LIMIT 1;", rec.CollectionName, fieldName)
	rows, err := userDB.QueryContext(ctx, selectSQL, value)
	if err != nil {
		return nil, mapRecordError(err, "find")
	}
	defer rows.Close()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return nil, fmt.Errorf("failed reading record: %w", err)
		}
		return nil, ErrRecordNotFound
	}
	return scanRecordRow(rows, rec)
}

// scanRecordRow scans the current row into a map keyed by column name,
// decoding stored values back to their JSON shapes.
func scanRecordRow(rows *sql.Rows, rec *schema.Record) (map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed reading row columns: %w", err)
	}

	rawValues := make([]any, len(columns))
	scanTargets := make([]any, len(columns))
	for i := range rawValues {
		scanTargets[i] = &rawValues[i]
	}
	if err := rows.Scan(scanTargets...); err != nil {
		return nil, fmt.Errorf("failed scanning record row: %w", err)
	}

	fieldByName := make(map[string]schema.FieldSpec, len(rec.Fields))
	for _, f := range rec.Fields {
		fieldByName[strings.ToLower(f.Name)] = f
	}

	record := make(map[string]any, len(columns))
	for i, col := range columns {
		lower := strings.ToLower(col)
		if lower == schema.ReservedFieldName {
			record[schema.ReservedFieldName] = rawValues[i]
			continue
		}
		f, known := fieldByName[lower]
		if !known {
			continue // column of a removed field, no longer projected
		}
		record[f.Name] = decodeFieldValue(f, rawValues[i])
	}
	return record, nil
}

// projectPublic drops private fields from a decoded record.
func projectPublic(rec *schema.Record, record map[string]any) map[string]any {
	projected := make(map[string]any, len(record))
	projected[schema.ReservedFieldName] = record[schema.ReservedFieldName]
	for _, f := range rec.Fields {
		if f.Visibility != schema.VisibilityPublic {
			continue
		}
		if val, ok := record[f.Name]; ok {
			projected[f.Name] = val
		}
	}
	return projected
}

// mapRecordError maps common SQLite errors to storage sentinels.
func mapRecordError(err error, op string) error {
	customLog.Warnf("Storage: Failed record %s: %v", op, err)
	if strings.Contains(err.Error(), "no such table") {
		return ErrTableNotFound
	}
	if strings.Contains(err.Error(), "has no column named") || strings.Contains(err.Error(), "no such column") {
		return ErrColumnNotFound
	}
	if strings.Contains(err.Error(), "datatype mismatch") {
		return ErrTypeMismatch
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return ErrConstraintViolation
	}
	return fmt.Errorf("database error during record %s: %w", op, err)
}
