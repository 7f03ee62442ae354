// internal/core/validation.go
package core

import (
	"regexp"
	"strings"
)

// Regular expression for valid collection/field names (alphanumeric + underscore)
var nameValidationRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ColumnTypeFor maps a schema field type to the SQLite column type used to
// store it. Array and object values are persisted as JSON text.
var ColumnTypeFor = map[string]string{
	"string":  "TEXT",
	"number":  "REAL",
	"boolean": "BOOLEAN",
	"array":   "TEXT",
	"object":  "TEXT",
	"date":    "TEXT",
}

// IsValidIdentifier checks if a string is a valid identifier (e.g., collection_name, field name).
// Applies basic format and length checks.
func IsValidIdentifier(name string) bool {
	return nameValidationRegex.MatchString(name) && len(name) > 0 && len(name) <= 64
}

// IsReservedFieldName reports whether the name collides with the implicit
// primary key every collection carries.
func IsReservedFieldName(name string) bool {
	return strings.EqualFold(name, "id")
}

// NormalizeAndValidateFieldType checks if a string is an allowed field type,
// returning the normalized lowercase version.
func NormalizeAndValidateFieldType(fieldType string) (string, bool) {
	lowerType := strings.ToLower(fieldType)
	_, ok := ColumnTypeFor[lowerType]
	if !ok {
		return "", false
	}
	return lowerType, true
}
