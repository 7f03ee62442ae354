// internal/core/validation_test.go
package core

import (
	"strings"
	"testing"
)

func TestIsValidIdentifier(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    bool
		comment string
	}{
		{"valid simple", "my_table", true, ""},
		{"valid with numbers", "table_123", true, ""},
		{"valid uppercase", "MY_TABLE", true, ""},
		{"valid underscore start", "_table", true, ""}, // SQLite allows this
		{"valid underscore end", "table_", true, ""},
		{"valid number start", "123table", true, ""}, // Relaxed validation allows this, adjust regex if needed stricter
		{"valid short", "a", true, ""},
		{"valid long (64 chars)", strings.Repeat("a", 64), true, ""},
		{"invalid empty", "", false, "empty string"},
		{"invalid space", "my table", false, "contains space"},
		{"invalid hyphen", "my-table", false, "contains hyphen"},
		{"invalid special char", "table$", false, "contains dollar sign"},
		{"invalid path separator", "table/name", false, "contains path separator"},
		{"invalid too long", strings.Repeat("a", 65), false, "exceeds 64 chars"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := IsValidIdentifier(tc.input)
			if got != tc.want {
				t.Errorf("IsValidIdentifier(%q) = %v; want %v. %s", tc.input, got, tc.want, tc.comment)
			}
		})
	}
}

func TestIsReservedFieldName(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  bool
	}{
		{"lowercase id", "id", true},
		{"uppercase ID", "ID", true},
		{"mixed case Id", "Id", true},
		{"mixed case iD", "iD", true},
		{"prefix only", "identifier", false},
		{"suffix only", "user_id", false},
		{"empty", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := IsReservedFieldName(tc.input)
			if got != tc.want {
				t.Errorf("IsReservedFieldName(%q) = %v; want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeAndValidateFieldType(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		wantType string
		wantOk   bool
		comment  string
	}{
		{"valid string lower", "string", "string", true, ""},
		{"valid string upper", "STRING", "string", true, ""},
		{"valid string mixed", "StRiNg", "string", true, ""},
		{"valid number", "number", "number", true, ""},
		{"valid boolean", "boolean", "boolean", true, ""},
		{"valid array", "array", "array", true, ""},
		{"valid object", "object", "object", true, ""},
		{"valid date", "date", "date", true, ""},
		{"invalid type", "varchar", "", false, "unsupported type"},
		{"invalid empty", "", "", false, "empty string"},
		{"invalid sqlite type", "TEXT", "", false, "storage types are not field types"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gotType, gotOk := NormalizeAndValidateFieldType(tc.input)
			if gotOk != tc.wantOk {
				t.Errorf("NormalizeAndValidateFieldType(%q): gotOk = %v; wantOk %v. %s", tc.input, gotOk, tc.wantOk, tc.comment)
			}
			if gotType != tc.wantType {
				t.Errorf("NormalizeAndValidateFieldType(%q): gotType = %q; wantType %q. %s", tc.input, gotType, tc.wantType, tc.comment)
			}
		})
	}
}

func TestColumnTypeFor(t *testing.T) {
	testCases := []struct {
		fieldType string
		want      string
	}{
		{"string", "TEXT"},
		{"number", "REAL"},
		{"boolean", "BOOLEAN"},
		{"array", "TEXT"},
		{"object", "TEXT"},
		{"date", "TEXT"},
	}

	for _, tc := range testCases {
		t.Run(tc.fieldType, func(t *testing.T) {
			got, ok := ColumnTypeFor[tc.fieldType]
			if !ok {
				t.Fatalf("ColumnTypeFor missing entry for %q", tc.fieldType)
			}
			if got != tc.want {
				t.Errorf("ColumnTypeFor[%q] = %q; want %q", tc.fieldType, got, tc.want)
			}
		})
	}
}
