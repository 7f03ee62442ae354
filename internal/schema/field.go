// internal/schema/field.go
package schema

// FieldType enumerates the value types a collection field can hold.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldArray   FieldType = "array"
	FieldObject  FieldType = "object"
	FieldDate    FieldType = "date"
)

// Visibility controls whether a field shows up in list projections.
// Private fields are still persisted and still writable.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// FieldSpec describes a single field of a collection draft.
type FieldSpec struct {
	Name       string     `json:"name"`
	Type       FieldType  `json:"type"`
	Visibility Visibility `json:"visibility"`
	Required   bool       `json:"required"`
}

// NewFieldSpec returns a field with the defaults a freshly added row gets.
func NewFieldSpec() FieldSpec {
	return FieldSpec{
		Type:       FieldString,
		Visibility: VisibilityPublic,
		Required:   false,
	}
}

// FieldPatch carries a partial update for a FieldSpec. Nil members leave
// the current value untouched.
type FieldPatch struct {
	Name       *string
	Type       *FieldType
	Visibility *Visibility
	Required   *bool
}

// IsKnownFieldType reports whether t is one of the supported field types.
func IsKnownFieldType(t FieldType) bool {
	switch t {
	case FieldString, FieldNumber, FieldBoolean, FieldArray, FieldObject, FieldDate:
		return true
	}
	return false
}
