// internal/schema/draft.go
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/schemaforge/schemaforge/internal/core"
)

// ErrInvalidDraft is the root of all draft validation failures. Callers map
// anything wrapping it to a 400.
var ErrInvalidDraft = errors.New("invalid schema draft")

// ReservedFieldName is the implicit primary key every collection carries.
// It is excluded from previews and example payloads and cannot be redefined.
const ReservedFieldName = "id"

// Draft is the editable, unsaved model of a collection: a name plus an
// ordered field list. Field order has no meaning beyond display but is
// preserved across edits.
type Draft struct {
	CollectionName string      `json:"collection_name"`
	Fields         []FieldSpec `json:"fields"`
}

// NewDraft returns a draft with a single default field, mirroring the
// initial state of the create-table form.
func NewDraft(collectionName string) *Draft {
	return &Draft{
		CollectionName: collectionName,
		Fields:         []FieldSpec{NewFieldSpec()},
	}
}

// AddField appends a field row with defaults. Always succeeds.
func (d *Draft) AddField() {
	d.Fields = append(d.Fields, NewFieldSpec())
}

// UpdateField shallow-merges patch into the field at index. No validation
// happens at this step; validation is deferred to submission.
func (d *Draft) UpdateField(index int, patch FieldPatch) {
	if index < 0 || index >= len(d.Fields) {
		return
	}
	f := &d.Fields[index]
	if patch.Name != nil {
		f.Name = *patch.Name
	}
	if patch.Type != nil {
		f.Type = *patch.Type
	}
	if patch.Visibility != nil {
		f.Visibility = *patch.Visibility
	}
	if patch.Required != nil {
		f.Required = *patch.Required
	}
}

// RemoveField removes the field at index. Removing the last remaining field
// is a silent no-op: a draft never has an empty field list.
func (d *Draft) RemoveField(index int) {
	if index < 0 || index >= len(d.Fields) || len(d.Fields) == 1 {
		return
	}
	d.Fields = append(d.Fields[:index], d.Fields[index+1:]...)
}

// FieldPreview is the per-field entry of the JSON shape preview.
type FieldPreview struct {
	Type       FieldType  `json:"type"`
	Required   bool       `json:"required"`
	Visibility Visibility `json:"visibility"`
}

// PreviewSchema derives the JSON shape preview: every field with a non-empty
// name maps to its {type, required, visibility} descriptor. Unnamed fields
// are skipped, not rejected, and the implicit id field is never listed.
func (d *Draft) PreviewSchema() map[string]FieldPreview {
	preview := make(map[string]FieldPreview)
	for _, f := range d.Fields {
		if f.Name == "" || strings.EqualFold(f.Name, ReservedFieldName) {
			continue
		}
		preview[f.Name] = FieldPreview{
			Type:       f.Type,
			Required:   f.Required,
			Visibility: f.Visibility,
		}
	}
	return preview
}

// PreviewJSON renders PreviewSchema as indented JSON text.
func (d *Draft) PreviewJSON() (string, error) {
	out, err := json.MarshalIndent(d.PreviewSchema(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render schema preview: %w", err)
	}
	return string(out), nil
}

// Endpoint describes one generated REST endpoint.
type Endpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// Endpoints derives the fixed set of four endpoint descriptors. The second
// return value is false while the collection name is empty, in which case
// callers render a placeholder instead of descriptors.
func (d *Draft) Endpoints() ([]Endpoint, bool) {
	if d.CollectionName == "" {
		return nil, false
	}
	base := "/api/" + d.CollectionName
	return []Endpoint{
		{Method: "GET", Path: base},
		{Method: "POST", Path: base},
		{Method: "PUT", Path: base + "/:id"},
		{Method: "DELETE", Path: base + "/:id"},
	}, true
}

// ExamplePayload produces a type-appropriate example value for every field
// except the implicit id. Unknown types fall back to the string example.
func (d *Draft) ExamplePayload() map[string]any {
	return d.examplePayload(nil)
}

// DocExamplePayload is ExamplePayload with the given field names stripped.
// Used for API documentation samples, where the auth password field must
// never appear.
func (d *Draft) DocExamplePayload(exclude ...string) map[string]any {
	excluded := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		excluded[name] = true
	}
	return d.examplePayload(excluded)
}

func (d *Draft) examplePayload(excluded map[string]bool) map[string]any {
	payload := make(map[string]any)
	for _, f := range d.Fields {
		if f.Name == "" || strings.EqualFold(f.Name, ReservedFieldName) || excluded[f.Name] {
			continue
		}
		switch f.Type {
		case FieldNumber:
			payload[f.Name] = 123
		case FieldBoolean:
			payload[f.Name] = true
		case FieldArray:
			payload[f.Name] = []string{"item1", "item2"}
		case FieldObject:
			payload[f.Name] = map[string]string{"key": "value"}
		case FieldDate:
			payload[f.Name] = time.Now().UTC().Format(time.RFC3339)
		default:
			payload[f.Name] = "example_" + f.Name
		}
	}
	return payload
}

// CanSubmit is the client-side submission gate: a non-empty collection name
// and a non-empty name on every field. Deeper checks (identifier format,
// duplicates, known types) belong to Validate.
func (d *Draft) CanSubmit() bool {
	if d.CollectionName == "" {
		return false
	}
	for _, f := range d.Fields {
		if f.Name == "" {
			return false
		}
	}
	return true
}

// Validate performs the full server-side check of a submitted draft.
// Duplicate field names are rejected here rather than silently overwritten.
func (d *Draft) Validate() error {
	if !core.IsValidIdentifier(d.CollectionName) {
		return fmt.Errorf("%w: invalid collection name %q", ErrInvalidDraft, d.CollectionName)
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("%w: at least one field is required", ErrInvalidDraft)
	}
	seen := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: every field needs a name", ErrInvalidDraft)
		}
		if !core.IsValidIdentifier(f.Name) {
			return fmt.Errorf("%w: invalid field name %q", ErrInvalidDraft, f.Name)
		}
		if core.IsReservedFieldName(f.Name) {
			return fmt.Errorf("%w: field name %q is reserved", ErrInvalidDraft, f.Name)
		}
		lower := strings.ToLower(f.Name)
		if seen[lower] {
			return fmt.Errorf("%w: duplicate field name %q", ErrInvalidDraft, f.Name)
		}
		seen[lower] = true
		if !IsKnownFieldType(f.Type) {
			return fmt.Errorf("%w: unknown type %q for field %q", ErrInvalidDraft, f.Type, f.Name)
		}
	}
	return nil
}

// Field returns a pointer to the field with the given name, or nil.
func (d *Draft) Field(name string) *FieldSpec {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i]
		}
	}
	return nil
}

// FieldNames returns all field names in declaration order.
func (d *Draft) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}
