// api/models/schema_models.go
package models

import (
	"github.com/schemaforge/schemaforge/internal/schema"
)

// --- Schema Request/Response Structs ---

// FieldInput represents a single field in a schema save request.
type FieldInput struct {
	Name       string `json:"name" binding:"required"`
	Type       string `json:"type" binding:"required"`
	Visibility string `json:"visibility"`
	Required   bool   `json:"required"`
}

// SaveSchemaRequest is the body of both create and update schema calls:
// the serialized draft plus protection flags and the optional auth config.
type SaveSchemaRequest struct {
	CollectionName     string                    `json:"collection_name" binding:"required"`
	Fields             []FieldInput              `json:"fields" binding:"required,min=1,dive"`
	EndpointProtection schema.EndpointProtection `json:"endpoint_protection"`
	AuthConfig         *schema.AuthConfig        `json:"auth_config,omitempty"`
	AuthSystemID       string                    `json:"auth_system_id,omitempty"`
}

// Draft converts the request into the schema package's draft model.
func (r *SaveSchemaRequest) Draft() *schema.Draft {
	draft := &schema.Draft{
		CollectionName: r.CollectionName,
		Fields:         make([]schema.FieldSpec, len(r.Fields)),
	}
	for i, f := range r.Fields {
		visibility := schema.Visibility(f.Visibility)
		if visibility == "" {
			visibility = schema.VisibilityPublic
		}
		draft.Fields[i] = schema.FieldSpec{
			Name:       f.Name,
			Type:       schema.FieldType(f.Type),
			Visibility: visibility,
			Required:   f.Required,
		}
	}
	return draft
}

// SchemaResponse renders a persisted schema record together with its derived
// endpoint descriptors and an API-doc example payload.
type SchemaResponse struct {
	Schema         *schema.Record    `json:"schema"`
	Endpoints      []schema.Endpoint `json:"endpoints"`
	ExamplePayload map[string]any    `json:"example_payload"`
}

// NewSchemaResponse derives the response views from a record. The example
// payload for documentation never includes the auth password field.
func NewSchemaResponse(rec *schema.Record) SchemaResponse {
	draft := rec.Draft()
	endpoints, _ := draft.Endpoints()

	var exclude []string
	if rec.AuthConfig != nil {
		exclude = append(exclude, rec.AuthConfig.PasswordField)
	}
	return SchemaResponse{
		Schema:         rec,
		Endpoints:      endpoints,
		ExamplePayload: draft.DocExamplePayload(exclude...),
	}
}
