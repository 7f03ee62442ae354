// internal/schema/record.go
package schema

import "time"

// Record is the server-confirmed, persisted version of a draft plus its
// protection flags and optional auth config. Clients never mutate a Record
// directly; edits go through a fresh Draft seeded with FromPersisted.
type Record struct {
	ID             string             `json:"id"`
	UserID         string             `json:"user_id"`
	CollectionName string             `json:"collection_name"`
	Fields         []FieldSpec        `json:"fields"`
	Protection     EndpointProtection `json:"endpoint_protection"`
	AuthConfig     *AuthConfig        `json:"auth_config,omitempty"`
	// AuthSystemID references the schema whose credential store guards this
	// schema's protected endpoints. A by-id reference, not ownership.
	AuthSystemID string    `json:"auth_system_id,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FromPersisted seeds an editable draft, protection value and auth config
// from a persisted record. Everything is deep-copied so edits never leak
// into the record. Called once when an edit session opens, never reactively.
func FromPersisted(rec *Record) (*Draft, EndpointProtection, *AuthConfig) {
	draft := &Draft{
		CollectionName: rec.CollectionName,
		Fields:         make([]FieldSpec, len(rec.Fields)),
	}
	copy(draft.Fields, rec.Fields)
	if len(draft.Fields) == 0 {
		draft.Fields = []FieldSpec{NewFieldSpec()}
	}

	var cfg *AuthConfig
	if rec.AuthConfig != nil {
		clone := *rec.AuthConfig
		clone.ResponseFields = append([]string(nil), rec.AuthConfig.ResponseFields...)
		cfg = &clone
	}
	return draft, rec.Protection, cfg
}

// PublicColumns is the data-viewer column set: id plus every public field,
// in declaration order. Private fields are persisted and writable but never
// rendered as columns.
func (r *Record) PublicColumns() []string {
	cols := []string{ReservedFieldName}
	for _, f := range r.Fields {
		if f.Visibility == VisibilityPublic {
			cols = append(cols, f.Name)
		}
	}
	return cols
}

// Draft view of the record's fields, for derivation helpers that operate on
// drafts (previews, example payloads).
func (r *Record) Draft() *Draft {
	d, _, _ := FromPersisted(r)
	return d
}
