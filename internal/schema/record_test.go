// internal/schema/record_test.go
package schema

import "testing"

func TestFromPersistedDeepCopies(t *testing.T) {
	rec := &Record{
		ID:             "s1",
		CollectionName: "members",
		Fields: []FieldSpec{
			{Name: "email", Type: FieldString, Visibility: VisibilityPublic},
			{Name: "password", Type: FieldString, Visibility: VisibilityPrivate},
		},
		Protection: EndpointProtection{Post: true},
		AuthConfig: &AuthConfig{
			Enabled:        true,
			PasswordField:  "password",
			LoginFields:    LoginFields{EmailField: "email"},
			ResponseFields: []string{"email"},
		},
	}

	draft, protection, cfg := FromPersisted(rec)

	draft.CollectionName = "renamed"
	draft.Fields[0].Name = "contact"
	cfg.ResponseFields[0] = "mutated"
	cfg.PasswordField = "other"

	if rec.CollectionName != "members" {
		t.Errorf("record collection name mutated: %q", rec.CollectionName)
	}
	if rec.Fields[0].Name != "email" {
		t.Errorf("record field mutated: %q", rec.Fields[0].Name)
	}
	if rec.AuthConfig.ResponseFields[0] != "email" {
		t.Errorf("record response fields mutated: %v", rec.AuthConfig.ResponseFields)
	}
	if rec.AuthConfig.PasswordField != "password" {
		t.Errorf("record password field mutated: %q", rec.AuthConfig.PasswordField)
	}
	if !protection.Post || protection.Get {
		t.Errorf("protection = %+v; want post only", protection)
	}
}

func TestFromPersistedSeedsDefaultField(t *testing.T) {
	rec := &Record{ID: "s2", CollectionName: "empty"}
	draft, _, cfg := FromPersisted(rec)

	if len(draft.Fields) != 1 {
		t.Fatalf("len(Fields) = %d; want 1 default field", len(draft.Fields))
	}
	if draft.Fields[0].Type != FieldString {
		t.Errorf("default field type = %q; want string", draft.Fields[0].Type)
	}
	if cfg != nil {
		t.Errorf("cfg = %+v; want nil for record without auth config", cfg)
	}
}

func TestPublicColumns(t *testing.T) {
	rec := &Record{
		CollectionName: "posts",
		Fields: []FieldSpec{
			{Name: "title", Visibility: VisibilityPublic},
			{Name: "draft_notes", Visibility: VisibilityPrivate},
			{Name: "body", Visibility: VisibilityPublic},
		},
	}

	cols := rec.PublicColumns()
	want := []string{"id", "title", "body"}
	if len(cols) != len(want) {
		t.Fatalf("PublicColumns() = %v; want %v", cols, want)
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Errorf("cols[%d] = %q; want %q", i, cols[i], want[i])
		}
	}
}

func TestProtection(t *testing.T) {
	p := EndpointProtection{Get: true, Delete: true}

	testCases := []struct {
		method string
		want   bool
	}{
		{"GET", true},
		{"POST", false},
		{"PUT", false},
		{"DELETE", true},
		{"PATCH", false},
	}
	for _, tc := range testCases {
		if got := p.Protects(tc.method); got != tc.want {
			t.Errorf("Protects(%q) = %v; want %v", tc.method, got, tc.want)
		}
	}

	if !p.Any() {
		t.Error("Any() = false; want true")
	}
	if (EndpointProtection{}).Any() {
		t.Error("zero value Any() = true; want false")
	}
}
