// internal/schema/draft_test.go
package schema

import (
	"errors"
	"testing"
)

func strPtr(s string) *string         { return &s }
func visPtr(v Visibility) *Visibility { return &v }
func boolPtr(b bool) *bool            { return &b }

func TestNewDraftDefaults(t *testing.T) {
	d := NewDraft("users")
	if d.CollectionName != "users" {
		t.Errorf("CollectionName = %q; want %q", d.CollectionName, "users")
	}
	if len(d.Fields) != 1 {
		t.Fatalf("len(Fields) = %d; want 1", len(d.Fields))
	}
	f := d.Fields[0]
	if f.Name != "" || f.Type != FieldString || f.Visibility != VisibilityPublic || f.Required {
		t.Errorf("default field = %+v; want empty name, string, public, not required", f)
	}
}

func TestRemoveFieldNeverEmptiesList(t *testing.T) {
	testCases := []struct {
		name       string
		fieldCount int
		removeAt   int
		wantCount  int
	}{
		{"remove from two", 2, 0, 1},
		{"remove last remaining is no-op", 1, 0, 1},
		{"remove out of range high", 2, 5, 2},
		{"remove negative index", 2, -1, 2},
		{"remove middle of three", 3, 1, 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDraft("users")
			for i := 1; i < tc.fieldCount; i++ {
				d.AddField()
			}
			d.RemoveField(tc.removeAt)
			if got := len(d.Fields); got != tc.wantCount {
				t.Errorf("len(Fields) after RemoveField(%d) = %d; want %d", tc.removeAt, got, tc.wantCount)
			}
		})
	}

	// Repeated removal always stops at one field.
	d := NewDraft("users")
	d.AddField()
	d.AddField()
	for i := 0; i < 10; i++ {
		d.RemoveField(0)
	}
	if len(d.Fields) != 1 {
		t.Errorf("len(Fields) after repeated removal = %d; want 1", len(d.Fields))
	}
}

func TestUpdateFieldShallowMerge(t *testing.T) {
	d := NewDraft("users")
	d.UpdateField(0, FieldPatch{Name: strPtr("email")})
	d.UpdateField(0, FieldPatch{Required: boolPtr(true)})

	f := d.Fields[0]
	if f.Name != "email" {
		t.Errorf("Name = %q; want %q", f.Name, "email")
	}
	if !f.Required {
		t.Error("Required = false; want true (earlier name patch must survive)")
	}
	if f.Type != FieldString || f.Visibility != VisibilityPublic {
		t.Errorf("unpatched members changed: %+v", f)
	}

	// Out-of-range updates are silent no-ops.
	d.UpdateField(7, FieldPatch{Name: strPtr("ghost")})
	d.UpdateField(-1, FieldPatch{Name: strPtr("ghost")})
	if len(d.Fields) != 1 || d.Fields[0].Name != "email" {
		t.Errorf("out-of-range update mutated draft: %+v", d.Fields)
	}
}

func TestPreviewSchemaSkipsUnnamedAndID(t *testing.T) {
	d := &Draft{
		CollectionName: "posts",
		Fields: []FieldSpec{
			{Name: "title", Type: FieldString, Visibility: VisibilityPublic, Required: true},
			{Name: "", Type: FieldString, Visibility: VisibilityPublic},
			{Name: "id", Type: FieldNumber, Visibility: VisibilityPublic},
			{Name: "ID", Type: FieldNumber, Visibility: VisibilityPublic},
			{Name: "views", Type: FieldNumber, Visibility: VisibilityPrivate},
		},
	}

	preview := d.PreviewSchema()
	if len(preview) != 2 {
		t.Fatalf("len(preview) = %d; want 2. got %v", len(preview), preview)
	}
	title, ok := preview["title"]
	if !ok {
		t.Fatal("preview missing key 'title'")
	}
	if title.Type != FieldString || !title.Required || title.Visibility != VisibilityPublic {
		t.Errorf("preview['title'] = %+v", title)
	}
	views, ok := preview["views"]
	if !ok {
		t.Fatal("preview missing key 'views'")
	}
	if views.Visibility != VisibilityPrivate {
		t.Errorf("preview['views'].Visibility = %q; want private", views.Visibility)
	}
}

func TestExamplePayloadPerType(t *testing.T) {
	d := &Draft{
		CollectionName: "mixed",
		Fields: []FieldSpec{
			{Name: "name", Type: FieldString},
			{Name: "count", Type: FieldNumber},
			{Name: "active", Type: FieldBoolean},
			{Name: "tags", Type: FieldArray},
			{Name: "meta", Type: FieldObject},
			{Name: "when", Type: FieldDate},
			{Name: "odd", Type: FieldType("mystery")},
			{Name: ""},
			{Name: "Id", Type: FieldNumber},
		},
	}

	payload := d.ExamplePayload()
	if _, present := payload["id"]; present {
		t.Error("payload contains reserved key 'id'")
	}
	if _, present := payload["Id"]; present {
		t.Error("payload contains reserved key 'Id'")
	}
	if got := payload["name"]; got != "example_name" {
		t.Errorf("payload['name'] = %v; want example_name", got)
	}
	if got := payload["count"]; got != 123 {
		t.Errorf("payload['count'] = %v; want 123", got)
	}
	if got := payload["active"]; got != true {
		t.Errorf("payload['active'] = %v; want true", got)
	}
	if _, ok := payload["tags"].([]string); !ok {
		t.Errorf("payload['tags'] = %T; want []string", payload["tags"])
	}
	if _, ok := payload["meta"].(map[string]string); !ok {
		t.Errorf("payload['meta'] = %T; want map[string]string", payload["meta"])
	}
	if _, ok := payload["when"].(string); !ok {
		t.Errorf("payload['when'] = %T; want RFC3339 string", payload["when"])
	}
	// Unknown types fall back to the string example.
	if got := payload["odd"]; got != "example_odd" {
		t.Errorf("payload['odd'] = %v; want example_odd", got)
	}
}

func TestDocExamplePayloadExcludes(t *testing.T) {
	d := &Draft{
		CollectionName: "accounts",
		Fields: []FieldSpec{
			{Name: "email", Type: FieldString},
			{Name: "password", Type: FieldString},
		},
	}

	payload := d.DocExamplePayload("password")
	if _, present := payload["password"]; present {
		t.Error("doc payload contains excluded field 'password'")
	}
	if _, present := payload["email"]; !present {
		t.Error("doc payload missing field 'email'")
	}
}

func TestEndpoints(t *testing.T) {
	d := NewDraft("")
	if endpoints, ok := d.Endpoints(); ok || endpoints != nil {
		t.Errorf("Endpoints() with empty name = %v, %v; want nil, false", endpoints, ok)
	}

	d.CollectionName = "users"
	endpoints, ok := d.Endpoints()
	if !ok {
		t.Fatal("Endpoints() ok = false; want true")
	}
	want := []Endpoint{
		{Method: "GET", Path: "/api/users"},
		{Method: "POST", Path: "/api/users"},
		{Method: "PUT", Path: "/api/users/:id"},
		{Method: "DELETE", Path: "/api/users/:id"},
	}
	if len(endpoints) != len(want) {
		t.Fatalf("len(endpoints) = %d; want %d", len(endpoints), len(want))
	}
	for i, e := range endpoints {
		if e != want[i] {
			t.Errorf("endpoints[%d] = %+v; want %+v", i, e, want[i])
		}
	}
}

func TestCanSubmit(t *testing.T) {
	testCases := []struct {
		name           string
		collectionName string
		fieldNames     []string
		want           bool
	}{
		{"named collection and fields", "users", []string{"email"}, true},
		{"empty collection name", "", []string{"email"}, false},
		{"one unnamed field", "users", []string{"email", ""}, false},
		{"all unnamed", "users", []string{""}, false},
		{"several named fields", "users", []string{"email", "age", "bio"}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := &Draft{CollectionName: tc.collectionName}
			for _, n := range tc.fieldNames {
				d.Fields = append(d.Fields, FieldSpec{Name: n, Type: FieldString, Visibility: VisibilityPublic})
			}
			if got := d.CanSubmit(); got != tc.want {
				t.Errorf("CanSubmit() = %v; want %v", got, tc.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Draft {
		return &Draft{
			CollectionName: "users",
			Fields: []FieldSpec{
				{Name: "email", Type: FieldString, Visibility: VisibilityPublic},
				{Name: "age", Type: FieldNumber, Visibility: VisibilityPublic},
			},
		}
	}

	testCases := []struct {
		name    string
		mutate  func(*Draft)
		wantErr bool
	}{
		{"valid draft", func(d *Draft) {}, false},
		{"bad collection name", func(d *Draft) { d.CollectionName = "my table" }, true},
		{"empty collection name", func(d *Draft) { d.CollectionName = "" }, true},
		{"no fields", func(d *Draft) { d.Fields = nil }, true},
		{"unnamed field", func(d *Draft) { d.Fields[0].Name = "" }, true},
		{"bad field name", func(d *Draft) { d.Fields[0].Name = "e-mail" }, true},
		{"reserved field name", func(d *Draft) { d.Fields[0].Name = "id" }, true},
		{"reserved mixed case", func(d *Draft) { d.Fields[0].Name = "Id" }, true},
		{"duplicate field names", func(d *Draft) { d.Fields[1].Name = "email" }, true},
		{"duplicate differing case", func(d *Draft) { d.Fields[1].Name = "EMAIL" }, true},
		{"unknown type", func(d *Draft) { d.Fields[0].Type = "uuid" }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := valid()
			tc.mutate(d)
			err := d.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("Validate() = nil; want error")
				}
				if !errors.Is(err, ErrInvalidDraft) {
					t.Errorf("Validate() error %v does not wrap ErrInvalidDraft", err)
				}
			} else if err != nil {
				t.Errorf("Validate() = %v; want nil", err)
			}
		})
	}
}

// TestUsersCollectionDerivation walks the end-to-end fixture: a three-field
// users draft and everything derived from it.
func TestUsersCollectionDerivation(t *testing.T) {
	d := NewDraft("users")
	d.UpdateField(0, FieldPatch{Name: strPtr("username")})
	d.AddField()
	d.UpdateField(1, FieldPatch{Name: strPtr("email")})
	d.AddField()
	d.UpdateField(2, FieldPatch{Name: strPtr("password"), Visibility: visPtr(VisibilityPrivate), Required: boolPtr(true)})

	if !d.CanSubmit() {
		t.Fatal("CanSubmit() = false; want true")
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("Validate() = %v; want nil", err)
	}

	preview := d.PreviewSchema()
	if len(preview) != 3 {
		t.Fatalf("len(preview) = %d; want 3", len(preview))
	}
	if preview["password"].Visibility != VisibilityPrivate || !preview["password"].Required {
		t.Errorf("preview['password'] = %+v; want private, required", preview["password"])
	}

	endpoints, ok := d.Endpoints()
	if !ok || len(endpoints) != 4 {
		t.Fatalf("Endpoints() = %v, %v; want four descriptors", endpoints, ok)
	}
	if endpoints[0].Path != "/api/users" {
		t.Errorf("endpoints[0].Path = %q; want /api/users", endpoints[0].Path)
	}

	payload := d.ExamplePayload()
	if len(payload) != 3 {
		t.Errorf("len(payload) = %d; want 3", len(payload))
	}
	if payload["username"] != "example_username" {
		t.Errorf("payload['username'] = %v", payload["username"])
	}
}

func TestFieldLookup(t *testing.T) {
	d := &Draft{
		CollectionName: "users",
		Fields: []FieldSpec{
			{Name: "email", Type: FieldString},
			{Name: "age", Type: FieldNumber},
		},
	}

	if f := d.Field("age"); f == nil || f.Type != FieldNumber {
		t.Errorf("Field('age') = %+v; want number field", f)
	}
	if f := d.Field("missing"); f != nil {
		t.Errorf("Field('missing') = %+v; want nil", f)
	}

	names := d.FieldNames()
	if len(names) != 2 || names[0] != "email" || names[1] != "age" {
		t.Errorf("FieldNames() = %v", names)
	}
}
