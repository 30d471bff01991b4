package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int    { return &i }
func boolPtr(b bool) *bool { return &b }

func accountSchema() *SchemaDefinition {
	return &SchemaDefinition{
		Name:    "accounts",
		Version: "1.0.0",
		Fields: map[string]*FieldDefinition{
			"id":     {Name: "id", Type: FieldTypeInteger, AutoIncrement: true},
			"email":  {Name: "email", Type: FieldTypeString, Required: boolPtr(true), Format: "email"},
			"name":   {Name: "name", Type: FieldTypeString, Required: boolPtr(true), MinLength: intPtr(2), MaxLength: intPtr(8)},
			"status": {Name: "status", Type: FieldTypeEnum, Values: []any{"CREATED", "VERIFIED"}},
			"active": {Name: "active", Type: FieldTypeBoolean},
			"secret": {Name: "secret", Type: FieldTypeString, Hidden: true},
		},
		Indexes: []IndexDefinition{
			{Name: "pk_accounts", Fields: []string{"id"}, Type: IndexTypePrimary},
		},
		Relations: map[string]RelationDefinition{
			"profile": {Name: "profile", Target: "profiles", LocalField: "id", ForeignField: "account_id"},
		},
	}
}

func TestSchemaDefinition_Helpers(t *testing.T) {
	s := accountSchema()
	require.NoError(t, s.Check())

	assert.Equal(t, []string{"active", "email", "id", "name", "secret", "status"}, s.FieldNames())
	assert.Equal(t, []string{"active", "email", "id", "name", "status"}, s.VisibleFieldNames())
	assert.Equal(t, []string{"id"}, s.PrimaryKey())
	assert.Equal(t, []string{"nope", "other"}, s.UnknownFields("email", "nope", "other"))
	assert.Nil(t, s.UnknownFields("email", "id"))
	assert.NotNil(t, s.FindField("email"))
	assert.Nil(t, s.FindField("missing"))

	rel, ok := s.Relation("profile")
	assert.True(t, ok)
	assert.Equal(t, "profiles", rel.Target)
}

func TestSchemaDefinition_Check(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SchemaDefinition)
		errMsg string
	}{
		{"missing name", func(s *SchemaDefinition) { s.Name = "" }, "table name"},
		{"mismatched key", func(s *SchemaDefinition) { s.Fields["email"].Name = "mail" }, "does not match"},
		{"bad index", func(s *SchemaDefinition) {
			s.Indexes = append(s.Indexes, IndexDefinition{Name: "idx", Fields: []string{"ghost"}, Type: IndexTypeNormal})
		}, "unknown fields"},
		{"bad relation", func(s *SchemaDefinition) {
			s.Relations["profile"] = RelationDefinition{Name: "profile", Target: "profiles", LocalField: "ghost", ForeignField: "x"}
		}, "unknown local field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := accountSchema()
			tt.mutate(s)
			err := s.Check()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCatalog(t *testing.T) {
	c, err := NewCatalog(accountSchema())
	require.NoError(t, err)

	s, ok := c.Get("accounts")
	assert.True(t, ok)
	assert.Equal(t, "accounts", s.Name)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	err = c.Register(accountSchema())
	assert.ErrorContains(t, err, "already registered")
	assert.Error(t, c.Register(nil))

	assert.Equal(t, []string{"accounts"}, c.Names())
}

func TestValidator_Validate(t *testing.T) {
	tests := []struct {
		name  string
		data  map[string]any
		loose bool
		valid bool
		codes []string
	}{
		{
			name:  "valid document",
			data:  map[string]any{"email": "a@example.com", "name": "Alice", "status": "CREATED", "active": "true"},
			valid: true,
		},
		{
			name:  "missing required",
			data:  map[string]any{"name": "Alice"},
			codes: []string{"REQUIRED_FIELD_MISSING"},
		},
		{
			name:  "missing required in loose mode",
			data:  map[string]any{"name": "Alice"},
			loose: true,
			valid: true,
		},
		{
			name:  "bad enum and unexpected field",
			data:  map[string]any{"email": "a@example.com", "name": "Alice", "status": "DELETED", "extra": 1},
			codes: []string{"INVALID_ENUM_VALUE", "UNEXPECTED_FIELD"},
		},
		{
			name:  "string bounds and format",
			data:  map[string]any{"email": "not-an-email", "name": "A"},
			codes: []string{"INVALID_FORMAT", "STRING_TOO_SHORT"},
		},
		{
			name:  "type mismatch",
			data:  map[string]any{"email": "a@example.com", "name": "Alice", "active": 3},
			codes: []string{"TYPE_MISMATCH"},
		},
		{
			name:  "null required",
			data:  map[string]any{"email": nil, "name": "Alice"},
			codes: []string{"NULL_VALUE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, issues := NewValidator(accountSchema()).Validate(tt.data, tt.loose)
			assert.Equal(t, tt.valid, valid)
			var codes []string
			for _, issue := range issues {
				codes = append(codes, issue.Code)
			}
			assert.Equal(t, tt.codes, codes)
		})
	}
}
