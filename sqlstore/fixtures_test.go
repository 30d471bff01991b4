package sqlstore

import (
	"context"
	"testing"

	"github.com/asaidimu/go-roster/core/schema"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func testCatalog(t *testing.T) *schema.Catalog {
	t.Helper()
	users := &schema.SchemaDefinition{
		Name:    "users",
		Version: "1.0.0",
		Fields: map[string]*schema.FieldDefinition{
			"id":         {Name: "id", Type: schema.FieldTypeInteger, AutoIncrement: true},
			"email":      {Name: "email", Type: schema.FieldTypeString, Required: boolPtr(true), Unique: boolPtr(true)},
			"name":       {Name: "name", Type: schema.FieldTypeString},
			"status":     {Name: "status", Type: schema.FieldTypeEnum, Values: []any{"CREATED", "VERIFIED"}, Default: "CREATED"},
			"created_at": {Name: "created_at", Type: schema.FieldTypeDateTime},
		},
		Indexes: []schema.IndexDefinition{
			{Name: "pk_users", Fields: []string{"id"}, Type: schema.IndexTypePrimary},
			{Name: "idx_users_created_at", Fields: []string{"created_at"}, Type: schema.IndexTypeNormal},
		},
		Relations: map[string]schema.RelationDefinition{
			"profile": {Name: "profile", Target: "profiles", LocalField: "id", ForeignField: "user_id"},
		},
	}
	profiles := &schema.SchemaDefinition{
		Name:    "profiles",
		Version: "1.0.0",
		Fields: map[string]*schema.FieldDefinition{
			"id":      {Name: "id", Type: schema.FieldTypeInteger, AutoIncrement: true},
			"user_id": {Name: "user_id", Type: schema.FieldTypeInteger, Required: boolPtr(true)},
			"avatar":  {Name: "avatar", Type: schema.FieldTypeString},
			"active":  {Name: "active", Type: schema.FieldTypeBoolean, Default: true},
		},
		Indexes: []schema.IndexDefinition{
			{Fields: []string{"user_id"}, Type: schema.IndexTypeUnique},
		},
		Relations: map[string]schema.RelationDefinition{
			"user": {Name: "user", Target: "users", LocalField: "user_id", ForeignField: "id"},
		},
	}
	catalog, err := schema.NewCatalog(users, profiles)
	require.NoError(t, err)
	return catalog
}

// newTestInteractor opens a private in-memory SQLite database holding the
// fixture tables.
func newTestInteractor(t *testing.T) *Interactor {
	t.Helper()
	ctx := context.Background()
	db, dialect, err := Open(ctx, Config{Driver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	catalog := testCatalog(t)
	interactor := NewInteractor(db, dialect, catalog, nil, nil)
	for _, name := range catalog.Names() {
		s, _ := catalog.Get(name)
		require.NoError(t, interactor.CreateCollection(ctx, *s))
	}
	return interactor
}
