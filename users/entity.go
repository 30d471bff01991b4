// Package users manages user records and their profiles on top of the
// persistence layer.
package users

import (
	"time"

	"github.com/asaidimu/go-roster/core/schema"
)

const (
	// Entity is the name of the users collection.
	Entity = "users"
	// ProfilesEntity is the name of the profiles collection.
	ProfilesEntity = "profiles"
	// ProfileRelation joins a user to its profile.
	ProfileRelation = "profile"
)

// Status is the lifecycle state of a user.
type Status string

const (
	StatusCreated  Status = "CREATED"
	StatusVerified Status = "VERIFIED"
)

// Role is the authorization level of a user.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleUser       Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleSuperAdmin || r == RoleUser
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusCreated || s == StatusVerified
}

// User is a row of the users collection.
type User struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	Name      string     `json:"name"`
	Status    Status     `json:"status"`
	Role      Role       `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at"`
	Profile   *Profile   `json:"profile,omitempty"`
}

// Profile is a row of the profiles collection.
type Profile struct {
	ID     int64   `json:"id"`
	UserID int64   `json:"user_id"`
	Avatar *string `json:"avatar"`
	Bio    *string `json:"bio"`
}

func yes() *bool {
	t := true
	return &t
}

func length(n int) *int {
	return &n
}

// Schemas returns the definitions of the users and profiles collections.
func Schemas() []*schema.SchemaDefinition {
	usersSchema := &schema.SchemaDefinition{
		Name:    Entity,
		Version: "1.0.0",
		Fields: map[string]*schema.FieldDefinition{
			"id":         {Name: "id", Type: schema.FieldTypeInteger, AutoIncrement: true},
			"email":      {Name: "email", Type: schema.FieldTypeString, Required: yes(), Unique: yes(), Format: "email"},
			"password":   {Name: "password", Type: schema.FieldTypeString, Required: yes(), Hidden: true},
			"name":       {Name: "name", Type: schema.FieldTypeString, Required: yes(), MinLength: length(1)},
			"status":     {Name: "status", Type: schema.FieldTypeEnum, Values: []any{string(StatusCreated), string(StatusVerified)}, Default: string(StatusCreated)},
			"role":       {Name: "role", Type: schema.FieldTypeEnum, Values: []any{string(RoleSuperAdmin), string(RoleUser)}, Default: string(RoleUser)},
			"created_at": {Name: "created_at", Type: schema.FieldTypeDateTime},
			"updated_at": {Name: "updated_at", Type: schema.FieldTypeDateTime},
			"deleted_at": {Name: "deleted_at", Type: schema.FieldTypeDateTime},
		},
		Indexes: []schema.IndexDefinition{
			{Name: "pk_users", Fields: []string{"id"}, Type: schema.IndexTypePrimary},
			{Name: "idx_users_created_at", Fields: []string{"created_at"}, Type: schema.IndexTypeNormal},
		},
		Relations: map[string]schema.RelationDefinition{
			ProfileRelation: {Name: ProfileRelation, Target: ProfilesEntity, LocalField: "id", ForeignField: "user_id"},
		},
	}

	profilesSchema := &schema.SchemaDefinition{
		Name:    ProfilesEntity,
		Version: "1.0.0",
		Fields: map[string]*schema.FieldDefinition{
			"id":      {Name: "id", Type: schema.FieldTypeInteger, AutoIncrement: true},
			"user_id": {Name: "user_id", Type: schema.FieldTypeInteger, Required: yes()},
			"avatar":  {Name: "avatar", Type: schema.FieldTypeString},
			"bio":     {Name: "bio", Type: schema.FieldTypeString, MaxLength: length(500)},
		},
		Indexes: []schema.IndexDefinition{
			{Name: "idx_profiles_user_id", Fields: []string{"user_id"}, Type: schema.IndexTypeUnique},
		},
		Relations: map[string]schema.RelationDefinition{
			"user": {Name: "user", Target: Entity, LocalField: "user_id", ForeignField: "id"},
		},
	}
	return []*schema.SchemaDefinition{usersSchema, profilesSchema}
}

// NewCatalog returns a catalog holding Schemas.
func NewCatalog() (*schema.Catalog, error) {
	return schema.NewCatalog(Schemas()...)
}
