// Package schema describes the entities the query resolver builds queries
// against: their fields, indexes and the relations that can be joined from
// them. It is the metadata catalog consulted by storage backends when they
// render a query, and by callers that want to validate filter keys or incoming
// documents before touching the database.
package schema

import (
	"fmt"
	"sort"
)

// FieldType represents the basic field types supported by the schema system.
type FieldType string

const (
	FieldTypeString   FieldType = "string"   // Text data
	FieldTypeInteger  FieldType = "integer"  // Whole numbers
	FieldTypeNumber   FieldType = "number"   // Floating point numbers
	FieldTypeBoolean  FieldType = "boolean"  // True/false values
	FieldTypeEnum     FieldType = "enum"     // One out of a set of pre-defined items
	FieldTypeDateTime FieldType = "datetime" // Timestamps
)

// IndexType represents index types for optimizing different query patterns.
type IndexType string

const (
	IndexTypeNormal  IndexType = "normal"  // General-purpose index
	IndexTypeUnique  IndexType = "unique"  // Unique index
	IndexTypePrimary IndexType = "primary" // Primary key index (implies unique)
)

// FieldDefinition defines a column of an entity.
type FieldDefinition struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
	// Required indicates if the field is mandatory on insert.
	Required *bool `json:"required,omitempty"`
	// Default provides a default value for the column.
	Default any `json:"default,omitempty"`
	// Values specifies the allowed values for an 'enum' type field.
	Values []any `json:"values,omitempty"`
	// Unique indicates if the field must have unique values.
	Unique *bool `json:"unique,omitempty"`
	// AutoIncrement marks integer primary keys generated by the database.
	AutoIncrement bool `json:"autoIncrement,omitempty"`
	// Hidden fields are never returned in resources (e.g. password hashes).
	Hidden bool `json:"hidden,omitempty"`
	// MinLength and MaxLength bound string values.
	MinLength *int `json:"minLength,omitempty"`
	MaxLength *int `json:"maxLength,omitempty"`
	// Format names a well-known string format, currently only "email".
	Format      string  `json:"format,omitempty"`
	Description *string `json:"description,omitempty"`
}

// IsRequired reports whether the field must be present on insert.
func (f *FieldDefinition) IsRequired() bool {
	return f.Required != nil && *f.Required
}

// IndexDefinition defines an index for optimizing queries or enforcing uniqueness.
type IndexDefinition struct {
	Name   string    `json:"name"`
	Fields []string  `json:"fields"`
	Type   IndexType `json:"type"`
}

// RelationDefinition describes a relation reachable from an entity.
//
// A join through the relation renders as
//
//	LEFT JOIN <Target> <alias> ON <alias>.<ForeignField> = <source>.<LocalField>
type RelationDefinition struct {
	Name         string `json:"name"`
	Target       string `json:"target"`
	LocalField   string `json:"localField"`
	ForeignField string `json:"foreignField"`
}

// SchemaDefinition defines a complete entity, backed by one table.
type SchemaDefinition struct {
	Name        string                        `json:"name"`
	Version     string                        `json:"version"`
	Description *string                       `json:"description,omitempty"`
	Fields      map[string]*FieldDefinition   `json:"fields"`
	Indexes     []IndexDefinition             `json:"indexes,omitempty"`
	Relations   map[string]RelationDefinition `json:"relations,omitempty"`
}

// FindField returns the field definition with the given name, or nil.
func (s *SchemaDefinition) FindField(name string) *FieldDefinition {
	if f, ok := s.Fields[name]; ok {
		return f
	}
	return nil
}

// FieldNames returns the names of all fields in sorted order.
func (s *SchemaDefinition) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VisibleFieldNames returns the names of non-hidden fields in sorted order.
func (s *SchemaDefinition) VisibleFieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for _, name := range s.FieldNames() {
		if !s.Fields[name].Hidden {
			names = append(names, name)
		}
	}
	return names
}

// UnknownFields returns the keys that are not fields of the schema, in the
// order they were given.
func (s *SchemaDefinition) UnknownFields(keys ...string) []string {
	var unknown []string
	for _, key := range keys {
		if _, ok := s.Fields[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	return unknown
}

// Relation returns the named relation.
func (s *SchemaDefinition) Relation(name string) (RelationDefinition, bool) {
	r, ok := s.Relations[name]
	return r, ok
}

// PrimaryKey returns the fields of the primary index, if any.
func (s *SchemaDefinition) PrimaryKey() []string {
	for _, index := range s.Indexes {
		if index.Type == IndexTypePrimary && len(index.Fields) > 0 {
			return index.Fields
		}
	}
	return nil
}

// Check verifies the definition is internally consistent.
func (s *SchemaDefinition) Check() error {
	if s.Name == "" {
		return fmt.Errorf("schema must define a table name")
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema '%s' has no fields", s.Name)
	}
	for key, field := range s.Fields {
		if field.Name != key {
			return fmt.Errorf("schema '%s': field key '%s' does not match name '%s'", s.Name, key, field.Name)
		}
	}
	for _, index := range s.Indexes {
		if unknown := s.UnknownFields(index.Fields...); len(unknown) > 0 {
			return fmt.Errorf("schema '%s': index '%s' references unknown fields %v", s.Name, index.Name, unknown)
		}
	}
	for name, rel := range s.Relations {
		if rel.Name != name {
			return fmt.Errorf("schema '%s': relation key '%s' does not match name '%s'", s.Name, name, rel.Name)
		}
		if s.FindField(rel.LocalField) == nil {
			return fmt.Errorf("schema '%s': relation '%s' references unknown local field '%s'", s.Name, name, rel.LocalField)
		}
	}
	return nil
}

// Issue represents a validation or operational issue.
type Issue struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Path        string `json:"path,omitempty"`
	Severity    string `json:"severity,omitempty"` // e.g., "error", "warning"
	Description string `json:"description,omitempty"`
}

type ValidationResult struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues"`
}

// Document is a single row, keyed by column (or output alias) name.
type Document map[string]any
