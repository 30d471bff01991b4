package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/asaidimu/go-roster/core/persistence"
	"github.com/asaidimu/go-roster/core/schema"
)

// DefaultInteractorOptions returns the options used when none are given.
func DefaultInteractorOptions() *persistence.InteractorOptions {
	return &persistence.InteractorOptions{
		IfNotExists:   true,
		CreateIndexes: true,
	}
}

func (s *Interactor) tableName(baseName string) string {
	return QuoteIdentifier(s.options.TablePrefix + baseName)
}

// CreateCollection creates the table of sc and, when enabled, its indexes.
func (s *Interactor) CreateCollection(ctx context.Context, sc schema.SchemaDefinition) error {
	if s.options.DropIfExists {
		if err := s.DropCollection(ctx, sc.Name); err != nil {
			return err
		}
	}

	stmt, err := s.CreateTableSQL(sc)
	if err != nil {
		return fmt.Errorf("failed to generate SQL for table %s: %w", sc.Name, err)
	}
	if _, err := s.runner().ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to execute SQL statement '%s': %w", stmt, err)
	}

	if !s.options.CreateIndexes {
		return nil
	}
	for _, index := range sc.Indexes {
		sqlIndex := s.CreateIndexSQL(sc.Name, index)
		if sqlIndex == "" {
			continue
		}
		if _, err := s.runner().ExecContext(ctx, sqlIndex); err != nil {
			return fmt.Errorf("failed to create index %s: %w", index.Name, err)
		}
	}
	return nil
}

// CreateTableSQL renders the CREATE TABLE statement of sc. Columns are
// rendered in sorted order.
func (s *Interactor) CreateTableSQL(sc schema.SchemaDefinition) (string, error) {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	if s.options.IfNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(s.tableName(sc.Name) + " (\n")

	var columns []string
	hasGeneratedKey := false
	for _, name := range sc.FieldNames() {
		field := sc.Fields[name]
		if field.AutoIncrement {
			hasGeneratedKey = true
		}
		columnDef, err := s.buildColumnDefinition(field)
		if err != nil {
			return "", fmt.Errorf("error on field '%s': %w", name, err)
		}
		columns = append(columns, "    "+columnDef)
	}

	if pk := sc.PrimaryKey(); len(pk) > 0 && !hasGeneratedKey {
		quoted := make([]string, len(pk))
		for i, f := range pk {
			quoted[i] = QuoteIdentifier(f)
		}
		columns = append(columns, "    PRIMARY KEY ("+strings.Join(quoted, ", ")+")")
	}

	sb.WriteString(strings.Join(columns, ",\n"))
	sb.WriteString("\n)")
	return sb.String(), nil
}

func (s *Interactor) buildColumnDefinition(field *schema.FieldDefinition) (string, error) {
	name := QuoteIdentifier(field.Name)
	if field.AutoIncrement {
		if field.Type != schema.FieldTypeInteger {
			return "", fmt.Errorf("auto increment requires an integer field, got %s", field.Type)
		}
		return s.dialect.AutoIncrementColumn(name), nil
	}

	parts := []string{name, s.dialect.ColumnType(field)}
	if field.IsRequired() {
		parts = append(parts, "NOT NULL")
	}
	if field.Default != nil {
		defVal, err := formatDefaultValue(s.dialect, field.Default, field.Type)
		if err != nil {
			return "", err
		}
		parts = append(parts, "DEFAULT "+defVal)
	}
	if field.Unique != nil && *field.Unique {
		parts = append(parts, "UNIQUE")
	}
	if field.Type == schema.FieldTypeEnum && len(field.Values) > 0 {
		checkValues := make([]string, 0, len(field.Values))
		for _, v := range field.Values {
			valStr, _ := formatDefaultValue(s.dialect, v, schema.FieldTypeString)
			checkValues = append(checkValues, valStr)
		}
		parts = append(parts, fmt.Sprintf("CHECK(%s IN (%s))", name, strings.Join(checkValues, ", ")))
	}
	return strings.Join(parts, " "), nil
}

func formatDefaultValue(d Dialect, value any, fieldType schema.FieldType) (string, error) {
	if value == nil {
		return "NULL", nil
	}
	switch fieldType {
	case schema.FieldTypeString, schema.FieldTypeEnum, schema.FieldTypeDateTime:
		return "'" + strings.ReplaceAll(fmt.Sprintf("%v", value), "'", "''") + "'", nil
	case schema.FieldTypeNumber, schema.FieldTypeInteger:
		return fmt.Sprintf("%v", value), nil
	case schema.FieldTypeBoolean:
		b, _ := value.(bool)
		if _, isSQLite := d.(SQLite); isSQLite {
			if b {
				return "1", nil
			}
			return "0", nil
		}
		if b {
			return "TRUE", nil
		}
		return "FALSE", nil
	}
	return "", fmt.Errorf("unsupported type for default value: %s", fieldType)
}

// CreateIndexSQL renders the CREATE INDEX statement of index. Primary
// indexes are part of the table and render as "".
func (s *Interactor) CreateIndexSQL(table string, index schema.IndexDefinition) string {
	if index.Type == schema.IndexTypePrimary || len(index.Fields) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("CREATE ")
	if index.Type == schema.IndexTypeUnique {
		sb.WriteString("UNIQUE ")
	}
	sb.WriteString("INDEX IF NOT EXISTS ")
	indexName := index.Name
	if indexName == "" {
		indexName = fmt.Sprintf("idx_%s%s_%s", s.options.TablePrefix, table, strings.Join(index.Fields, "_"))
	}
	sb.WriteString(QuoteIdentifier(indexName))
	sb.WriteString(" ON " + s.tableName(table) + " (")

	fields := make([]string, len(index.Fields))
	for i, f := range index.Fields {
		fields[i] = QuoteIdentifier(f)
	}
	sb.WriteString(strings.Join(fields, ", ") + ")")
	return sb.String()
}

// DropCollection drops a table if it exists.
func (s *Interactor) DropCollection(ctx context.Context, name string) error {
	stmt := "DROP TABLE IF EXISTS " + s.tableName(name)
	if _, err := s.runner().ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", name, err)
	}
	return nil
}

// CollectionExists checks if a table exists in the database.
func (s *Interactor) CollectionExists(ctx context.Context, name string) (bool, error) {
	rows, err := s.runner().QueryContext(ctx, s.dialect.TableExistsSQL(), s.options.TablePrefix+name)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	exists := rows.Next()
	return exists, rows.Err()
}
