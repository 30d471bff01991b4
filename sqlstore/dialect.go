package sqlstore

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/asaidimu/go-roster/core/schema"
)

// Dialect holds what differs between the SQL databases the store can run on.
type Dialect interface {
	// Name is the name of the database/sql driver the dialect is used with.
	Name() string
	// Placeholder renders the n-th positional parameter, starting at 1.
	Placeholder(n int) string
	// RewriteCondition adapts a compiled condition to the dialect before its
	// parameters are bound.
	RewriteCondition(condition string) string
	// ColumnType maps a field to a column type.
	ColumnType(field *schema.FieldDefinition) string
	// AutoIncrementColumn renders the definition of a generated integer key.
	AutoIncrementColumn(quotedName string) string
	// LimitOffset renders the pagination clause, or "" when there is none.
	LimitOffset(take, skip int) string
	// TableExistsSQL selects one row when the table named by parameter 1 exists.
	TableExistsSQL() string
	// BindValue converts a Go value to what the driver stores for field.
	BindValue(field *schema.FieldDefinition, value any) any
}

// QuoteIdentifier quotes a table or column name.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// DialectFor returns the dialect registered for a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return SQLite{}, nil
	case "pgx", "postgres", "postgresql":
		return Postgres{}, nil
	}
	return nil, fmt.Errorf("unsupported driver %q", driver)
}

// SQLite is the dialect of github.com/mattn/go-sqlite3.
type SQLite struct{}

var ilikePattern = regexp.MustCompile(`(\S+) ILIKE (:\w+)`)

func (SQLite) Name() string { return "sqlite3" }

func (SQLite) Placeholder(int) string { return "?" }

// RewriteCondition turns ILIKE, which SQLite lacks, into a LIKE on lowered
// operands.
func (SQLite) RewriteCondition(condition string) string {
	return ilikePattern.ReplaceAllString(condition, "lower($1) LIKE lower($2)")
}

func (SQLite) ColumnType(field *schema.FieldDefinition) string {
	switch field.Type {
	case schema.FieldTypeInteger, schema.FieldTypeBoolean:
		return "INTEGER"
	case schema.FieldTypeNumber:
		return "REAL"
	case schema.FieldTypeDateTime:
		return "DATETIME"
	default:
		return "TEXT"
	}
}

func (SQLite) AutoIncrementColumn(quotedName string) string {
	return quotedName + " INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (SQLite) LimitOffset(take, skip int) string {
	switch {
	case take > 0 && skip > 0:
		return "LIMIT " + strconv.Itoa(take) + " OFFSET " + strconv.Itoa(skip)
	case take > 0:
		return "LIMIT " + strconv.Itoa(take)
	case skip > 0:
		return "LIMIT -1 OFFSET " + strconv.Itoa(skip)
	}
	return ""
}

func (SQLite) TableExistsSQL() string {
	return "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?"
}

func (SQLite) BindValue(field *schema.FieldDefinition, value any) any {
	value = bindCommon(value)
	if field != nil && field.Type == schema.FieldTypeBoolean {
		if b, ok := value.(bool); ok {
			if b {
				return 1
			}
			return 0
		}
	}
	return value
}

// Postgres is the dialect of github.com/jackc/pgx/v5/stdlib.
type Postgres struct{}

func (Postgres) Name() string { return "pgx" }

func (Postgres) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (Postgres) RewriteCondition(condition string) string { return condition }

func (Postgres) ColumnType(field *schema.FieldDefinition) string {
	switch field.Type {
	case schema.FieldTypeInteger:
		return "BIGINT"
	case schema.FieldTypeBoolean:
		return "BOOLEAN"
	case schema.FieldTypeNumber:
		return "DOUBLE PRECISION"
	case schema.FieldTypeDateTime:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

func (Postgres) AutoIncrementColumn(quotedName string) string {
	return quotedName + " BIGSERIAL PRIMARY KEY"
}

func (Postgres) LimitOffset(take, skip int) string {
	var parts []string
	if take > 0 {
		parts = append(parts, "LIMIT "+strconv.Itoa(take))
	}
	if skip > 0 {
		parts = append(parts, "OFFSET "+strconv.Itoa(skip))
	}
	return strings.Join(parts, " ")
}

func (Postgres) TableExistsSQL() string {
	return "SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1"
}

func (Postgres) BindValue(_ *schema.FieldDefinition, value any) any {
	return bindCommon(value)
}
