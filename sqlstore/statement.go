package sqlstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/asaidimu/go-roster/core/persistence"
	"github.com/asaidimu/go-roster/core/query"
	"github.com/asaidimu/go-roster/core/schema"
)

var (
	// ErrUnknownEntity is returned for an entity missing from the catalog.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrUnknownRelation is returned when a join names a relation its source
	// entity does not define, or a source alias the statement does not know.
	ErrUnknownRelation = errors.New("unknown relation")
)

type selectColumn struct {
	expr   string
	output string
	field  *schema.FieldDefinition
}

type joinClause struct {
	source string
	alias  string
	target *schema.SchemaDefinition
	rel    schema.RelationDefinition
}

type whereClause struct {
	condition string
	params    map[string]any
}

type orderClause struct {
	column    string
	direction query.SortDirection
}

// SelectQuery is a SELECT rooted at one entity. Errors raised while it is
// being built are kept and returned by ToSQL and CountSQL.
type SelectQuery struct {
	dialect Dialect
	catalog *schema.Catalog
	prefix  string
	root    *schema.SchemaDefinition

	aliases  map[string]*schema.SchemaDefinition
	joins    []joinClause
	wheres   []whereClause
	selected []selectColumn
	explicit bool
	added    []selectColumn
	orders   []orderClause
	skip     int
	take     int
	err      error
}

var _ persistence.Statement = (*SelectQuery)(nil)

// NewSelectQuery begins a SELECT on entity, aliased query.RootAlias.
func NewSelectQuery(dialect Dialect, catalog *schema.Catalog, prefix, entity string) (*SelectQuery, error) {
	root, ok := catalog.Get(entity)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}
	return &SelectQuery{
		dialect: dialect,
		catalog: catalog,
		prefix:  prefix,
		root:    root,
		aliases: map[string]*schema.SchemaDefinition{query.RootAlias: root},
	}, nil
}

func (q *SelectQuery) fail(err error) {
	if q.err == nil {
		q.err = err
	}
}

func (q *SelectQuery) table(name string) string {
	return QuoteIdentifier(q.prefix + name)
}

func (q *SelectQuery) Alias() string { return query.RootAlias }

func (q *SelectQuery) Entity() string { return q.root.Name }

func (q *SelectQuery) LeftJoinAndSelect(sourceAlias, relation, alias string) query.Handle {
	source, ok := q.aliases[sourceAlias]
	if !ok {
		q.fail(fmt.Errorf("%w: source alias %q is not part of the query", ErrUnknownRelation, sourceAlias))
		return q
	}
	rel, ok := source.Relation(relation)
	if !ok {
		q.fail(fmt.Errorf("%w: %q on %q", ErrUnknownRelation, relation, source.Name))
		return q
	}
	target, ok := q.catalog.Get(rel.Target)
	if !ok {
		q.fail(fmt.Errorf("%w: %q (target of %s.%s)", ErrUnknownEntity, rel.Target, source.Name, relation))
		return q
	}
	if !query.ValidIdentifier(alias) {
		q.fail(fmt.Errorf("%w: alias %q", query.ErrInvalidIdentifier, alias))
		return q
	}
	if _, taken := q.aliases[alias]; taken {
		q.fail(fmt.Errorf("alias %q is already in use", alias))
		return q
	}
	q.aliases[alias] = target
	q.joins = append(q.joins, joinClause{source: sourceAlias, alias: alias, target: target, rel: rel})
	return q
}

func (q *SelectQuery) Where(condition string, params map[string]any) query.Handle {
	q.wheres = append(q.wheres, whereClause{condition: condition, params: params})
	return q
}

func (q *SelectQuery) Select(columns ...string) query.Handle {
	q.explicit = true
	q.selected = q.selected[:0]
	for _, c := range columns {
		col := q.column(c)
		q.selected = append(q.selected, col)
	}
	return q
}

func (q *SelectQuery) AddSelect(column, alias string) query.Handle {
	if !query.ValidIdentifier(alias) {
		q.fail(fmt.Errorf("%w: output name %q", query.ErrInvalidIdentifier, alias))
		return q
	}
	col := q.column(column)
	col.output = alias
	q.added = append(q.added, col)
	return q
}

func (q *SelectQuery) OrderBy(column string, direction query.SortDirection) persistence.Statement {
	q.orders = append(q.orders, orderClause{column: column, direction: direction})
	return q
}

func (q *SelectQuery) Skip(n int) persistence.Statement {
	q.skip = n
	return q
}

func (q *SelectQuery) Take(n int) persistence.Statement {
	q.take = n
	return q
}

// column resolves an "alias.field" reference. Anything else is used as a
// raw expression.
func (q *SelectQuery) column(ref string) selectColumn {
	alias, field, ok := strings.Cut(ref, ".")
	if ok {
		if s, known := q.aliases[alias]; known {
			if def := s.FindField(field); def != nil {
				return selectColumn{expr: alias + "." + QuoteIdentifier(field), output: field, field: def}
			}
		}
	}
	output := ref
	if ok {
		output = field
	}
	return selectColumn{expr: ref, output: output}
}

func (q *SelectQuery) defaultColumns() []selectColumn {
	var cols []selectColumn
	for _, name := range q.root.FieldNames() {
		cols = append(cols, selectColumn{
			expr:   query.RootAlias + "." + QuoteIdentifier(name),
			output: name,
			field:  q.root.Fields[name],
		})
	}
	for _, j := range q.joins {
		for _, name := range j.target.FieldNames() {
			cols = append(cols, selectColumn{
				expr:   j.alias + "." + QuoteIdentifier(name),
				output: query.JoinedColumnName(j.alias, name),
				field:  j.target.Fields[name],
			})
		}
	}
	return cols
}

func (q *SelectQuery) columns() []selectColumn {
	cols := q.selected
	if !q.explicit {
		cols = q.defaultColumns()
	}
	return append(append([]selectColumn(nil), cols...), q.added...)
}

// ColumnTypes maps each output name to the field it reads, when known.
func (q *SelectQuery) ColumnTypes() map[string]*schema.FieldDefinition {
	types := make(map[string]*schema.FieldDefinition)
	for _, c := range q.columns() {
		if c.field != nil {
			types[c.output] = c.field
		}
	}
	return types
}

// from renders the FROM, JOIN and WHERE clauses.
func (q *SelectQuery) from() (string, []any, error) {
	var sb strings.Builder
	sb.WriteString(" FROM " + q.table(q.root.Name) + " " + query.RootAlias)
	for _, j := range q.joins {
		fmt.Fprintf(&sb, " LEFT JOIN %s %s ON %s.%s = %s.%s",
			q.table(j.target.Name), j.alias,
			j.alias, QuoteIdentifier(j.rel.ForeignField),
			j.source, QuoteIdentifier(j.rel.LocalField))
	}

	var args []any
	var conditions []string
	for _, w := range q.wheres {
		cond, bound, err := bindNamed(q.dialect, q.dialect.RewriteCondition(w.condition), w.params, len(args))
		if err != nil {
			return "", nil, err
		}
		conditions = append(conditions, "("+cond+")")
		args = append(args, bound...)
	}
	if len(conditions) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	return sb.String(), args, nil
}

// ToSQL renders the statement and its positional arguments.
func (q *SelectQuery) ToSQL() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}

	cols := q.columns()
	rendered := make([]string, len(cols))
	for i, c := range cols {
		rendered[i] = c.expr + " AS " + QuoteIdentifier(c.output)
	}

	from, args, err := q.from()
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + strings.Join(rendered, ", "))
	sb.WriteString(from)

	if len(q.orders) > 0 {
		orders := make([]string, len(q.orders))
		for i, o := range q.orders {
			dir := "ASC"
			if o.direction == query.SortDirectionDesc {
				dir = "DESC"
			}
			orders[i] = q.column(o.column).expr + " " + dir
		}
		sb.WriteString(" ORDER BY " + strings.Join(orders, ", "))
	}
	if page := q.dialect.LimitOffset(q.take, q.skip); page != "" {
		sb.WriteString(" " + page)
	}
	return sb.String(), args, nil
}

// CountSQL renders a query counting the rows ToSQL would return without
// pagination.
func (q *SelectQuery) CountSQL() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	from, args, err := q.from()
	if err != nil {
		return "", nil, err
	}
	count := "COUNT(*)"
	if pk := q.root.PrimaryKey(); len(pk) == 1 && len(q.joins) > 0 {
		count = "COUNT(DISTINCT " + query.RootAlias + "." + QuoteIdentifier(pk[0]) + ")"
	}
	return "SELECT " + count + from, args, nil
}
