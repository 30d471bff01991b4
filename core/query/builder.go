package query

import (
	"fmt"
	"strings"

	"github.com/asaidimu/go-roster/core/pagination"
)

// QueryBuilder provides a fluent API for building QueryOptions.
type QueryBuilder struct {
	options QueryOptions
}

// NewQueryBuilder creates a new, empty query builder instance.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

// Build returns a copy of the constructed options.
func (qb *QueryBuilder) Build() QueryOptions {
	return qb.options.Clone()
}

// Clone creates a deep copy of the builder.
func (qb *QueryBuilder) Clone() *QueryBuilder {
	return &QueryBuilder{options: qb.options.Clone()}
}

// Reset clears all configuration from the builder.
func (qb *QueryBuilder) Reset() *QueryBuilder {
	qb.options = QueryOptions{}
	return qb
}

// Include adds dotted relation paths to join.
func (qb *QueryBuilder) Include(paths ...string) *QueryBuilder {
	qb.options.Includes = append(qb.options.Includes, paths...)
	return qb
}

// Where begins a filter on field.
func (qb *QueryBuilder) Where(field string) *FilterConditionBuilder {
	return &FilterConditionBuilder{parent: qb, field: field}
}

// Select restricts the root columns returned.
func (qb *QueryBuilder) Select(fields ...string) *QueryBuilder {
	qb.options.Selects = append(qb.options.Selects, fields...)
	return qb
}

// SelectJoined adds columns of a root-level included relation.
func (qb *QueryBuilder) SelectJoined(relation string, fields ...string) *QueryBuilder {
	if qb.options.SelectsWithJoin == nil {
		qb.options.SelectsWithJoin = make(map[string][]string)
	}
	qb.options.SelectsWithJoin[relation] = append(qb.options.SelectsWithJoin[relation], fields...)
	return qb
}

// OrderBy adds a sort on a root field.
func (qb *QueryBuilder) OrderBy(field string, direction SortDirection) *QueryBuilder {
	qb.options.Orders = append(qb.options.Orders, Order{Field: field, Direction: direction})
	return qb
}

// OrderByAsc adds an ascending sort order for a specific field.
func (qb *QueryBuilder) OrderByAsc(field string) *QueryBuilder {
	return qb.OrderBy(field, SortDirectionAsc)
}

// OrderByDesc adds a descending sort order for a specific field.
func (qb *QueryBuilder) OrderByDesc(field string) *QueryBuilder {
	return qb.OrderBy(field, SortDirectionDesc)
}

// Page sets page-based pagination.
func (qb *QueryBuilder) Page(page, take int) *QueryBuilder {
	if qb.options.Pagination == nil {
		qb.options.Pagination = &pagination.PageOptions{}
	}
	qb.options.Pagination.Page = page
	qb.options.Pagination.Take = take
	return qb
}

// FilterConditionBuilder builds the filter of a single field.
type FilterConditionBuilder struct {
	parent *QueryBuilder
	field  string
}

// Is sets an equality shortcut on the field.
func (fcb *FilterConditionBuilder) Is(value any) *QueryBuilder {
	return fcb.set(Scalar{Value: value})
}

// OneOf sets a set-membership shortcut on the field.
func (fcb *FilterConditionBuilder) OneOf(values ...any) *QueryBuilder {
	if values == nil {
		values = []any{}
	}
	return fcb.set(Set{Values: values})
}

// IsNull requires the field to be NULL.
func (fcb *FilterConditionBuilder) IsNull() *QueryBuilder {
	return fcb.set(IsNull{})
}

// Eq adds an equality condition.
func (fcb *FilterConditionBuilder) Eq(value any) *QueryBuilder {
	return fcb.addCondition(OpEq, value)
}

// Neq adds a not-equal condition.
func (fcb *FilterConditionBuilder) Neq(value any) *QueryBuilder {
	return fcb.addCondition(OpNeq, value)
}

// Gt adds a greater-than condition.
func (fcb *FilterConditionBuilder) Gt(value any) *QueryBuilder {
	return fcb.addCondition(OpGt, value)
}

// Gte adds a greater-than-or-equal condition.
func (fcb *FilterConditionBuilder) Gte(value any) *QueryBuilder {
	return fcb.addCondition(OpGte, value)
}

// Lt adds a less-than condition.
func (fcb *FilterConditionBuilder) Lt(value any) *QueryBuilder {
	return fcb.addCondition(OpLt, value)
}

// Lte adds a less-than-or-equal condition.
func (fcb *FilterConditionBuilder) Lte(value any) *QueryBuilder {
	return fcb.addCondition(OpLte, value)
}

// In adds a set-membership condition.
func (fcb *FilterConditionBuilder) In(values ...any) *QueryBuilder {
	if values == nil {
		values = []any{}
	}
	return fcb.addCondition(OpIn, values)
}

// Nin adds a set-exclusion condition.
func (fcb *FilterConditionBuilder) Nin(values ...any) *QueryBuilder {
	if values == nil {
		values = []any{}
	}
	return fcb.addCondition(OpNin, values)
}

// Like adds a case-sensitive pattern condition. The pattern is used as is.
func (fcb *FilterConditionBuilder) Like(pattern string) *QueryBuilder {
	return fcb.addCondition(OpLike, pattern)
}

// ILike adds a case-insensitive pattern condition. The pattern is used as is.
func (fcb *FilterConditionBuilder) ILike(pattern string) *QueryBuilder {
	return fcb.addCondition(OpILike, pattern)
}

func (fcb *FilterConditionBuilder) set(f Filter) *QueryBuilder {
	if fcb.parent.options.Filters == nil {
		fcb.parent.options.Filters = make(Filters)
	}
	fcb.parent.options.Filters[fcb.field] = f
	return fcb.parent
}

// addCondition merges one operator into the field's Condition, replacing any
// shortcut filter set before.
func (fcb *FilterConditionBuilder) addCondition(op Operator, value any) *QueryBuilder {
	cond, _ := fcb.parent.options.Filters[fcb.field].(Condition)
	// set only fails on mistyped values, which the typed methods rule out.
	_ = cond.set(op, value)
	return fcb.set(cond)
}

// QueryValidationResult lists problems found by Validate.
type QueryValidationResult struct {
	Valid  bool
	Errors []string
}

// Validate checks the options for problems that can be found without a
// schema.
func (qb *QueryBuilder) Validate() QueryValidationResult {
	var errs []string
	roots := make(map[string]bool)
	for _, include := range qb.options.Includes {
		path, err := ParsePath(include)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		roots[path[0]] = true
	}
	for _, field := range qb.options.Filters.Keys() {
		if !ValidIdentifier(field) {
			errs = append(errs, fmt.Sprintf("invalid filter field %q", field))
		}
	}
	for _, field := range qb.options.Selects {
		if !ValidIdentifier(field) {
			errs = append(errs, fmt.Sprintf("invalid select field %q", field))
		}
	}
	for key := range qb.options.SelectsWithJoin {
		if !roots[key] {
			errs = append(errs, fmt.Sprintf("joined selection %q does not name a root-level include", key))
		}
	}
	for _, o := range qb.options.Orders {
		if !ValidIdentifier(o.Field) {
			errs = append(errs, fmt.Sprintf("invalid order field %q", o.Field))
		}
		if o.Direction != SortDirectionAsc && o.Direction != SortDirectionDesc {
			errs = append(errs, fmt.Sprintf("invalid sort direction %q for %q", o.Direction, o.Field))
		}
	}
	if p := qb.options.Pagination; p != nil {
		if p.Page < 0 || p.Take < 0 {
			errs = append(errs, "pagination page and take must not be negative")
		}
		if p.Take > pagination.MaxTake {
			errs = append(errs, fmt.Sprintf("take must be at most %d", pagination.MaxTake))
		}
	}
	return QueryValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// String summarizes the options for logs.
func (qb *QueryBuilder) String() string {
	var parts []string
	if len(qb.options.Includes) > 0 {
		parts = append(parts, "includes="+strings.Join(qb.options.Includes, ","))
	}
	if len(qb.options.Filters) > 0 {
		parts = append(parts, "filters="+strings.Join(qb.options.Filters.Keys(), ","))
	}
	if len(qb.options.Selects) > 0 {
		parts = append(parts, "selects="+strings.Join(qb.options.Selects, ","))
	}
	if len(qb.options.SelectsWithJoin) > 0 {
		parts = append(parts, fmt.Sprintf("selectsWithJoin=%d", len(qb.options.SelectsWithJoin)))
	}
	for _, o := range qb.options.Orders {
		parts = append(parts, fmt.Sprintf("order=%s:%s", o.Field, o.Direction))
	}
	if p := qb.options.Pagination; p != nil {
		parts = append(parts, fmt.Sprintf("page=%d take=%d", p.Page, p.Take))
	}
	return "QueryOptions{" + strings.Join(parts, " ") + "}"
}
