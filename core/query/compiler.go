package query

import (
	"errors"
	"fmt"
	"strings"
)

// ErrParameterCollision is returned when two predicates would bind the same
// parameter name.
var ErrParameterCollision = errors.New("parameter name collision")

// Predicate is a boolean SQL fragment. Parameters are referenced as :name.
type Predicate string

// ParamBag is an ordered set of named parameters.
type ParamBag struct {
	names  []string
	values map[string]any
}

// NewParamBag creates an empty bag.
func NewParamBag() *ParamBag {
	return &ParamBag{values: make(map[string]any)}
}

// Add binds name to value. Rebinding a name is an error.
func (b *ParamBag) Add(name string, value any) error {
	if _, ok := b.values[name]; ok {
		return fmt.Errorf("%w: %q", ErrParameterCollision, name)
	}
	b.names = append(b.names, name)
	b.values[name] = value
	return nil
}

// Get returns the value bound to name.
func (b *ParamBag) Get(name string) (any, bool) {
	v, ok := b.values[name]
	return v, ok
}

// Names returns the bound names in binding order.
func (b *ParamBag) Names() []string {
	return append([]string(nil), b.names...)
}

// Map returns a copy of the bindings.
func (b *ParamBag) Map() map[string]any {
	out := make(map[string]any, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out
}

// Len is the number of bound names.
func (b *ParamBag) Len() int {
	return len(b.names)
}

// ParamName is the parameter bound for field under op.
func ParamName(field string, op Operator) string {
	return field + strings.ToUpper(string(op))
}

var operatorSQL = map[Operator]string{
	OpEq:    "=",
	OpNeq:   "!=",
	OpGt:    ">",
	OpGte:   ">=",
	OpLt:    "<",
	OpLte:   "<=",
	OpLike:  "LIKE",
	OpILike: "ILIKE",
}

// CompileFilters translates filters on the entity aliased rootAlias into
// predicates meant to be ANDed together, plus their parameters. Fields are
// visited in sorted order so the output is deterministic.
func CompileFilters(rootAlias string, filters Filters) ([]Predicate, *ParamBag, error) {
	params := NewParamBag()
	var predicates []Predicate
	for _, field := range filters.Keys() {
		if err := checkIdentifier("field", field); err != nil {
			return nil, nil, err
		}
		column := rootAlias + "." + field
		switch f := filters[field].(type) {
		case Scalar:
			if f.Value == nil {
				predicates = append(predicates, Predicate(column+" IS NULL"))
				continue
			}
			if !isScalarValue(f.Value) {
				return nil, nil, fmt.Errorf("%w: filter %q: use a list filter for %T", ErrInvalidFilterValue, field, f.Value)
			}
			if err := params.Add(field, f.Value); err != nil {
				return nil, nil, err
			}
			predicates = append(predicates, Predicate(fmt.Sprintf("%s = :%s", column, field)))
		case Set:
			if len(f.Values) == 0 {
				predicates = append(predicates, "1 = 0")
				continue
			}
			if err := params.Add(field, f.Values); err != nil {
				return nil, nil, err
			}
			predicates = append(predicates, Predicate(fmt.Sprintf("%s IN (:%s)", column, field)))
		case IsNull:
			predicates = append(predicates, Predicate(column+" IS NULL"))
		case Condition:
			for _, operand := range f.Operands() {
				p, err := compileOperand(column, field, operand, params)
				if err != nil {
					return nil, nil, err
				}
				predicates = append(predicates, p)
			}
		case nil:
			return nil, nil, fmt.Errorf("filter %q has no value", field)
		default:
			return nil, nil, fmt.Errorf("filter %q has unsupported type %T", field, f)
		}
	}
	return predicates, params, nil
}

func compileOperand(column, field string, operand Operand, params *ParamBag) (Predicate, error) {
	name := ParamName(field, operand.Operator)
	switch operand.Operator {
	case OpIn, OpNin:
		list := operand.Value.([]any)
		if len(list) == 0 {
			if operand.Operator == OpIn {
				return "1 = 0", nil
			}
			return "1 = 1", nil
		}
		if err := params.Add(name, list); err != nil {
			return "", err
		}
		keyword := "IN"
		if operand.Operator == OpNin {
			keyword = "NOT IN"
		}
		return Predicate(fmt.Sprintf("%s %s (:%s)", column, keyword, name)), nil
	}
	sqlOp, ok := operatorSQL[operand.Operator]
	if !ok {
		return "", fmt.Errorf("unsupported filter operator %q", operand.Operator)
	}
	if !isScalarValue(operand.Value) {
		return "", fmt.Errorf("%w: filter %q: operator %q expects a single value, got %T", ErrInvalidFilterValue, field, operand.Operator, operand.Value)
	}
	if err := params.Add(name, operand.Value); err != nil {
		return "", err
	}
	return Predicate(fmt.Sprintf("%s %s :%s", column, sqlOp, name)), nil
}

// JoinPredicates ANDs predicates into one condition string.
func JoinPredicates(predicates []Predicate) string {
	parts := make([]string, len(predicates))
	for i, p := range predicates {
		parts[i] = string(p)
	}
	return strings.Join(parts, " AND ")
}
