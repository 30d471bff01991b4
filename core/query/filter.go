package query

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
)

// ErrInvalidFilterValue is returned for a filter value whose shape does not
// fit its operator, e.g. a list given to eq.
var ErrInvalidFilterValue = errors.New("invalid filter value")

// Filter is the value side of a single filter entry. It is one of Scalar,
// Set, Condition or IsNull.
type Filter interface {
	filter()
}

// Scalar matches rows whose field equals Value.
type Scalar struct {
	Value any
}

// Set matches rows whose field is one of Values.
type Set struct {
	Values []any
}

// IsNull matches rows whose field is NULL.
type IsNull struct{}

// Condition holds independent operator entries on one field. A nil entry is
// absent. In and Nin are present whenever non-nil, even when empty.
type Condition struct {
	Eq    any
	Neq   any
	Gt    any
	Gte   any
	Lt    any
	Lte   any
	In    []any
	Nin   []any
	Like  *string
	ILike *string
}

func (Scalar) filter()    {}
func (Set) filter()       {}
func (IsNull) filter()    {}
func (Condition) filter() {}

// Operator names a comparison inside a Condition. The upper-cased form is the
// parameter name suffix.
type Operator string

const (
	OpEq    Operator = "eq"
	OpNeq   Operator = "neq"
	OpGt    Operator = "gt"
	OpGte   Operator = "gte"
	OpLt    Operator = "lt"
	OpLte   Operator = "lte"
	OpIn    Operator = "in"
	OpNin   Operator = "nin"
	OpLike  Operator = "like"
	OpILike Operator = "ilike"
)

// operatorOrder is the order in which condition entries are compiled.
var operatorOrder = []Operator{OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpIn, OpNin, OpLike, OpILike}

// Operand is one present entry of a Condition.
type Operand struct {
	Operator Operator
	Value    any
}

// Operands returns the present entries in compile order.
func (c Condition) Operands() []Operand {
	var out []Operand
	for _, op := range operatorOrder {
		if v, ok := c.get(op); ok {
			out = append(out, Operand{Operator: op, Value: v})
		}
	}
	return out
}

// Empty reports whether no operator entry is present.
func (c Condition) Empty() bool {
	return len(c.Operands()) == 0
}

func (c Condition) get(op Operator) (any, bool) {
	switch op {
	case OpEq:
		return c.Eq, c.Eq != nil
	case OpNeq:
		return c.Neq, c.Neq != nil
	case OpGt:
		return c.Gt, c.Gt != nil
	case OpGte:
		return c.Gte, c.Gte != nil
	case OpLt:
		return c.Lt, c.Lt != nil
	case OpLte:
		return c.Lte, c.Lte != nil
	case OpIn:
		return c.In, c.In != nil
	case OpNin:
		return c.Nin, c.Nin != nil
	case OpLike:
		if c.Like == nil {
			return nil, false
		}
		return *c.Like, true
	case OpILike:
		if c.ILike == nil {
			return nil, false
		}
		return *c.ILike, true
	}
	return nil, false
}

// set assigns one operator entry.
func (c *Condition) set(op Operator, value any) error {
	switch op {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte:
		if !isScalarValue(value) {
			return fmt.Errorf("%w: operator %q expects a single value, got %T", ErrInvalidFilterValue, op, value)
		}
	}
	switch op {
	case OpEq:
		c.Eq = value
	case OpNeq:
		c.Neq = value
	case OpGt:
		c.Gt = value
	case OpGte:
		c.Gte = value
	case OpLt:
		c.Lt = value
	case OpLte:
		c.Lte = value
	case OpIn, OpNin:
		list, ok := toList(value)
		if !ok {
			return fmt.Errorf("%w: operator %q expects an array, got %T", ErrInvalidFilterValue, op, value)
		}
		if op == OpIn {
			c.In = list
		} else {
			c.Nin = list
		}
	case OpLike, OpILike:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: operator %q expects a string, got %T", ErrInvalidFilterValue, op, value)
		}
		if op == OpLike {
			c.Like = &s
		} else {
			c.ILike = &s
		}
	default:
		return fmt.Errorf("%w: unsupported filter operator %q", ErrInvalidFilterValue, op)
	}
	return nil
}

// isScalarValue reports whether v binds as one SQL parameter. Byte slices
// are blobs, not lists.
func isScalarValue(v any) bool {
	if v == nil {
		return true
	}
	if _, ok := v.([]byte); ok {
		return true
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return false
	}
	return true
}

func toList(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		if v == nil {
			return []any{}, true
		}
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, true
	case []int64:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, true
	}
	return nil, false
}

// Filters maps field names to their filter. Keys are always visited in
// sorted order.
type Filters map[string]Filter

// Keys returns the field names in sorted order.
func (f Filters) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UnmarshalJSON decodes each entry by shape: an array becomes a Set, an
// object a Condition, null an IsNull and anything else a Scalar.
func (f *Filters) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("filters must be a JSON object: %w", err)
	}
	out := make(Filters, len(raw))
	for key, msg := range raw {
		filter, err := decodeFilter(msg)
		if err != nil {
			return fmt.Errorf("filter %q: %w", key, err)
		}
		out[key] = filter
	}
	*f = out
	return nil
}

func decodeFilter(msg json.RawMessage) (Filter, error) {
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty value")
	}
	switch trimmed[0] {
	case '[':
		var values []any
		if err := json.Unmarshal(trimmed, &values); err != nil {
			return nil, err
		}
		return Set{Values: normalizeList(values)}, nil
	case '{':
		var entries map[string]any
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, err
		}
		var cond Condition
		for name, value := range entries {
			if value == nil {
				continue
			}
			if list, ok := value.([]any); ok {
				value = normalizeList(list)
			} else {
				value = normalizeNumber(value)
			}
			if err := cond.set(Operator(name), value); err != nil {
				return nil, err
			}
		}
		return cond, nil
	case 'n':
		if string(trimmed) == "null" {
			return IsNull{}, nil
		}
	}
	var value any
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return nil, err
	}
	return Scalar{Value: normalizeNumber(value)}, nil
}

// normalizeNumber turns integral JSON numbers into int64 so they bind as
// integers.
func normalizeNumber(v any) any {
	f, ok := v.(float64)
	if !ok {
		return v
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}

func normalizeList(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = normalizeNumber(v)
	}
	return out
}
