package query

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/asaidimu/go-roster/core/schema"
	"go.uber.org/zap"
)

// JoinedColumnName is the output name of a joined table column selected by
// LeftJoinAndSelect.
func JoinedColumnName(alias, field string) string {
	return alias + "_" + field
}

// DataProcessor works on rows after the database returned them: it folds
// joined columns into nested documents and evaluates filters in memory.
type DataProcessor struct {
	patterns map[string]*regexp.Regexp
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewDataProcessor creates a new DataProcessor instance.
func NewDataProcessor(logger *zap.Logger) *DataProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataProcessor{
		patterns: make(map[string]*regexp.Regexp),
		logger:   logger,
	}
}

type nestTarget struct {
	path  RelationPath
	field string
}

// Hydrate turns flat rows into documents. Columns produced by joins are moved
// under their relation path, e.g. "profile_avatar" becomes
// {"profile": {"avatar": ...}}. A relation whose columns are all NULL
// becomes nil.
func (p *DataProcessor) Hydrate(rows []schema.Document, plan *Plan) []schema.Document {
	if plan == nil || plan.Aliases == nil || plan.Aliases.Len() == 0 {
		return rows
	}

	explicit := make(map[string]nestTarget)
	for key, fields := range plan.joinedSelections() {
		for _, field := range fields {
			explicit[key+"_"+field] = nestTarget{path: RelationPath{key}, field: field}
		}
	}

	// Longest alias first so "a_0_0" never claims columns of "a_0_0_b".
	entries := plan.Aliases.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return len(entries[i].Alias) > len(entries[j].Alias)
	})

	out := make([]schema.Document, 0, len(rows))
	for _, row := range rows {
		doc := make(schema.Document, len(row))
		nested := make(map[string]bool)
		for _, e := range entries {
			ensurePath(doc, e.Path)
			nested[e.Path.Key()] = true
		}
		for column, value := range row {
			target, ok := explicit[column]
			if !ok {
				target, ok = matchAlias(entries, column)
			}
			if !ok {
				doc[column] = value
				continue
			}
			ensurePath(doc, target.path)[target.field] = value
		}
		for _, e := range plan.Aliases.Entries() {
			if len(e.Path) == 1 {
				collapse(doc, e.Path[0], nested, e.Path[0])
			}
		}
		out = append(out, doc)
	}
	p.logger.Debug("Hydrated rows", zap.Int("count", len(out)), zap.Int("relations", plan.Aliases.Len()))
	return out
}

func (p *Plan) joinedSelections() map[string][]string {
	out := make(map[string][]string)
	for _, c := range p.Selection.Joined {
		alias := strings.SplitN(c.Expr, ".", 2)[0]
		path, ok := p.Aliases.PathOf(alias)
		if !ok {
			continue
		}
		field := strings.TrimPrefix(c.Alias, path.Key()+"_")
		out[path.Key()] = append(out[path.Key()], field)
	}
	return out
}

func matchAlias(entries []AliasEntry, column string) (nestTarget, bool) {
	for _, e := range entries {
		prefix := e.Alias + "_"
		if strings.HasPrefix(column, prefix) && len(column) > len(prefix) {
			return nestTarget{path: e.Path, field: column[len(prefix):]}, true
		}
	}
	return nestTarget{}, false
}

func ensurePath(doc schema.Document, path RelationPath) schema.Document {
	current := doc
	for _, seg := range path {
		next, ok := current[seg].(schema.Document)
		if !ok {
			next = schema.Document{}
			current[seg] = next
		}
		current = next
	}
	return current
}

// collapse replaces relation documents without any non-nil value by nil and
// reports whether the relation at doc[key] ended up nil.
func collapse(doc schema.Document, key string, nested map[string]bool, pathKey string) bool {
	m, ok := doc[key].(schema.Document)
	if !ok {
		return doc[key] == nil
	}
	empty := true
	for k, v := range m {
		childKey := pathKey + "." + k
		if nested[childKey] {
			if !collapse(m, k, nested, childKey) {
				empty = false
			}
			continue
		}
		if v != nil {
			empty = false
		}
	}
	if empty {
		doc[key] = nil
	}
	return empty
}

// Match evaluates filters against one document in memory with the same
// semantics the compiled predicates have in SQL. A nil or empty filter set
// matches everything.
func (p *DataProcessor) Match(filters Filters, doc schema.Document) (bool, error) {
	for _, field := range filters.Keys() {
		value := doc[field]
		ok, err := p.matchFilter(filters[field], value)
		if err != nil {
			return false, fmt.Errorf("filter %q: %w", field, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (p *DataProcessor) matchFilter(f Filter, value any) (bool, error) {
	switch f := f.(type) {
	case Scalar:
		if f.Value == nil {
			return value == nil, nil
		}
		return value != nil && equalValues(value, f.Value), nil
	case Set:
		return value != nil && contains(f.Values, value), nil
	case IsNull:
		return value == nil, nil
	case Condition:
		for _, operand := range f.Operands() {
			ok, err := p.matchOperand(operand, value)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
	return false, fmt.Errorf("unsupported filter type %T", f)
}

func (p *DataProcessor) matchOperand(operand Operand, value any) (bool, error) {
	switch operand.Operator {
	case OpIn:
		return value != nil && contains(operand.Value.([]any), value), nil
	case OpNin:
		list := operand.Value.([]any)
		if len(list) == 0 {
			return true, nil
		}
		return value != nil && !contains(list, value), nil
	}
	// SQL comparisons against NULL are never true.
	if value == nil {
		return false, nil
	}
	switch operand.Operator {
	case OpEq:
		return equalValues(value, operand.Value), nil
	case OpNeq:
		return !equalValues(value, operand.Value), nil
	case OpGt, OpGte, OpLt, OpLte:
		c, err := compareValues(value, operand.Value)
		if err != nil {
			return false, err
		}
		switch operand.Operator {
		case OpGt:
			return c > 0, nil
		case OpGte:
			return c >= 0, nil
		case OpLt:
			return c < 0, nil
		default:
			return c <= 0, nil
		}
	case OpLike, OpILike:
		s, ok := value.(string)
		if !ok {
			s = fmt.Sprint(value)
		}
		re, err := p.likePattern(operand.Value.(string), operand.Operator == OpILike)
		if err != nil {
			return false, err
		}
		return re.MatchString(s), nil
	}
	return false, fmt.Errorf("unsupported filter operator %q", operand.Operator)
}

// likePattern compiles a LIKE pattern where % matches any run and _ any
// single character.
func (p *DataProcessor) likePattern(pattern string, fold bool) (*regexp.Regexp, error) {
	key := pattern
	if fold {
		key = "(?i)" + pattern
	}
	p.mu.RLock()
	re, ok := p.patterns[key]
	p.mu.RUnlock()
	if ok {
		return re, nil
	}

	var b strings.Builder
	if fold {
		b.WriteString("(?is)")
	} else {
		b.WriteString("(?s)")
	}
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("invalid like pattern %q: %w", pattern, err)
	}
	p.mu.Lock()
	p.patterns[key] = re
	p.mu.Unlock()
	return re, nil
}

func contains(list []any, value any) bool {
	for _, v := range list {
		if equalValues(value, v) {
			return true
		}
	}
	return false
}

func equalValues(a, b any) bool {
	if fa, ok := ToFloat64(a); ok && !isString(a) {
		if fb, ok := ToFloat64(b); ok && !isString(b) {
			return fa == fb
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := toTime(b); ok {
			return ta.Equal(tb)
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := ToBool(b); ok {
			return ba == bb
		}
	}
	if bb, ok := b.(bool); ok {
		if ba, ok := ToBool(a); ok {
			return ba == bb
		}
	}
	return reflect.DeepEqual(a, b) || fmt.Sprint(a) == fmt.Sprint(b)
}

func compareValues(a, b any) (int, error) {
	if fa, ok := ToFloat64(a); ok && !isString(a) {
		if fb, ok := ToFloat64(b); ok {
			return compareOrdered(fa, fb), nil
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := toTime(b); ok {
			return ta.Compare(tb), nil
		}
	}
	sa, okA := a.(string)
	sb, okB := b.(string)
	if okA && okB {
		return strings.Compare(sa, sb), nil
	}
	return 0, fmt.Errorf("cannot compare %T with %T", a, b)
}

func compareOrdered(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		return parsed, err == nil
	}
	return time.Time{}, false
}
