package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/asaidimu/go-roster/core/exception"
	"github.com/asaidimu/go-roster/core/schema"
	"go.uber.org/zap"
)

const (
	CodeInvalidQueryWhere = 100
	CodeNotFoundByQuery   = 101

	resourceNotFound = "Resource was not found"
)

// Plan is the compiled form of one QueryOptions against one root alias.
type Plan struct {
	RootAlias  string
	Aliases    *AliasStore
	Joins      []JoinStep
	Predicates []Predicate
	Params     *ParamBag
	Selection  SelectList
}

// Apply writes the plan to h in the fixed order joins, filters, root
// projection, joined projection.
func (p *Plan) Apply(h Handle) Handle {
	for _, j := range p.Joins {
		h = h.LeftJoinAndSelect(j.Source, j.Relation, j.Alias)
	}
	if len(p.Predicates) > 0 {
		h = h.Where(JoinPredicates(p.Predicates), p.Params.Map())
	}
	if len(p.Selection.Root) > 0 {
		h = h.Select(p.Selection.Root...)
	}
	for _, c := range p.Selection.Joined {
		h = h.AddSelect(c.Expr, c.Alias)
	}
	return h
}

// Resolver applies QueryOptions to query handles. It keeps no per-call state
// and may be shared between goroutines.
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a resolver.
func NewResolver(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger}
}

// Compile resolves relations, compiles filters and builds the projection.
func (r *Resolver) Compile(rootAlias string, opts QueryOptions) (*Plan, error) {
	store, joins, err := ResolveRelations(rootAlias, opts.Includes)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve relations: %w", err)
	}
	predicates, params, err := CompileFilters(rootAlias, opts.Filters)
	if err != nil {
		return nil, fmt.Errorf("failed to compile filters: %w", err)
	}
	selection, err := Project(rootAlias, opts.Selects, opts.SelectsWithJoin, store)
	if err != nil {
		return nil, fmt.Errorf("failed to build projection: %w", err)
	}
	r.logger.Debug("Compiled query options",
		zap.String("root", rootAlias),
		zap.Int("joins", len(joins)),
		zap.Int("predicates", len(predicates)),
		zap.Int("params", params.Len()),
		zap.Int("columns", len(selection.Root)+len(selection.Joined)),
	)
	return &Plan{
		RootAlias:  rootAlias,
		Aliases:    store,
		Joins:      joins,
		Predicates: predicates,
		Params:     params,
		Selection:  selection,
	}, nil
}

// Build compiles opts against h's root alias and applies the result to h.
func (r *Resolver) Build(h Handle, opts QueryOptions) (Handle, error) {
	plan, err := r.Compile(h.Alias(), opts)
	if err != nil {
		return nil, err
	}
	return plan.Apply(h), nil
}

// NotFoundByQuery reports a lookup by where that matched nothing.
func NotFoundByQuery(where map[string]any) *exception.Exception {
	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%q=%q", k, fmt.Sprint(where[k]))
	}
	return exception.New(404, CodeNotFoundByQuery, resourceNotFound,
		fmt.Sprintf("Resource with %s was not found.", strings.Join(pairs, ", ")))
}

// InvalidQueryWhere reports filter keys the target entity does not have.
func InvalidQueryWhere(keys ...string) *exception.Exception {
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = fmt.Sprintf("%q", k)
	}
	return exception.New(400, CodeInvalidQueryWhere, resourceNotFound,
		fmt.Sprintf("Resource where conditions for keys %s are invalid.", strings.Join(quoted, ", ")))
}

// ValidateFilterKeys returns InvalidQueryWhere for filter keys that are not
// fields of s, or nil.
func ValidateFilterKeys(s *schema.SchemaDefinition, filters Filters) error {
	if len(filters) == 0 {
		return nil
	}
	unknown := s.UnknownFields(filters.Keys()...)
	if len(unknown) > 0 {
		return InvalidQueryWhere(unknown...)
	}
	return nil
}

// FiltersFromMap turns an equality where mapping into filters.
func FiltersFromMap(where map[string]any) Filters {
	out := make(Filters, len(where))
	for k, v := range where {
		if v == nil {
			out[k] = IsNull{}
			continue
		}
		out[k] = Scalar{Value: v}
	}
	return out
}
