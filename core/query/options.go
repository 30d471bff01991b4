// Package query turns a declarative QueryOptions description into joins,
// parameterized predicates and a projection applied to a query handle.
package query

import (
	"fmt"
	"strings"

	"github.com/asaidimu/go-roster/core/pagination"
	"github.com/asaidimu/go-roster/core/schema"
)

// SortDirection is the direction of an Order entry.
type SortDirection string

const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// ParseSortDirection accepts asc/desc in any case.
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc":
		return SortDirectionAsc, nil
	case "desc":
		return SortDirectionDesc, nil
	}
	return "", fmt.Errorf("invalid sort direction %q", s)
}

// Order sorts by one root field.
type Order struct {
	Field     string        `json:"field" yaml:"field"`
	Direction SortDirection `json:"direction" yaml:"direction"`
}

// QueryOptions is the caller-facing description of a list query.
type QueryOptions struct {
	// Includes are dotted relation paths to join, e.g. "profile.avatar".
	Includes []string `json:"includes,omitempty" yaml:"includes,omitempty"`
	// Filters restrict root-entity fields.
	Filters Filters `json:"filters,omitempty" yaml:"-"`
	// Selects restricts the root columns returned.
	Selects []string `json:"selects,omitempty" yaml:"selects,omitempty"`
	// SelectsWithJoin picks columns from first-level included relations.
	SelectsWithJoin map[string][]string `json:"selectsWithJoin,omitempty" yaml:"selectsWithJoin,omitempty"`

	Orders     []Order                 `json:"orders,omitempty" yaml:"orders,omitempty"`
	Pagination *pagination.PageOptions `json:"pagination,omitempty" yaml:"pagination,omitempty"`
}

// Clone returns a deep copy of the options.
func (o QueryOptions) Clone() QueryOptions {
	out := QueryOptions{
		Includes: append([]string(nil), o.Includes...),
		Selects:  append([]string(nil), o.Selects...),
		Orders:   append([]Order(nil), o.Orders...),
	}
	if o.Filters != nil {
		out.Filters = make(Filters, len(o.Filters))
		for k, v := range o.Filters {
			out.Filters[k] = cloneFilter(v)
		}
	}
	if o.SelectsWithJoin != nil {
		out.SelectsWithJoin = make(map[string][]string, len(o.SelectsWithJoin))
		for k, v := range o.SelectsWithJoin {
			out.SelectsWithJoin[k] = append([]string(nil), v...)
		}
	}
	if o.Pagination != nil {
		p := *o.Pagination
		out.Pagination = &p
	}
	return out
}

func cloneFilter(f Filter) Filter {
	switch v := f.(type) {
	case Set:
		return Set{Values: append([]any(nil), v.Values...)}
	case Condition:
		if v.In != nil {
			v.In = append([]any{}, v.In...)
		}
		if v.Nin != nil {
			v.Nin = append([]any{}, v.Nin...)
		}
		if v.Like != nil {
			s := *v.Like
			v.Like = &s
		}
		if v.ILike != nil {
			s := *v.ILike
			v.ILike = &s
		}
		return v
	}
	return f
}

// QueryResult is the outcome of executing a query.
type QueryResult struct {
	Data  []schema.Document `json:"data"`
	Count int               `json:"count"`
}
